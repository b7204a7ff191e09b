package monitor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishNonBlocking(t *testing.T) {
	h := NewHub(nil)
	fast, _ := h.Subscribe(8)
	slow, _ := h.Subscribe(1)

	for i := 1; i <= 3; i++ {
		h.Publish(Result{Seq: uint64(i)})
	}

	assert.Len(t, fast, 3)
	assert.Len(t, slow, 1)
	assert.Equal(t, uint64(2), h.Dropped())
	assert.Equal(t, uint64(1), (<-slow).Seq, "slow subscriber keeps the oldest result")
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe(0)
	require.Equal(t, 1, h.Len())

	cancel()
	cancel()
	assert.Equal(t, 0, h.Len())
	_, ok := <-ch
	assert.False(t, ok)

	h.Publish(Result{Seq: 1})
}

func TestHub_Close(t *testing.T) {
	h := NewHub(nil)
	a, cancelA := h.Subscribe(1)
	b, _ := h.Subscribe(1)
	h.Close()

	for _, ch := range []<-chan Result{a, b} {
		_, ok := <-ch
		assert.False(t, ok)
	}
	cancelA()
	h.Publish(Result{Seq: 9})

	late, _ := h.Subscribe(1)
	_, ok := <-late
	assert.False(t, ok, "subscribing to a closed hub yields a closed channel")
}

func TestHub_ConcurrentSubscribers(t *testing.T) {
	h := NewHub(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, cancel := h.Subscribe(4)
			h.Publish(Result{Seq: 1})
			cancel()
			for range ch {
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, h.Len())
}
