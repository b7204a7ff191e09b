package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/tickstat/pkg/monitor"
	"github.com/ja7ad/tickstat/pkg/system/proc"
	"github.com/ja7ad/tickstat/pkg/usage"
)

var session = uuid.MustParse("8f1d8a3e-2b4c-4d7e-9a51-0c6f3e2d1b90")

func sampleResult(seq uint64) monitor.Result {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC).Add(time.Duration(seq) * time.Second)
	return monitor.Result{
		Seq:      seq,
		At:       at,
		Attempts: 1,
		Sample: usage.Sample{
			At:          at,
			UptimeDelta: 200,
			System: usage.CPUStat{
				CPU: usage.SingleCPU{User: 25, System: 10, Idle: 60, IOWait: 5},
				CPUs: []usage.SingleCPU{
					{User: 40, System: 10, Idle: 50},
					{User: 10, System: 10, Idle: 70, IOWait: 10},
				},
			},
			Procs: []usage.Proc{
				{PID: 1, Comm: "init", User: 0, Kern: 0, Idle: 100},
				{PID: 42, Comm: "busy", User: 60, Kern: 30, Idle: 10},
				{PID: 77, Comm: "my)proc", User: 5, Kern: 1, Idle: 94},
			},
		},
	}
}

func failedResult(seq uint64) monitor.Result {
	return monitor.Result{Seq: seq, At: time.Now(), Attempts: 3, Err: errors.New("refresh system: proc: io failure")}
}

func TestParseView(t *testing.T) {
	for _, s := range []string{"all", "System", " procs "} {
		_, err := ParseView(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseView("gpu")
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	s := sampleResult(1).Sample

	t.Run("system_view_drops_procs", func(t *testing.T) {
		out := NewFilter(ViewSystem, nil).Apply(s)
		assert.Nil(t, out.Procs)
		assert.Equal(t, s.System, out.System)
	})

	t.Run("procs_view_drops_system", func(t *testing.T) {
		out := NewFilter(ViewProcs, nil).Apply(s)
		assert.Equal(t, usage.CPUStat{}, out.System)
		assert.Len(t, out.Procs, 3)
	})

	t.Run("pid_list", func(t *testing.T) {
		out := NewFilter(ViewAll, []uint32{42, 77, 9999}).Apply(s)
		require.Len(t, out.Procs, 2)
		assert.Equal(t, proc.PID(42), out.Procs[0].PID)
		assert.Len(t, s.Procs, 3, "input is not modified")
	})
}

type recordingSink struct {
	got    []monitor.Result
	err    error
	closed bool
}

func (r *recordingSink) Write(res monitor.Result) error {
	r.got = append(r.got, res)
	return r.err
}

func (r *recordingSink) Close() error {
	r.closed = true
	return r.err
}

func TestMulti(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("disk full")}
	c := &recordingSink{err: errors.New("broken pipe")}
	m := Multi{a, b, c}

	err := m.Write(sampleResult(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "broken pipe")
	assert.Len(t, a.got, 1)
	assert.Len(t, c.got, 1, "later sinks still receive the result")

	err = m.Close()
	require.Error(t, err)
	assert.True(t, a.closed && b.closed && c.closed)

	assert.NoError(t, Multi{a}.Close())
}

func TestFiltered(t *testing.T) {
	rec := &recordingSink{}
	s := Filtered(rec, NewFilter(ViewAll, []uint32{1}))
	require.NoError(t, s.Write(sampleResult(1)))
	require.NoError(t, s.Write(failedResult(2)))
	require.Len(t, rec.got, 2)
	assert.Len(t, rec.got[0].Sample.Procs, 1)
	assert.Error(t, rec.got[1].Err)
	require.NoError(t, s.Close())
	assert.True(t, rec.closed)
}

func TestTable(t *testing.T) {
	t.Run("pretty", func(t *testing.T) {
		var buf bytes.Buffer
		tb := NewTable(&buf, true, 2, func() float64 { return 33.3 })
		require.NoError(t, tb.Write(sampleResult(1)))
		require.NoError(t, tb.Close())

		out := buf.String()
		t.Log("\n" + out)
		assert.Contains(t, out, "tick 1")
		assert.Contains(t, out, "33.3%")
		assert.Contains(t, out, "cpu1")
		assert.Contains(t, out, "busy")
		assert.Contains(t, out, "my)proc")
		assert.NotContains(t, out, "init", "top 2 by user+kern")
		assert.Less(t, strings.Index(out, "busy"), strings.Index(out, "my)proc"))
	})

	t.Run("lines", func(t *testing.T) {
		var buf bytes.Buffer
		tb := NewTable(&buf, false, 0, nil)
		require.NoError(t, tb.Write(sampleResult(1)))
		require.NoError(t, tb.Write(failedResult(2)))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "#"))
		assert.Equal(t, "2024-05-06T07:08:10Z, 25.00, 10.00, 60.00, 5.00, 35.00, 35.00, 3", lines[1])
		assert.Contains(t, lines[2], "tick 2 failed after 3 attempt(s)")
	})
}

func TestCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "cpu.csv")
	c, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, c.Write(sampleResult(1)))
	require.NoError(t, c.Write(failedResult(2)))
	require.NoError(t, c.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 1+3, "header plus aggregate and two cores; failed tick skipped")
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"2024-05-06T07:08:10Z", "1", "cpu", "25", "0", "10", "60", "5", "0", "0", "0", "0", "0"}, rows[1])
	assert.Equal(t, "cpu0", rows[2][2])
	assert.Equal(t, "cpu1", rows[3][2])
	assert.Equal(t, "10", rows[3][7])
}

func TestJSONL(t *testing.T) {
	var buf bytes.Buffer
	j := newJSONL(&buf, session)
	require.NoError(t, j.Write(sampleResult(1)))
	require.NoError(t, j.Write(failedResult(2)))
	require.NoError(t, j.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var ok record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ok))
	assert.Equal(t, session.String(), ok.Session)
	assert.Equal(t, uint64(1), ok.Seq)
	assert.Equal(t, uint64(200), ok.UptimeDelta)
	require.NotNil(t, ok.System)
	assert.Equal(t, 25.0, ok.System.CPU.User)
	assert.Len(t, ok.Procs, 3)
	assert.Empty(t, ok.Error)
	assert.Contains(t, lines[0], `"guestNice"`)

	var bad record
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &bad))
	assert.Equal(t, uint64(2), bad.Seq)
	assert.Nil(t, bad.System)
	assert.Contains(t, bad.Error, "io failure")
	assert.Equal(t, 3, bad.Attempts)
}

func TestJSONL_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.jsonl")
	j, err := NewJSONL(path, session)
	require.NoError(t, err)
	require.NoError(t, j.Write(sampleResult(1)))
	require.NoError(t, j.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(b, []byte("\n")))
}

func TestParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.parquet")
	p, err := NewParquet(path, session)
	require.NoError(t, err)
	for seq := uint64(1); seq <= 3; seq++ {
		require.NoError(t, p.Write(sampleResult(seq)))
	}
	require.NoError(t, p.Write(failedResult(4)))
	require.NoError(t, p.Close())

	rows, err := parquet.ReadFile[ParquetRow](path)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, session.String(), rows[0].Session)
	assert.Equal(t, int64(3), rows[2].Seq)
	assert.Equal(t, int32(2), rows[0].Cores)
	assert.Equal(t, int32(3), rows[0].Procs)
	assert.InDelta(t, 35.0, rows[0].Busy, 1e-9)
	assert.Equal(t, int64(200), rows[1].UptimeDelta)
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	h := newHTML(&buf, session, 0)
	require.NoError(t, h.Write(sampleResult(1)))
	require.NoError(t, h.Write(failedResult(2)))

	grown := sampleResult(3)
	grown.Sample.System.CPUs = append(grown.Sample.System.CPUs, usage.SingleCPU{Idle: 100})
	require.NoError(t, h.Write(grown))
	assert.Equal(t, 2, h.Ticks())
	require.Len(t, h.cores, 3)
	assert.Len(t, h.cores[2], 2, "late core is padded to the tick count")

	require.NoError(t, h.Close())
	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "CPU (all)")
	assert.Contains(t, out, "Busy per core")
	assert.Contains(t, out, session.String())
}

func TestHTML_Window(t *testing.T) {
	var buf bytes.Buffer
	h := newHTML(&buf, session, 3)
	for seq := uint64(1); seq <= 10; seq++ {
		r := sampleResult(seq)
		if seq == 9 {
			r.Sample.System.CPUs = append(r.Sample.System.CPUs, usage.SingleCPU{Idle: 100})
		}
		require.NoError(t, h.Write(r))
		assert.LessOrEqual(t, h.Ticks(), 3)
	}
	assert.Equal(t, 3, h.Ticks())
	for i, data := range h.cores {
		assert.Len(t, data, 3, "core %d", i)
	}
	assert.Equal(t, sampleResult(10).Sample.At.Format("15:04:05.000"), h.labels[2])
	require.NoError(t, h.Close())
}

func TestHTML_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report", "index.html")
	h := NewHTML(path, session, DefaultHTMLPoints)
	require.NoError(t, h.Write(sampleResult(1)))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing written before Close")

	require.NoError(t, h.Close())
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, fi.Size())
}
