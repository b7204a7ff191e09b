package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/ja7ad/tickstat/pkg/usage"
)

// Result is the outcome of one tick. Exactly one of Sample and Err is
// meaningful.
type Result struct {
	Seq      uint64
	At       time.Time
	Sample   usage.Sample
	Err      error
	Attempts int
}

// Refresher produces one sample per call. *usage.Engine implements it.
type Refresher interface {
	Refresh() (usage.Sample, error)
}

// Config controls the polling loop.
type Config struct {
	Interval time.Duration // time between ticks
	Retries  int           // extra attempts after a failed refresh
	Backoff  time.Duration // delay before the first retry, doubled per retry
}

func _defaultConfig() *Config {
	return &Config{
		Interval: time.Second,
		Retries:  2,
		Backoff:  100 * time.Millisecond,
	}
}

// Poller drives a single Refresher on a fixed interval and publishes every
// tick, failed or not, through its Hub.
type Poller struct {
	cfg *Config
	src Refresher
	hub *Hub
	log *slog.Logger
	seq uint64
}

// NewPoller creates a poller.
// Interval and Backoff must be > 0 to override defaults. Retries >= 0 is
// taken verbatim, so 0 disables retrying; negative means unset.
func NewPoller(src Refresher, cfg *Config, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	merged := *_defaultConfig()
	if cfg != nil {
		if cfg.Interval > 0 {
			merged.Interval = cfg.Interval
		}
		if cfg.Backoff > 0 {
			merged.Backoff = cfg.Backoff
		}
		if cfg.Retries >= 0 {
			merged.Retries = cfg.Retries
		}
	}
	return &Poller{
		cfg: &merged,
		src: src,
		hub: NewHub(log),
		log: log,
	}
}

// Config returns the effective configuration.
func (p *Poller) Config() Config { return *p.cfg }

// Subscribe is Hub.Subscribe on the poller's hub.
func (p *Poller) Subscribe(buffer int) (<-chan Result, func()) {
	return p.hub.Subscribe(buffer)
}

// Hub exposes the fan-out hub, mainly for drop statistics.
func (p *Poller) Hub() *Hub { return p.hub }

// Run ticks until ctx is done, then closes all subscriber channels. A failed
// tick is logged and published with Err set; the next tick runs as usual.
func (p *Poller) Run(ctx context.Context) {
	defer p.hub.Close()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Debug("poller stopped", "ticks", p.seq, "dropped", p.hub.Dropped())
			return
		case <-ticker.C:
			r := p.tick(ctx)
			if ctx.Err() != nil && r.Err != nil {
				// cancelled mid-retry; nobody is waiting for this one
				return
			}
			p.hub.Publish(r)
		}
	}
}

func (p *Poller) tick(ctx context.Context) Result {
	p.seq++
	r := Result{Seq: p.seq}

	delay := p.cfg.Backoff
	for {
		r.Attempts++
		s, err := p.src.Refresh()
		if err == nil {
			r.Sample, r.Err = s, nil
			r.At = s.At
			return r
		}
		r.Err = err
		if r.Attempts > p.cfg.Retries {
			break
		}

		p.log.Debug("refresh failed, retrying", "seq", r.Seq, "attempt", r.Attempts, "backoff", delay, "err", err)
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			r.At = time.Now()
			return r
		case <-t.C:
		}
		delay = min(delay*2, p.cfg.Interval)
	}

	r.At = time.Now()
	p.log.Warn("sample error", "seq", r.Seq, "attempts", r.Attempts, "err", r.Err)
	return r
}
