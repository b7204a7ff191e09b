package report

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/ja7ad/tickstat/pkg/monitor"
)

// ParquetRow is one tick of aggregate metrics.
type ParquetRow struct {
	Session     string  `parquet:"session"`
	Seq         int64   `parquet:"seq"`
	TimeUnixNs  int64   `parquet:"time_unix_ns"`
	UptimeDelta int64   `parquet:"uptime_delta"`
	Cores       int32   `parquet:"cores"`
	Procs       int32   `parquet:"procs"`
	User        float64 `parquet:"user"`
	Nice        float64 `parquet:"nice"`
	System      float64 `parquet:"system"`
	Idle        float64 `parquet:"idle"`
	IOWait      float64 `parquet:"iowait"`
	IRQ         float64 `parquet:"irq"`
	SoftIRQ     float64 `parquet:"softirq"`
	Steal       float64 `parquet:"steal"`
	Guest       float64 `parquet:"guest"`
	GuestNice   float64 `parquet:"guest_nice"`
	Busy        float64 `parquet:"busy"`
}

// Parquet writes one ParquetRow per successful tick.
type Parquet struct {
	session string
	f       *os.File
	w       *parquet.GenericWriter[ParquetRow]
}

// NewParquet creates path (and its directory).
func NewParquet(path string, session uuid.UUID) (*Parquet, error) {
	f, err := create(path)
	if err != nil {
		return nil, err
	}
	p := newParquet(f, session)
	p.f = f
	return p, nil
}

func newParquet(w io.Writer, session uuid.UUID) *Parquet {
	return &Parquet{
		session: session.String(),
		w:       parquet.NewGenericWriter[ParquetRow](w),
	}
}

func (p *Parquet) Write(r monitor.Result) error {
	if r.Err != nil {
		return nil
	}
	s := r.Sample
	c := s.System.CPU
	row := ParquetRow{
		Session:     p.session,
		Seq:         int64(r.Seq),
		TimeUnixNs:  s.At.UnixNano(),
		UptimeDelta: int64(s.UptimeDelta),
		Cores:       int32(len(s.System.CPUs)),
		Procs:       int32(len(s.Procs)),
		User:        c.User,
		Nice:        c.Nice,
		System:      c.System,
		Idle:        c.Idle,
		IOWait:      c.IOWait,
		IRQ:         c.IRQ,
		SoftIRQ:     c.SoftIRQ,
		Steal:       c.Steal,
		Guest:       c.Guest,
		GuestNice:   c.GuestNice,
		Busy:        c.Busy(),
	}
	if _, err := p.w.Write([]ParquetRow{row}); err != nil {
		return fmt.Errorf("write parquet row: %w", err)
	}
	return nil
}

func (p *Parquet) Close() error {
	err := p.w.Close()
	if err != nil {
		err = fmt.Errorf("close parquet writer: %w", err)
	}
	if p.f != nil {
		if cerr := p.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
