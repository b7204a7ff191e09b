package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ja7ad/tickstat/pkg/monitor"
	"github.com/ja7ad/tickstat/pkg/usage"
)

// record is one JSONL line.
type record struct {
	Session     string         `json:"session"`
	Seq         uint64         `json:"seq"`
	Time        time.Time      `json:"time"`
	UptimeDelta uint64         `json:"uptimeDelta,omitempty"`
	System      *usage.CPUStat `json:"system,omitempty"`
	Procs       []usage.Proc   `json:"procs,omitempty"`
	Attempts    int            `json:"attempts,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// JSONL writes one JSON object per tick. Failed ticks are kept, with the
// error text in place of the metrics.
type JSONL struct {
	session uuid.UUID
	f       *os.File
	w       *bufio.Writer
}

// NewJSONL creates path (and its directory).
func NewJSONL(path string, session uuid.UUID) (*JSONL, error) {
	f, err := create(path)
	if err != nil {
		return nil, err
	}
	j := newJSONL(f, session)
	j.f = f
	return j, nil
}

func newJSONL(w io.Writer, session uuid.UUID) *JSONL {
	return &JSONL{session: session, w: bufio.NewWriter(w)}
}

func (j *JSONL) Write(r monitor.Result) error {
	rec := record{
		Session:  j.session.String(),
		Seq:      r.Seq,
		Time:     r.At,
		Attempts: r.Attempts,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	} else {
		s := r.Sample
		rec.Time = s.At
		rec.UptimeDelta = s.UptimeDelta
		if s.System.CPU != (usage.SingleCPU{}) || len(s.System.CPUs) > 0 {
			rec.System = &s.System
		}
		rec.Procs = s.Procs
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	return j.w.Flush()
}

func (j *JSONL) Close() error {
	err := j.w.Flush()
	if j.f != nil {
		if cerr := j.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
