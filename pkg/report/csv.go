package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ja7ad/tickstat/pkg/monitor"
	"github.com/ja7ad/tickstat/pkg/system/util"
	"github.com/ja7ad/tickstat/pkg/usage"
)

var csvHeader = []string{
	"time", "seq", "cpu", "user", "nice", "system", "idle", "iowait",
	"irq", "softirq", "steal", "guest", "guest_nice",
}

// CSV writes one row per CPU line per tick: the aggregate as "cpu", then
// "cpu0".. in core order.
type CSV struct {
	f *os.File
	w *csv.Writer
}

// NewCSV creates path (and its directory) and writes the header.
func NewCSV(path string) (*CSV, error) {
	f, err := create(path)
	if err != nil {
		return nil, err
	}
	c := newCSV(f)
	c.f = f
	if err := c.w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return c, nil
}

func newCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w)}
}

func (c *CSV) Write(r monitor.Result) error {
	if r.Err != nil {
		return nil
	}
	s := r.Sample
	ts := s.At.Format(time.RFC3339Nano)
	seq := strconv.FormatUint(r.Seq, 10)

	if err := c.w.Write(csvRow(ts, seq, "cpu", s.System.CPU)); err != nil {
		return err
	}
	for i, core := range s.System.CPUs {
		if err := c.w.Write(csvRow(ts, seq, "cpu"+strconv.Itoa(i), core)); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}

func csvRow(ts, seq, name string, v usage.SingleCPU) []string {
	return []string{
		ts, seq, name,
		util.FmtFloat(v.User), util.FmtFloat(v.Nice), util.FmtFloat(v.System),
		util.FmtFloat(v.Idle), util.FmtFloat(v.IOWait), util.FmtFloat(v.IRQ),
		util.FmtFloat(v.SoftIRQ), util.FmtFloat(v.Steal), util.FmtFloat(v.Guest),
		util.FmtFloat(v.GuestNice),
	}
}

func (c *CSV) Close() error {
	c.w.Flush()
	err := c.w.Error()
	if c.f != nil {
		if cerr := c.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
