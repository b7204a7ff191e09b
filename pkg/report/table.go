package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/ja7ad/tickstat/pkg/monitor"
	"github.com/ja7ad/tickstat/pkg/types"
	"github.com/ja7ad/tickstat/pkg/usage"
)

// Table prints every tick to a terminal, either as aligned tables (pretty) or
// as one CSV-like line per tick.
type Table struct {
	w      io.Writer
	pretty bool
	top    int
	busy   func() float64
}

// NewTable writes to w. top bounds the process rows per tick (0 = all).
// busy, if set, supplies the smoothed busy figure of the aggregate row,
// typically usage.Accumulator.Busy already fed with the same tick.
func NewTable(w io.Writer, pretty bool, top int, busy func() float64) *Table {
	t := &Table{w: w, pretty: pretty, top: top, busy: busy}
	if !pretty {
		_, _ = fmt.Fprintln(w, "# time, user, system, idle, iowait, busy, busy(ema), procs")
	}
	return t
}

func (t *Table) Write(r monitor.Result) error {
	if r.Err != nil {
		_, err := fmt.Fprintf(t.w, "# %s tick %d failed after %d attempt(s): %v\n",
			r.At.Format(time.TimeOnly), r.Seq, r.Attempts, r.Err)
		return err
	}

	s := r.Sample
	smoothed := s.System.CPU.Busy()
	if t.busy != nil {
		smoothed = t.busy()
	}
	if !t.pretty {
		return t.line(s, smoothed)
	}

	tw := tabwriter.NewWriter(t.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s  tick %d  Δ%d ticks\n", s.At.Format("2006-01-02 15:04:05"), r.Seq, s.UptimeDelta)

	if len(s.System.CPUs) > 0 || s.System.CPU != (usage.SingleCPU{}) {
		fmt.Fprintln(tw, "CPU\tUSER\tNICE\tSYS\tIDLE\tIOWAIT\tIRQ\tSOFTIRQ\tSTEAL\tBUSY\t")
		t.cpuRow(tw, "all", s.System.CPU, smoothed)
		for i, c := range s.System.CPUs {
			t.cpuRow(tw, "cpu"+strconv.Itoa(i), c, c.Busy())
		}
	}

	if procs := t.topProcs(s.Procs); len(procs) > 0 {
		fmt.Fprintln(tw, "PID\tCOMM\tUSER\tKERN\tIDLE\t")
		for _, p := range procs {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", p.PID, p.Comm,
				types.Percent(p.User).Humanized(),
				types.Percent(p.Kern).Humanized(),
				types.Percent(p.Idle).Humanized())
		}
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

func (t *Table) cpuRow(w io.Writer, name string, c usage.SingleCPU, busy float64) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s %s\t\n", name,
		types.Percent(c.User).Humanized(),
		types.Percent(c.Nice).Humanized(),
		types.Percent(c.System).Humanized(),
		types.Percent(c.Idle).Humanized(),
		types.Percent(c.IOWait).Humanized(),
		types.Percent(c.IRQ).Humanized(),
		types.Percent(c.SoftIRQ).Humanized(),
		types.Percent(c.Steal).Humanized(),
		types.Percent(busy).Bar(10),
		types.Percent(busy).Humanized())
}

func (t *Table) line(s usage.Sample, smoothed float64) error {
	c := s.System.CPU
	_, err := fmt.Fprintf(t.w, "%s, %.2f, %.2f, %.2f, %.2f, %.2f, %.2f, %d\n",
		s.At.Format(time.RFC3339), c.User, c.System, c.Idle, c.IOWait, c.Busy(), smoothed, len(s.Procs))
	return err
}

// topProcs orders by user+kern descending, then pid, and keeps t.top rows.
func (t *Table) topProcs(procs []usage.Proc) []usage.Proc {
	out := slices.Clone(procs)
	slices.SortStableFunc(out, func(a, b usage.Proc) int {
		if c := cmp.Compare(b.User+b.Kern, a.User+a.Kern); c != 0 {
			return c
		}
		return cmp.Compare(a.PID, b.PID)
	})
	if t.top > 0 && len(out) > t.top {
		out = out[:t.top]
	}
	return out
}

func (t *Table) Close() error { return nil }
