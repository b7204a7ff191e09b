package usage

import (
	"github.com/ja7ad/tickstat/pkg/system/util"
)

// Accumulator keeps running averages of the aggregate CPU line and a
// smoothed busy figure.
type Accumulator struct {
	count int
	sum   SingleCPU
	busy  *util.EMA
	last  float64
}

// NewAccumulator creates an accumulator. Alpha in (0..1] smooths Busy with an
// EMA; 0 or anything outside that range disables smoothing and Busy reports
// the last sample.
func NewAccumulator(alpha float64) *Accumulator {
	a := &Accumulator{}
	if alpha > 0 && alpha <= 1 {
		a.busy = util.NewEMA(alpha)
	}
	return a
}

// Apply folds one tick into the running sums and returns the (smoothed) busy
// percentage for it.
func (a *Accumulator) Apply(st CPUStat) float64 {
	c := st.CPU
	a.count++
	a.sum.User += c.User
	a.sum.Nice += c.Nice
	a.sum.System += c.System
	a.sum.Idle += c.Idle
	a.sum.IOWait += c.IOWait
	a.sum.IRQ += c.IRQ
	a.sum.SoftIRQ += c.SoftIRQ
	a.sum.Steal += c.Steal
	a.sum.Guest += c.Guest
	a.sum.GuestNice += c.GuestNice

	if a.busy != nil {
		return a.busy.Next(c.Busy())
	}
	a.last = c.Busy()
	return a.last
}

// Count is the number of applied ticks.
func (a *Accumulator) Count() int { return a.count }

// Busy returns the busy percentage as of the last Apply.
func (a *Accumulator) Busy() float64 {
	if a.busy != nil {
		return a.busy.Value()
	}
	return a.last
}

// Averages returns the mean of every category over all applied ticks.
func (a *Accumulator) Averages() SingleCPU {
	if a.count == 0 {
		return SingleCPU{}
	}
	n := float64(a.count)
	return SingleCPU{
		User:      a.sum.User / n,
		Nice:      a.sum.Nice / n,
		System:    a.sum.System / n,
		Idle:      a.sum.Idle / n,
		IOWait:    a.sum.IOWait / n,
		IRQ:       a.sum.IRQ / n,
		SoftIRQ:   a.sum.SoftIRQ / n,
		Steal:     a.sum.Steal / n,
		Guest:     a.sum.Guest / n,
		GuestNice: a.sum.GuestNice / n,
	}
}
