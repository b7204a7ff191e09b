package usage

import (
	"time"

	"github.com/ja7ad/tickstat/pkg/system/proc"
)

// SingleCPU holds the per-category utilization of one CPU line, in percent of
// the elapsed ticks. Values are reported exactly as computed and are not
// clamped.
type SingleCPU struct {
	User      float64 `json:"user"`
	Nice      float64 `json:"nice"`
	System    float64 `json:"system"`
	Idle      float64 `json:"idle"`
	IOWait    float64 `json:"iowait"`
	IRQ       float64 `json:"irq"`
	SoftIRQ   float64 `json:"softirq"`
	Steal     float64 `json:"steal"`
	Guest     float64 `json:"guest"`
	GuestNice float64 `json:"guestNice"`
}

// Busy is everything except idle and iowait.
func (c SingleCPU) Busy() float64 { return 100 - c.Idle - c.IOWait }

// CPUStat is the system-wide utilization plus one entry per core.
type CPUStat struct {
	CPU  SingleCPU   `json:"cpu"`
	CPUs []SingleCPU `json:"cpus"`
}

// Proc is the utilization of one process. User and Kern are clamped to
// [0,100]; Idle is 100-User-Kern and may be negative.
type Proc struct {
	PID  proc.PID `json:"pid"`
	Comm string   `json:"comm"`
	User float64  `json:"user"`
	Kern float64  `json:"kern"`
	Idle float64  `json:"idle"`
}

// Sample is everything derived from one Engine.Refresh.
type Sample struct {
	At          time.Time `json:"time"`
	UptimeDelta uint64    `json:"uptimeDelta"`
	System      CPUStat   `json:"system"`
	Procs       []Proc    `json:"procs"`
}
