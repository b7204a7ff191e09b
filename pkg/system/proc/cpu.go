package proc

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// CPUFields names the ten tick counters of a /proc/stat cpu line, in file order.
var CPUFields = []string{
	"user", "nice", "system", "idle", "iowait",
	"irq", "softirq", "steal", "guest", "guest_nice",
}

// CPUCounters holds the tick counters of one /proc/stat cpu line, either the
// aggregate ("cpu") or a single core ("cpuN").
type CPUCounters struct {
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	IOWait    uint64
	IRQ       uint64
	SoftIRQ   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
}

// Uptime is the sum of all ten counters. It is the shared time base for
// percentage denominators, not wall-clock uptime.
func (c CPUCounters) Uptime() uint64 {
	return c.User + c.Nice + c.System + c.Idle + c.IOWait +
		c.IRQ + c.SoftIRQ + c.Steal + c.Guest + c.GuestNice
}

// Values returns the counters in file order.
func (c CPUCounters) Values() [10]uint64 {
	return [10]uint64{
		c.User, c.Nice, c.System, c.Idle, c.IOWait,
		c.IRQ, c.SoftIRQ, c.Steal, c.Guest, c.GuestNice,
	}
}

// Stat is one reading of /proc/stat: the aggregate line plus one entry per
// core line, in file order.
type Stat struct {
	CPU  CPUCounters
	CPUs []CPUCounters
}

// isCPULine reports whether the first token of a /proc/stat line is a cpu label.
func isCPULine(fields []string) bool {
	return len(fields) > 0 && strings.HasPrefix(fields[0], "cpu")
}

// ParseCPULine parses a single "cpu..." line. Exactly ten unsigned counters
// must follow the label.
func ParseCPULine(line string) (string, CPUCounters, error) {
	fields := strings.Fields(line)
	if !isCPULine(fields) {
		return "", CPUCounters{}, &ParseError{Record: "stat", Field: "label", Value: firstToken(fields)}
	}
	label, nums := fields[0], fields[1:]
	if len(nums) != len(CPUFields) {
		return label, CPUCounters{}, arityError(label, CPUFields, len(nums))
	}

	var v [10]uint64
	for i, s := range nums {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return label, CPUCounters{}, &ParseError{Record: label, Field: CPUFields[i], Value: s, Err: err}
		}
		v[i] = n
	}

	return label, CPUCounters{
		User:      v[0],
		Nice:      v[1],
		System:    v[2],
		Idle:      v[3],
		IOWait:    v[4],
		IRQ:       v[5],
		SoftIRQ:   v[6],
		Steal:     v[7],
		Guest:     v[8],
		GuestNice: v[9],
	}, nil
}

// ParseStat reads /proc/stat content. The first cpu line is the aggregate;
// every following cpu line is one core, indexed by line order rather than by
// the number in its label. Non-cpu lines (intr, ctxt, ...) are skipped.
func ParseStat(r io.Reader) (Stat, error) {
	var (
		st   Stat
		seen bool
		sc   = bufio.NewScanner(r)
	)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20) // intr lines get long on big hosts
	for sc.Scan() {
		line := sc.Text()
		if !isCPULine(strings.Fields(line)) {
			continue
		}
		_, c, err := ParseCPULine(line)
		if err != nil {
			return Stat{}, err
		}
		if !seen {
			st.CPU = c
			seen = true
			continue
		}
		st.CPUs = append(st.CPUs, c)
	}
	if err := sc.Err(); err != nil {
		return Stat{}, err
	}
	if !seen {
		return Stat{}, ErrNoCPU
	}
	return st, nil
}

func firstToken(fields []string) string {
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
