package usage

import (
	"github.com/ja7ad/tickstat/pkg/system/proc"
)

// StatReader reads the system counters file.
type StatReader interface {
	ReadStat() (proc.Stat, error)
}

// System holds the current and previous /proc/stat readings.
type System struct {
	src StatReader

	cur, prev         proc.Stat
	uptime, oldUptime uint64
}

// NewSystem takes the first reading. Both generations start equal, so the
// first Stat reports zero deltas.
func NewSystem(src StatReader) (*System, error) {
	st, err := src.ReadStat()
	if err != nil {
		return nil, err
	}
	up := st.CPU.Uptime()
	return &System{
		src:       src,
		cur:       st,
		prev:      st,
		uptime:    up,
		oldUptime: up,
	}, nil
}

// Refresh reads a new generation and rotates previous <- current. The read
// happens first; on error both generations are left as they were.
func (s *System) Refresh() error {
	st, err := s.src.ReadStat()
	if err != nil {
		return err
	}
	s.rotate(st)
	return nil
}

func (s *System) rotate(st proc.Stat) {
	s.prev, s.cur = s.cur, st
	s.oldUptime, s.uptime = s.uptime, st.CPU.Uptime()
}

// Uptime returns the tick sums of the current and previous generation.
func (s *System) Uptime() (cur, old uint64) { return s.uptime, s.oldUptime }

// UptimeDelta is the shared denominator for this generation pair.
func (s *System) UptimeDelta() uint64 { return UptimeDelta(s.uptime, s.oldUptime) }

// Cores returns the core count of the current and previous generation.
func (s *System) Cores() (cur, old int) { return len(s.cur.CPUs), len(s.prev.CPUs) }

// CoreMismatch reports whether the two generations have different core
// counts (CPU hot-plug). Stat then only covers the shorter list.
func (s *System) CoreMismatch() bool { return len(s.cur.CPUs) != len(s.prev.CPUs) }

// Stat derives the system and per-core percentages.
func (s *System) Stat() CPUStat {
	return StatPercent(s.cur, s.prev, s.UptimeDelta())
}
