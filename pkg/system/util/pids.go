package util

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrBadPID is returned for arguments that are neither a pid nor a pid range.
var ErrBadPID = errors.New("util: bad pid argument")

// MaxPID is the largest value the kernel accepts for pid_max.
const MaxPID = 1 << 22

// ParsePIDs parses CLI arguments of the form "123" or "100..120" (inclusive)
// into a sorted, de-duplicated pid list. Pids above MaxPID are rejected.
func ParsePIDs(args []string) ([]uint32, error) {
	seen := make(map[uint32]struct{})
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(arg, "..")
		if !isRange {
			hi = lo
		}
		from, err := parseOne(lo)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadPID, arg)
		}
		to, err := parseOne(hi)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadPID, arg)
		}
		if to < from {
			return nil, fmt.Errorf("%w: %q: range end before start", ErrBadPID, arg)
		}
		for p := from; ; p++ {
			seen[p] = struct{}{}
			if p == to {
				break
			}
		}
	}

	out := make([]uint32, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	slices.Sort(out)
	return out, nil
}

func parseOne(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, errors.New("pid 0")
	}
	if v > MaxPID {
		return 0, fmt.Errorf("pid %d above %d", v, MaxPID)
	}
	return uint32(v), nil
}
