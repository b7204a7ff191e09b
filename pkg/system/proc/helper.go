//go:build linux

package proc

import (
	"errors"
	"io/fs"
	"strconv"

	"golang.org/x/sys/unix"
)

// parsePID accepts only all-digit names; strconv alone would also take "+12".
func parsePID(name string) (PID, bool) {
	if name == "" {
		return 0, false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(name, 10, 32)
	if err != nil {
		return 0, false
	}
	return PID(v), true
}

// gone reports whether a read error means the process has exited.
// Reading a reaped task's files can fail with ESRCH instead of ENOENT.
func gone(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, unix.ESRCH)
}

// isParseFailure separates content errors from read errors coming out of ParseStat.
func isParseFailure(err error) bool {
	return errors.Is(err, ErrMalformed) || errors.Is(err, ErrNoCPU)
}
