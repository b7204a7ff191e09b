package proc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProcessGone indicates that /proc/<pid>/stat vanished between the
	// directory scan and the read. The process exited; callers drop it.
	ErrProcessGone = errors.New("proc: process gone")

	// ErrMalformed is matched by every ParseError and ArityError.
	ErrMalformed = errors.New("proc: malformed record")

	// ErrNoCPU indicates that /proc/stat had no aggregate CPU line.
	ErrNoCPU = errors.New("proc: no cpu line")

	// ErrIO wraps failures to open or read the stat file or the proc directory.
	ErrIO = errors.New("proc: io failure")
)

// ParseError reports a field of a record that did not parse to its declared type.
type ParseError struct {
	Record string // "cpu", "cpu3", "pid 1234", ...
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("proc: %s: field %s: invalid value %q", e.Record, e.Field, e.Value)
	}
	return fmt.Sprintf("proc: %s: field %s: invalid value %q: %v", e.Record, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformed}
	}
	return []error{ErrMalformed, e.Err}
}

// ArityError reports a record whose field count differs from the documented one.
// Missing lists the names of the absent trailing fields; Extra counts surplus tokens.
type ArityError struct {
	Record  string
	Want    int
	Got     int
	Missing []string
	Extra   int
}

func (e *ArityError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("proc: %s: want %d fields, got %d (missing %s)",
			e.Record, e.Want, e.Got, strings.Join(e.Missing, ", "))
	case e.Extra > 0:
		return fmt.Sprintf("proc: %s: want %d fields, got %d (%d extra)",
			e.Record, e.Want, e.Got, e.Extra)
	default:
		return fmt.Sprintf("proc: %s: want %d fields, got %d", e.Record, e.Want, e.Got)
	}
}

func (e *ArityError) Unwrap() error { return ErrMalformed }

func arityError(record string, names []string, got int) *ArityError {
	e := &ArityError{Record: record, Want: len(names), Got: got}
	if got < len(names) {
		e.Missing = append([]string(nil), names[got:]...)
	} else {
		e.Extra = got - len(names)
	}
	return e
}
