// Package proc reads and parses the Linux kernel's CPU accounting files.
// It is the leaf layer under pkg/usage, which turns two readings into
// utilization percentages.
//
// Overview
//
//   - Parsers (pure, no I/O):
//     ParseCPULine(line)   : one "cpu"/"cpuN" line of /proc/stat → CPUCounters
//     ParseStat(r)         : whole /proc/stat → Stat{CPU, CPUs}
//     ParsePIDStat(line)   : one /proc/<pid>/stat record → PIDStat (52 fields)
//
//   - FS (Linux only):
//     NewFS(root)          : reader rooted at a procfs mount (default /proc)
//     FS.ReadStat()        : <root>/stat
//     FS.ListPIDs()        : numeric directories of <root>, as a set
//     FS.ReadPIDStat(pid)  : <root>/<pid>/stat
//
//   - Errors (errs.go):
//     ErrProcessGone : the pid's stat file vanished (process exited). Not fatal.
//     ErrMalformed   : matched by *ParseError and *ArityError.
//     ErrNoCPU       : /proc/stat had no cpu line at all.
//     ErrIO          : open/read failure on the stat file or the proc directory.
//
// # Record formats
//
// /proc/stat cpu lines carry a label followed by exactly ten tick counters:
//
//	cpu  user nice system idle iowait irq softirq steal guest guest_nice
//
// The first cpu line is the aggregate; each later one is a core. Cores are
// indexed by line order, not by the number in their label. Kernels that print
// fewer than ten counters are rejected rather than zero-filled.
//
// /proc/<pid>/stat is a single line of 52 fields (see proc(5)). The second
// field, comm, is wrapped in parentheses and may contain spaces or
// parentheses itself, so it is bounded by the first '(' and the last ')':
//
//	1234 (my) proc) S 1 1234 1234 0 -1 4194560 ...
//
// splits into "1234", "my) proc", "S", "1", ... The field count is checked
// up front; an ArityError lists the missing field names or the number of
// surplus tokens.
//
// # Testing
//
// FS only needs a directory tree, so tests build a fake procfs under
// t.TempDir() and point NewFS at it. Smoke tests against the real /proc are
// hermetic and need no privileges.
package proc
