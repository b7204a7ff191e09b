package proc

import (
	"strconv"
	"strings"
)

// PID identifies a process; it equals the numeric name of its /proc entry.
type PID uint32

// PIDStatFieldCount is the number of fields in /proc/<pid>/stat (see proc(5)).
const PIDStatFieldCount = 52

// PIDStatFields names the /proc/<pid>/stat fields in kernel order.
var PIDStatFields = []string{
	"pid", "comm", "state", "ppid", "pgrp", "session", "tty_nr", "tpgid",
	"flags", "minflt", "cminflt", "majflt", "cmajflt", "utime", "stime",
	"cutime", "cstime", "priority", "nice", "num_threads", "itrealvalue",
	"starttime", "vsize", "rss", "rsslim", "startcode", "endcode",
	"startstack", "kstkesp", "kstkeip", "signal", "blocked", "sigignore",
	"sigcatch", "wchan", "nswap", "cnswap", "exit_signal", "processor",
	"rt_priority", "policy", "delayacct_blkio_ticks", "guest_time",
	"cguest_time", "start_data", "end_data", "start_brk", "arg_start",
	"arg_end", "env_start", "env_end", "exit_code",
}

// PIDStat is a fully parsed /proc/<pid>/stat record. Only UTime, STime and
// StartTime feed the utilization math; the rest is kept as read.
type PIDStat struct {
	PID                 int64
	Comm                string
	State               byte
	PPID                int64
	PGrp                int64
	Session             int64
	TTYNr               int64
	TPGID               int64
	Flags               uint64
	MinFlt              uint64
	CMinFlt             uint64
	MajFlt              uint64
	CMajFlt             uint64
	UTime               uint64
	STime               uint64
	CUTime              int64
	CSTime              int64
	Priority            int64
	Nice                int64
	NumThreads          int64
	ITRealValue         int64
	StartTime           uint64
	VSize               uint64
	RSS                 int64
	RSSLim              uint64
	StartCode           uint64
	EndCode             uint64
	StartStack          uint64
	KStkESP             uint64
	KStkEIP             uint64
	Signal              uint64
	Blocked             uint64
	SigIgnore           uint64
	SigCatch            uint64
	WChan               uint64
	NSwap               uint64
	CNSwap              uint64
	ExitSignal          int64
	Processor           int64
	RTPriority          uint64
	Policy              uint64
	DelayAcctBlkIOTicks uint64
	GuestTime           uint64
	CGuestTime          int64
	StartData           uint64
	EndData             uint64
	StartBrk            uint64
	ArgStart            uint64
	ArgEnd              uint64
	EnvStart            uint64
	EnvEnd              uint64
	ExitCode            int64
}

// SplitPIDStat splits a /proc/<pid>/stat line into its positional fields.
//
// comm may itself contain spaces and parentheses, so it is bounded by the
// first '(' and the last ')' of the line. Text on either side is split on
// whitespace.
func SplitPIDStat(line string) ([]string, error) {
	l := strings.IndexByte(line, '(')
	r := strings.LastIndexByte(line, ')')
	if l < 0 || r < 0 || r < l {
		return nil, &ParseError{Record: "pid stat", Field: "comm", Value: strings.TrimSpace(line)}
	}

	before := strings.Fields(line[:l])
	after := strings.Fields(line[r+1:])

	fields := make([]string, 0, len(before)+1+len(after))
	fields = append(fields, before...)
	fields = append(fields, line[l+1:r])
	fields = append(fields, after...)
	return fields, nil
}

// ParsePIDStat parses one /proc/<pid>/stat line. The field count is checked
// against PIDStatFieldCount before any field is read.
func ParsePIDStat(line string) (PIDStat, error) {
	fields, err := SplitPIDStat(line)
	if err != nil {
		return PIDStat{}, err
	}

	record := "pid stat"
	if len(fields) > 0 {
		record = "pid " + fields[0]
	}
	if len(fields) != PIDStatFieldCount {
		return PIDStat{}, arityError(record, PIDStatFields, len(fields))
	}

	p := fieldParser{record: record, fields: fields}
	st := PIDStat{
		PID:                 p.int(0),
		Comm:                fields[1],
		State:               p.char(2),
		PPID:                p.int(3),
		PGrp:                p.int(4),
		Session:             p.int(5),
		TTYNr:               p.int(6),
		TPGID:               p.int(7),
		Flags:               p.uint(8),
		MinFlt:              p.uint(9),
		CMinFlt:             p.uint(10),
		MajFlt:              p.uint(11),
		CMajFlt:             p.uint(12),
		UTime:               p.uint(13),
		STime:               p.uint(14),
		CUTime:              p.int(15),
		CSTime:              p.int(16),
		Priority:            p.int(17),
		Nice:                p.int(18),
		NumThreads:          p.int(19),
		ITRealValue:         p.int(20),
		StartTime:           p.uint(21),
		VSize:               p.uint(22),
		RSS:                 p.int(23),
		RSSLim:              p.uint(24),
		StartCode:           p.uint(25),
		EndCode:             p.uint(26),
		StartStack:          p.uint(27),
		KStkESP:             p.uint(28),
		KStkEIP:             p.uint(29),
		Signal:              p.uint(30),
		Blocked:             p.uint(31),
		SigIgnore:           p.uint(32),
		SigCatch:            p.uint(33),
		WChan:               p.uint(34),
		NSwap:               p.uint(35),
		CNSwap:              p.uint(36),
		ExitSignal:          p.int(37),
		Processor:           p.int(38),
		RTPriority:          p.uint(39),
		Policy:              p.uint(40),
		DelayAcctBlkIOTicks: p.uint(41),
		GuestTime:           p.uint(42),
		CGuestTime:          p.int(43),
		StartData:           p.uint(44),
		EndData:             p.uint(45),
		StartBrk:            p.uint(46),
		ArgStart:            p.uint(47),
		ArgEnd:              p.uint(48),
		EnvStart:            p.uint(49),
		EnvEnd:              p.uint(50),
		ExitCode:            p.int(51),
	}
	if p.err != nil {
		return PIDStat{}, p.err
	}
	return st, nil
}

// fieldParser keeps the first error so the struct literal above reads top to bottom.
type fieldParser struct {
	record string
	fields []string
	err    error
}

func (p *fieldParser) fail(i int, err error) {
	if p.err == nil {
		p.err = &ParseError{Record: p.record, Field: PIDStatFields[i], Value: p.fields[i], Err: err}
	}
}

func (p *fieldParser) int(i int) int64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(p.fields[i], 10, 64)
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func (p *fieldParser) uint(i int) uint64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseUint(p.fields[i], 10, 64)
	if err != nil {
		p.fail(i, err)
	}
	return v
}

func (p *fieldParser) char(i int) byte {
	if p.err != nil {
		return 0
	}
	s := p.fields[i]
	if len(s) != 1 {
		p.fail(i, nil)
		return 0
	}
	return s[0]
}
