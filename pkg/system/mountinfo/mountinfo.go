package mountinfo

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// Kind classifies the filesystem a procfs root lives on.
type Kind int

const (
	Unsupported Kind = iota // no mountinfo available
	Procfs                  // a real proc mount
	Foreign                 // some other filesystem, e.g. a fixture tree
)

func (k Kind) String() string {
	switch k {
	case Procfs:
		return "procfs"
	case Foreign:
		return "foreign"
	default:
		return "unsupported"
	}
}

// Mount is one line of a mountinfo file.
type Mount struct {
	Point  string
	FSType string
	Source string
}

// Parse reads mountinfo lines. Each line has the form
// <id> <parent> <maj:min> <root> <point> <opts> [optional...] - <fstype> <source> <superopts>
// and lines that do not match it are skipped.
func Parse(r io.Reader) ([]Mount, error) {
	var (
		out []Mount
		sc  = bufio.NewScanner(r)
	)
	for sc.Scan() {
		line := sc.Text()
		// mountinfo has: <fields> - <fstype> <source> <superopts>
		sep := " - "
		i := strings.Index(line, sep)
		if i < 0 {
			continue
		}
		tail := strings.Fields(line[i+len(sep):])
		if len(tail) < 1 {
			continue
		}

		// Mount point is field 5 of the pre-separator part (man 5 proc).
		pre := strings.Fields(line[:i])
		if len(pre) < 5 {
			continue
		}

		m := Mount{Point: unescape(pre[4]), FSType: tail[0]}
		if len(tail) > 1 {
			m.Source = tail[1]
		}
		out = append(out, m)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan mountinfo: %w", err)
	}
	return out, nil
}

// Lookup returns the mount that contains path: the one with the longest
// mount point prefix. Later mounts shadow earlier ones on the same point.
func Lookup(mounts []Mount, path string) (Mount, bool) {
	path = filepath.Clean(path)
	var (
		best  Mount
		found bool
	)
	for _, m := range mounts {
		if !within(path, m.Point) {
			continue
		}
		if !found || len(m.Point) >= len(best.Point) {
			best, found = m, true
		}
	}
	return best, found
}

func within(path, point string) bool {
	if point == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == point || strings.HasPrefix(path, point+"/")
}

// unescape decodes the \ooo octal escapes the kernel uses for blanks and
// backslashes in mount points.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
