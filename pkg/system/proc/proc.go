//go:build linux

package proc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/go-set/v3"
)

// DefaultRoot is where procfs is normally mounted.
const DefaultRoot = "/proc"

// FS reads kernel accounting files below a procfs root. The zero value is not
// usable; call NewFS.
type FS struct {
	root string
}

// NewFS returns an FS rooted at root. An empty root means DefaultRoot.
func NewFS(root string) *FS {
	if root == "" {
		root = DefaultRoot
	}
	return &FS{root: filepath.Clean(root)}
}

// Root returns the procfs root the FS reads from.
func (fs *FS) Root() string { return fs.root }

// Path joins elem onto the procfs root.
func (fs *FS) Path(elem ...string) string {
	return filepath.Join(append([]string{fs.root}, elem...)...)
}

// Exists reports whether <root>/<pid> is a directory.
func (fs *FS) Exists(pid PID) bool {
	fi, err := os.Stat(fs.Path(pidDir(pid)))
	return err == nil && fi.IsDir()
}

// ReadStat reads and parses <root>/stat.
//
// Any failure to open or read the file is an ErrIO; a file without an
// aggregate cpu line yields ErrNoCPU.
func (fs *FS) ReadStat() (Stat, error) {
	f, err := os.Open(fs.Path("stat"))
	if err != nil {
		return Stat{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() {
		_ = f.Close()
	}()

	st, err := ParseStat(f)
	if err != nil {
		if isParseFailure(err) {
			return Stat{}, err
		}
		return Stat{}, fmt.Errorf("%w: read %s: %w", ErrIO, f.Name(), err)
	}
	return st, nil
}

// ReadPIDStat reads and parses <root>/<pid>/stat.
//
// A process that exits between the directory scan and this read yields
// ErrProcessGone. Other read failures are wrapped in ErrIO.
func (fs *FS) ReadPIDStat(pid PID) (PIDStat, error) {
	path := fs.Path(pidDir(pid), "stat")
	b, err := os.ReadFile(path)
	if err != nil {
		if gone(err) {
			return PIDStat{}, fmt.Errorf("%w: %s", ErrProcessGone, path)
		}
		return PIDStat{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	// The record is a single line; anything after the first newline is ignored.
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	return ParsePIDStat(string(b))
}

// ListPIDs scans the procfs root and returns the set of entries that are
// directories with a purely numeric name.
func (fs *FS) ListPIDs() (*set.Set[PID], error) {
	entries, err := os.ReadDir(fs.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	pids := set.New[PID](len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, ok := parsePID(e.Name())
		if !ok {
			continue
		}
		pids.Insert(pid)
	}
	return pids, nil
}

func pidDir(pid PID) string {
	return strconv.FormatUint(uint64(pid), 10)
}
