//go:build linux

package mountinfo

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// SelfPath is the mountinfo file of the calling process.
const SelfPath = "/proc/self/mountinfo"

// Detect reports what kind of filesystem root is mounted on, with a
// human-readable detail string.
//
// The statfs magic is authoritative. mountinfo only supplies the detail, so a
// missing mountinfo does not hide a real procfs.
func Detect(root string) (Kind, string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Unsupported, "", fmt.Errorf("resolve %s: %w", root, err)
	}

	isProc, err := IsProcfs(abs)
	if err != nil {
		return Unsupported, "", err
	}

	detail := "no mountinfo"
	if mounts, err := readSelf(); err == nil {
		if m, ok := Lookup(mounts, abs); ok {
			detail = fmt.Sprintf("%s on %s (%s)", m.FSType, m.Point, m.Source)
		}
	}

	if isProc {
		return Procfs, detail, nil
	}
	return Foreign, detail, nil
}

// IsProcfs reports whether path lives on a proc filesystem.
func IsProcfs(path string) (bool, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return false, fmt.Errorf("statfs %s: %w", path, err)
	}
	return int64(st.Type) == unix.PROC_SUPER_MAGIC, nil
}

func readSelf() ([]Mount, error) {
	f, err := os.Open(SelfPath)
	if err != nil {
		return nil, fmt.Errorf("open mountinfo: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return Parse(f)
}
