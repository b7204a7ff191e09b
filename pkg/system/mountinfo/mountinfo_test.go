package mountinfo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `22 28 0:20 / /sys rw,nosuid,nodev,noexec,relatime shared:7 - sysfs sysfs rw
23 28 0:21 / /proc rw,nosuid,nodev,noexec,relatime shared:12 - proc proc rw
28 1 8:1 / / rw,relatime shared:1 - ext4 /dev/sda1 rw,errors=remount-ro
30 28 0:26 / /sys/fs/cgroup rw,nosuid,nodev,noexec,relatime shared:9 - cgroup2 cgroup2 rw
41 28 0:35 / /mnt/my\040disk rw,relatime - ext4 /dev/sdb1 rw
garbage line without separator
99 28 0:50 / /proc/sys/fs/binfmt_misc rw,relatime shared:30 - binfmt_misc binfmt_misc rw
`

func TestParse(t *testing.T) {
	mounts, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, mounts, 6)

	assert.Equal(t, Mount{Point: "/proc", FSType: "proc", Source: "proc"}, mounts[1])
	assert.Equal(t, "/mnt/my disk", mounts[4].Point)
	assert.Equal(t, "cgroup2", mounts[3].FSType)
}

func TestLookup(t *testing.T) {
	mounts, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	cases := map[string]string{
		"/proc":                      "proc",
		"/proc/":                     "proc",
		"/proc/1/stat":               "proc",
		"/proc/sys/fs/binfmt_misc/x": "binfmt_misc",
		"/procfs-fixture":            "ext4",
		"/tmp/fixture":               "ext4",
		"/sys/fs/cgroup/cpu.max":     "cgroup2",
		"/mnt/my disk/proc":          "ext4",
	}
	for path, fstype := range cases {
		m, ok := Lookup(mounts, path)
		require.True(t, ok, path)
		assert.Equal(t, fstype, m.FSType, path)
	}

	_, ok := Lookup(nil, "/proc")
	assert.False(t, ok)
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "a b", unescape(`a\040b`))
	assert.Equal(t, `a\b`, unescape(`a\134b`))
	assert.Equal(t, `tail\04`, unescape(`tail\04`))
	assert.Equal(t, "plain", unescape("plain"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "procfs", Procfs.String())
	assert.Equal(t, "foreign", Foreign.String())
	assert.Equal(t, "unsupported", Unsupported.String())
}
