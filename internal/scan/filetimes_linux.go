//go:build linux

package scan

import (
	"os"
	"syscall"
	"time"
)

// fileCreated returns the inode change time, the closest timestamp Linux
// exposes to a creation time. Nil when the stat shape is unavailable.
func fileCreated(info os.FileInfo) *time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	t := time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	return &t
}
