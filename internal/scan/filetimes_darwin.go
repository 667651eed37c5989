//go:build darwin

package scan

import (
	"os"
	"syscall"
	"time"
)

// fileCreated returns the file's birth time. Nil when the stat shape is
// unavailable.
func fileCreated(info os.FileInfo) *time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	t := time.Unix(int64(st.Birthtimespec.Sec), int64(st.Birthtimespec.Nsec))
	return &t
}
