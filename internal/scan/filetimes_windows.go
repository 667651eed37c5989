//go:build windows

package scan

import (
	"os"
	"syscall"
	"time"
)

// fileCreated returns the file's creation time. Nil when the stat shape is
// unavailable.
func fileCreated(info os.FileInfo) *time.Time {
	st, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return nil
	}
	t := time.Unix(0, st.CreationTime.Nanoseconds())
	return &t
}
