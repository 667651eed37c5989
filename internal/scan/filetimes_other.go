//go:build !linux && !darwin && !windows

package scan

import (
	"os"
	"time"
)

// fileCreated reports no creation time on platforms without a stat field
// for it; the timeline simply lacks the event.
func fileCreated(_ os.FileInfo) *time.Time {
	return nil
}
