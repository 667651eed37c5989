package scan

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

// Discover streams PDF paths found under root. It is a lazy producer: the
// walk runs concurrently with analysis and the channel closes when the walk
// finishes or the context is canceled. Unreadable subdirectories are
// skipped, not fatal; only the root itself is checked by the caller before
// the walk starts.
func Discover(ctx context.Context, root string) <-chan string {
	paths := make(chan string)
	go func() {
		defer close(paths)
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				// Materialized revision directories from earlier runs would
				// feed carves back into the scan.
				if strings.HasSuffix(d.Name(), "_revisions") {
					return fs.SkipDir
				}
				return nil
			}
			if !strings.EqualFold(filepath.Ext(path), ".pdf") {
				return nil
			}
			select {
			case paths <- path:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return paths
}
