// Package exiftool wraps the external metadata-extraction tool. The tool is
// a hard process boundary: it gets raw bytes on stdin, a deadline, and its
// line-oriented output is parsed without ever letting a tool failure
// escalate past the caller.
package exiftool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// SentinelPrefix marks diagnostic placeholder output produced when the tool
// could not run. Callers treat such output as "metadata absent".
const SentinelPrefix = "[exiftool unavailable]"

// Runner invokes the metadata tool with a per-invocation timeout.
type Runner struct {
	path    string
	timeout time.Duration
}

// NewRunner creates a runner for the tool at the given path.
func NewRunner(path string, timeout time.Duration) *Runner {
	if path == "" {
		path = "exiftool"
	}
	return &Runner{path: path, timeout: timeout}
}

// Extract runs the tool over raw bytes supplied via standard input and
// returns its text output. detailed enables duplicate/unknown tag output.
// On timeout or tool absence a sentinel diagnostic string is returned
// instead of an error; invocation never fails the scan.
func (r *Runner) Extract(ctx context.Context, raw []byte, detailed bool) string {
	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := []string{"-G", "-s"}
	if detailed {
		args = append(args, "-a", "-u")
	}
	args = append(args, "-")

	cmd := exec.CommandContext(runCtx, r.path, args...)
	cmd.Stdin = bytes.NewReader(raw)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	switch {
	case err == nil:
		return stdout.String()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return fmt.Sprintf("%s timeout after %s", SentinelPrefix, r.timeout)
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Sprintf("%s not found at %q", SentinelPrefix, r.path)
	default:
		// exiftool exits non-zero on files it considers broken but often
		// still emits usable tags; keep whatever came out.
		if stdout.Len() > 0 {
			return stdout.String()
		}
		return fmt.Sprintf("%s %v: %s", SentinelPrefix, err, strings.TrimSpace(stderr.String()))
	}
}

// IsSentinel reports whether tool output is a diagnostic placeholder rather
// than real metadata.
func IsSentinel(output string) bool {
	return strings.HasPrefix(output, SentinelPrefix)
}
