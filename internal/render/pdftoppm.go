// Package render provides page rasterization through the external pdftoppm
// binary. No Go library in this stack rasterizes PDF content, so rendering
// crosses a process boundary the same way metadata extraction does.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"time"
)

// PdftoppmRenderer renders pages by piping the PDF buffer through pdftoppm.
type PdftoppmRenderer struct {
	path    string
	timeout time.Duration
}

// NewPdftoppmRenderer creates a renderer for the binary at the given path.
func NewPdftoppmRenderer(path string, timeout time.Duration) *PdftoppmRenderer {
	if path == "" {
		path = "pdftoppm"
	}
	return &PdftoppmRenderer{path: path, timeout: timeout}
}

// RenderPage rasterizes one page (1-based) at the given DPI and decodes the
// PNG output.
func (r *PdftoppmRenderer) RenderPage(ctx context.Context, raw []byte, page, dpi int) (image.Image, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page number %d", page)
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, r.path,
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-", "-",
	)
	cmd.Stdin = bytes.NewReader(raw)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm page %d: %w: %s", page, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("pdftoppm page %d: empty render output", page)
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode rendered page %d: %w", page, err)
	}
	return img, nil
}
