package forensic

import (
	"bytes"
	"context"
	"image"
	"image/draw"
)

// Renderer rasterizes a single page of a PDF buffer at a fixed resolution.
// Implementations live outside the engine; rendering is an external
// collaborator exactly like the metadata tool.
type Renderer interface {
	RenderPage(ctx context.Context, raw []byte, page, dpi int) (image.Image, error)
}

// VisualComparator decides whether a revision is visually identical to its
// parent. Every uncertain path yields false: "not proven identical" is the
// only safe answer for evidence.
type VisualComparator struct {
	renderer Renderer
	pageCap  int
	dpi      int
}

// NewVisualComparator creates a comparator rendering up to pageCap pages at
// the given DPI.
func NewVisualComparator(renderer Renderer, pageCap, dpi int) *VisualComparator {
	return &VisualComparator{renderer: renderer, pageCap: pageCap, dpi: dpi}
}

// IsIdentical renders corresponding page indices from both buffers and
// compares pixels. It returns true only if at least one page pair was
// compared, every pair had equal dimensions, and every pair differed in
// zero pixels. Any render failure, empty document or zero comparable pages
// returns false.
func (c *VisualComparator) IsIdentical(ctx context.Context, parent, revision []byte) bool {
	if len(parent) == 0 || len(revision) == 0 {
		return false
	}
	// Byte-identical buffers render identically by definition.
	if bytes.Equal(parent, revision) {
		return true
	}
	if c.renderer == nil {
		return false
	}

	parentPages := pageCount(parent)
	revisionPages := pageCount(revision)
	pages := min3(parentPages, revisionPages, c.pageCap)
	if pages < 1 {
		return false
	}

	for page := 1; page <= pages; page++ {
		parentImg, err := c.renderer.RenderPage(ctx, parent, page, c.dpi)
		if err != nil {
			return false
		}
		revisionImg, err := c.renderer.RenderPage(ctx, revision, page, c.dpi)
		if err != nil {
			return false
		}
		if !imagesEqual(parentImg, revisionImg) {
			return false
		}
	}
	return true
}

func pageCount(raw []byte) int {
	s, err := OpenStructure(raw)
	if err != nil {
		return 0
	}
	return s.PageCount
}

// imagesEqual reports equal dimensions and a zero bounding-box pixel
// difference.
func imagesEqual(a, b image.Image) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return false
	}
	return bytes.Equal(toRGBA(a).Pix, toRGBA(b).Pix)
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
