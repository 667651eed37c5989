package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/veridoc/pdfscout/internal/config"
	"github.com/veridoc/pdfscout/internal/exiftool"
	"github.com/veridoc/pdfscout/internal/forensic"
)

var pdfHeader = []byte("%PDF-")

// Analyzer runs the full analysis pipeline for one file. It holds no
// per-file state; one instance serves every worker.
type Analyzer struct {
	cfg        *config.Config
	exif       *exiftool.Runner
	detector   *forensic.Detector
	comparator *forensic.VisualComparator
	log        zerolog.Logger
}

// NewAnalyzer wires the pipeline components from configuration.
func NewAnalyzer(cfg *config.Config, renderer forensic.Renderer, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		cfg:        cfg,
		exif:       exiftool.NewRunner(cfg.ExifToolPath, cfg.ExifToolTimeout),
		detector:   forensic.NewDetector(),
		comparator: forensic.NewVisualComparator(renderer, cfg.VisualPageCap, cfg.VisualDPI),
		log:        log,
	}
}

// AnalyzeFile produces exactly one outcome for the file: a classified
// document or a typed error record. Failures never propagate past this
// boundary.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) *forensic.Document {
	doc := &forensic.Document{
		ID:        uuid.NewString(),
		Path:      path,
		ScannedAt: time.Now(),
	}

	// A unit dispatched after the scan context expired is an outcome, not
	// work: a deadline maps to the timeout kind, plain cancellation stays
	// unknown.
	if err := ctx.Err(); err != nil {
		kind := forensic.ErrUnknown
		if errors.Is(err, context.DeadlineExceeded) {
			kind = forensic.ErrTimeout
		}
		doc.Err = forensic.NewScanError(kind, err)
		return doc
	}

	info, err := os.Stat(path)
	if err != nil {
		doc.Err = forensic.NewScanError(forensic.ErrUnknown, err)
		return doc
	}
	doc.Size = info.Size()

	if info.Size() > a.cfg.MaxFileSize {
		doc.Err = forensic.NewScanError(forensic.ErrTooLarge,
			fmt.Errorf("file is %d bytes (max %d)", info.Size(), a.cfg.MaxFileSize))
		return doc
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		doc.Err = forensic.NewScanError(forensic.ErrUnknown, err)
		return doc
	}
	doc.SHA256 = forensic.Digest(raw)

	// The header may sit after a small amount of junk; anything beyond that
	// is not a PDF.
	if idx := bytes.Index(headOf(raw, 1024), pdfHeader); idx < 0 {
		doc.Err = forensic.NewScanError(forensic.ErrCorrupt, fmt.Errorf("missing PDF header"))
		return doc
	}

	surrogate := forensic.BuildSurrogate(raw)

	structure, structErr := forensic.OpenStructure(raw)
	if structErr != nil && forensic.LooksEncrypted(raw) {
		doc.Err = forensic.NewScanError(forensic.ErrEncrypted, structErr)
		return doc
	}
	if structure != nil {
		if structure.Encrypted {
			doc.Err = forensic.NewScanError(forensic.ErrEncrypted,
				fmt.Errorf("document carries an encryption dictionary"))
			return doc
		}
		doc.PageCount = structure.PageCount
	} else {
		// Structural access degrades; surrogate rules still run.
		a.log.Debug().Str("path", path).Err(structErr).Msg("structural open failed")
	}

	revisions := forensic.ExtractRevisions(raw, doc.ID, a.cfg.MaxRevisions)
	doc.Revisions = a.analyzeRevisions(ctx, raw, revisions)

	doc.RawMetadata = a.exif.Extract(ctx, raw, true)
	meta := exiftool.Parse(doc.RawMetadata)
	toolChange := forensic.DetectToolChange(meta)

	doc.Indicators = a.detector.Detect(forensic.Input{
		Surrogate:     surrogate,
		Raw:           raw,
		Structure:     structure,
		RevisionCount: len(doc.Revisions),
		ToolChange:    &toolChange,
	})

	modTime := info.ModTime()
	doc.Timeline = forensic.BuildTimeline(forensic.TimelineInput{
		FileCreated:  fileCreated(info),
		FileModified: &modTime,
		Meta:         meta,
		Surrogate:    surrogate,
		ToolChange:   &toolChange,
	})

	doc.Class = forensic.Classify(doc.Indicators.Names(), false, "", forensic.TriUnknown)
	return doc
}

// analyzeRevisions runs the per-revision pipeline: metadata, structural
// policy check, visual comparison, indicators, timeline and classification.
// Every sub-step failure degrades to an absent field.
func (a *Analyzer) analyzeRevisions(ctx context.Context, raw []byte, revisions []*forensic.Revision) []*forensic.Revision {
	kept := revisions[:0]
	for _, rev := range revisions {
		revBytes := forensic.RevisionBytes(raw, rev)
		if revBytes == nil {
			continue
		}

		rev.RawMetadata = a.exif.Extract(ctx, revBytes, false)
		meta := exiftool.Parse(rev.RawMetadata)

		// A carve the metadata tool cannot read at all is structurally
		// broken; the policy flag decides whether it survives.
		if meta.Empty() && forensic.ValidateBytes(revBytes) != nil {
			if !a.cfg.KeepBrokenRevisions {
				continue
			}
			rev.Broken = true
		}

		if a.comparator.IsIdentical(ctx, raw, revBytes) {
			rev.Identical = forensic.TriTrue
		} else {
			rev.Identical = forensic.TriFalse
		}

		surrogate := forensic.BuildSurrogate(revBytes)
		structure, _ := forensic.OpenStructure(revBytes)
		toolChange := forensic.DetectToolChange(meta)

		rev.Indicators = a.detector.Detect(forensic.Input{
			Surrogate:  surrogate,
			Raw:        revBytes,
			Structure:  structure,
			ToolChange: &toolChange,
		})
		rev.Timeline = forensic.BuildTimeline(forensic.TimelineInput{
			Meta:       meta,
			Surrogate:  surrogate,
			ToolChange: &toolChange,
		})
		rev.Class = forensic.Classify(rev.Indicators.Names(), true, rev.ParentID, rev.Identical)

		kept = append(kept, rev)
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

func headOf(raw []byte, n int) []byte {
	if len(raw) < n {
		return raw
	}
	return raw[:n]
}
