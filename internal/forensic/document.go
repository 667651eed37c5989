// Package forensic implements the PDF alteration analysis engine: revision
// recovery from incremental-update markers, heuristic indicator detection
// over a bounded text surrogate, tool-change detection, timeline
// reconstruction and risk classification.
//
// The engine deliberately works on textual surrogates and raw byte scanning
// rather than a full PDF object parser, so it stays usable on malformed or
// damaged evidence files that a strict parser would reject.
package forensic

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ErrorKind categorizes why a file could not be analyzed.
type ErrorKind string

const (
	ErrTooLarge  ErrorKind = "too_large"
	ErrCorrupt   ErrorKind = "corrupt"
	ErrEncrypted ErrorKind = "encrypted"
	ErrTimeout   ErrorKind = "timeout"
	ErrUnknown   ErrorKind = "unknown"
)

// ScanError is the typed per-file failure record. It never propagates past
// the worker boundary; it becomes the file's outcome instead.
type ScanError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewScanError builds a typed scan error from an underlying cause.
func NewScanError(kind ErrorKind, err error) *ScanError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &ScanError{Kind: kind, Message: msg}
}

// TriState represents a fact that may be unknown, true or false. The visual
// identity flag on a revision starts unknown and is set at most once.
type TriState string

const (
	TriUnknown TriState = "unknown"
	TriTrue    TriState = "true"
	TriFalse   TriState = "false"
)

// Document is the record produced for one scanned file. It is immutable
// once the worker that produced it posts it to the coordinator.
type Document struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	SHA256    string `json:"sha256"`
	PageCount int    `json:"page_count"`

	Indicators IndicatorSet   `json:"indicators"`
	Revisions  []*Revision    `json:"revisions,omitempty"`
	Timeline   Timeline       `json:"timeline"`
	Class      Classification `json:"classification"`

	// RawMetadata holds the unmodified metadata-tool output for the file,
	// preserved for the case bundle and report export.
	RawMetadata string `json:"raw_metadata,omitempty"`

	Annotation string     `json:"annotation,omitempty"`
	ScannedAt  time.Time  `json:"scanned_at"`
	Err        *ScanError `json:"error,omitempty"`
}

// Failed reports whether the document carries a typed error outcome. A
// document is exactly one of: classified or failed.
func (d *Document) Failed() bool {
	return d.Err != nil
}

// Revision is a byte-exact prior snapshot carved out of a parent document's
// raw buffer. Never mutated after creation; the parent reference is by id
// only and does not tie lifetimes together.
type Revision struct {
	Sequence int    `json:"sequence"` // 1-based, oldest first
	Offset   int64  `json:"offset"`   // start offset of the end-of-update marker
	Length   int64  `json:"length"`   // carved byte length
	SHA256   string `json:"sha256"`
	ParentID string `json:"parent_id"`

	// Identical records the visual comparison against the parent document.
	Identical TriState `json:"identical"`

	// Broken is set when the metadata tool reports the carve as structurally
	// unusable and the retain-and-report policy is active.
	Broken bool `json:"broken,omitempty"`

	Indicators  IndicatorSet   `json:"indicators,omitempty"`
	Timeline    Timeline       `json:"timeline"`
	Class       Classification `json:"classification"`
	RawMetadata string         `json:"raw_metadata,omitempty"`

	// MaterializedPath is set when the carve was written out to disk.
	MaterializedPath string `json:"materialized_path,omitempty"`
}

// Digest computes the content digest used for document and revision
// identity and for post-scan integrity verification.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
