// Package casefile persists one scan session as a portable evidence bundle
// and verifies evidence files against the digests recorded at scan time.
package casefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/veridoc/pdfscout/internal/forensic"
	"github.com/veridoc/pdfscout/internal/scan"
)

// FormatVersion is bumped on incompatible bundle layout changes.
const FormatVersion = 1

// Bundle is the serialized snapshot of one scan session. Reopening a bundle
// reproduces identical classifications for every record: classification is
// stored alongside its inputs and is also recomputable from them.
type Bundle struct {
	FormatVersion int       `json:"format_version"`
	SessionID     string    `json:"session_id"`
	Root          string    `json:"root"`
	CreatedAt     time.Time `json:"created_at"`

	Documents []*forensic.Document `json:"documents"`
	Summary   scan.Summary         `json:"summary"`

	// Annotations maps a document id to free-text case notes.
	Annotations map[string]string `json:"annotations,omitempty"`
}

// FromSession snapshots a completed scan session into a bundle.
func FromSession(s *scan.Session) *Bundle {
	return &Bundle{
		FormatVersion: FormatVersion,
		SessionID:     s.ID,
		Root:          s.Root,
		CreatedAt:     time.Now(),
		Documents:     s.Documents,
		Summary:       s.Summary,
		Annotations:   make(map[string]string),
	}
}

// Save writes the bundle atomically: a rename replaces any previous file
// only after the full snapshot hit disk.
func (b *Bundle) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode case bundle: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".casefile-*")
	if err != nil {
		return fmt.Errorf("create temporary bundle: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write case bundle: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close case bundle: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace case bundle: %w", err)
	}
	return nil
}

// Load reads a bundle from disk.
func Load(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case bundle: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode case bundle: %w", err)
	}
	if b.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported bundle format version %d", b.FormatVersion)
	}
	return &b, nil
}

// Annotate attaches free-text notes to a record by document id.
func (b *Bundle) Annotate(docID, text string) {
	if b.Annotations == nil {
		b.Annotations = make(map[string]string)
	}
	b.Annotations[docID] = text
}
