package forensic

import (
	"bytes"
	"sort"
)

// eofMarker is the PDF end-of-update token. Every incremental update
// appends a complete xref/trailer section terminated by this marker, so a
// reader that stops at an earlier occurrence sees the pre-update document.
var eofMarker = []byte("%%EOF")

const (
	// minRevisionOffset rejects marker hits too close to the start of the
	// buffer to terminate a standalone document.
	minRevisionOffset = 1000

	// minTrailingBytes excludes the final marker: a marker within this
	// distance of the end represents current state, not a prior revision.
	minTrailingBytes = 500
)

// MarkerOffsets returns the start offsets of every end-of-update marker in
// the buffer, ascending.
func MarkerOffsets(raw []byte) []int64 {
	var offsets []int64
	pos := len(raw)
	for {
		idx := bytes.LastIndex(raw[:pos], eofMarker)
		if idx < 0 {
			break
		}
		offsets = append(offsets, int64(idx))
		pos = idx
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets
}

// ExtractRevisions recovers prior incremental-update snapshots from the raw
// buffer. Offsets are kept only inside the window
// [minRevisionOffset, len(raw)-minTrailingBytes], which excludes the final
// marker (current state) and buffers too small to be standalone documents.
// Revisions are ordered oldest first with sequence numbers starting at 1.
//
// maxRevisions truncates the tail (newest carves) when exceeded; zero or
// negative means unlimited.
func ExtractRevisions(raw []byte, parentID string, maxRevisions int) []*Revision {
	var kept []int64
	for _, o := range MarkerOffsets(raw) {
		if o < minRevisionOffset || o > int64(len(raw)-minTrailingBytes) {
			continue
		}
		kept = append(kept, o)
	}

	if maxRevisions > 0 && len(kept) > maxRevisions {
		kept = kept[:maxRevisions]
	}

	revisions := make([]*Revision, 0, len(kept))
	for i, o := range kept {
		length := o + int64(len(eofMarker))
		revisions = append(revisions, &Revision{
			Sequence:  i + 1,
			Offset:    o,
			Length:    length,
			SHA256:    Digest(raw[:length]),
			ParentID:  parentID,
			Identical: TriUnknown,
		})
	}
	return revisions
}

// RevisionBytes returns the carved byte content of a revision: the parent
// buffer up to and including the revision's end-of-update marker.
func RevisionBytes(raw []byte, rev *Revision) []byte {
	if rev.Length <= 0 || rev.Length > int64(len(raw)) {
		return nil
	}
	return raw[:rev.Length]
}
