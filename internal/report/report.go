// Package report exports the scanned record set. Every record field the
// analysis produces is exposed in serializable form.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/veridoc/pdfscout/internal/forensic"
	"github.com/veridoc/pdfscout/internal/scan"
)

// Record is one flattened export row: an original document or one of its
// carved revisions.
type Record struct {
	DisplayID      int      `json:"display_id"`
	Kind           string   `json:"kind"` // document or revision
	Path           string   `json:"path"`
	Size           int64    `json:"size"`
	SHA256         string   `json:"sha256"`
	Classification string   `json:"classification"`
	Indicators     []string `json:"indicators,omitempty"`
	Details        []string `json:"details,omitempty"`
	AwareEvents    int      `json:"aware_events"`
	NaiveEvents    int      `json:"naive_events"`
	RevisionCount  int      `json:"revision_count"`
	Sequence       int      `json:"sequence,omitempty"`
	Offset         int64    `json:"offset,omitempty"`
	ParentID       string   `json:"parent_id,omitempty"`
	Annotation     string   `json:"annotation,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Flatten turns documents into export records, revisions inline after their
// parent. Display ids are a projection over this record set, recomputed
// here, never read from storage.
func Flatten(docs []*forensic.Document, annotations map[string]string) []Record {
	ids := scan.DisplayIDs(docs)
	var records []Record
	for _, doc := range docs {
		rec := Record{
			DisplayID:      ids[doc.ID],
			Kind:           "document",
			Path:           doc.Path,
			Size:           doc.Size,
			SHA256:         doc.SHA256,
			Classification: doc.Class.String(),
			Indicators:     doc.Indicators.SortedNames(),
			Details:        details(doc.Indicators),
			AwareEvents:    len(doc.Timeline.Aware),
			NaiveEvents:    len(doc.Timeline.Naive),
			RevisionCount:  len(doc.Revisions),
			Annotation:     annotations[doc.ID],
		}
		if doc.Failed() {
			rec.Classification = ""
			rec.Error = doc.Err.Error()
		}
		records = append(records, rec)

		for _, rev := range doc.Revisions {
			records = append(records, Record{
				DisplayID:      ids[doc.ID],
				Kind:           "revision",
				Path:           rev.MaterializedPath,
				Size:           rev.Length,
				SHA256:         rev.SHA256,
				Classification: rev.Class.String(),
				Indicators:     rev.Indicators.SortedNames(),
				Details:        details(rev.Indicators),
				AwareEvents:    len(rev.Timeline.Aware),
				NaiveEvents:    len(rev.Timeline.Naive),
				Sequence:       rev.Sequence,
				Offset:         rev.Offset,
				ParentID:       rev.ParentID,
			})
		}
	}
	return records
}

func details(set forensic.IndicatorSet) []string {
	var out []string
	for _, ind := range set {
		out = append(out, fmt.Sprintf("%s: %s", ind.Name, ind.Details()))
	}
	return out
}

// WriteJSON writes the record set as indented JSON.
func WriteJSON(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes the record set as CSV with a header row.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	header := []string{
		"display_id", "kind", "path", "size", "sha256", "classification",
		"indicators", "details", "aware_events", "naive_events",
		"revision_count", "sequence", "offset", "parent_id", "annotation", "error",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.DisplayID),
			r.Kind,
			r.Path,
			strconv.FormatInt(r.Size, 10),
			r.SHA256,
			r.Classification,
			strings.Join(r.Indicators, "; "),
			strings.Join(r.Details, "; "),
			strconv.Itoa(r.AwareEvents),
			strconv.Itoa(r.NaiveEvents),
			strconv.Itoa(r.RevisionCount),
			strconv.Itoa(r.Sequence),
			strconv.FormatInt(r.Offset, 10),
			r.ParentID,
			r.Annotation,
			r.Error,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
