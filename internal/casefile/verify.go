package casefile

import (
	"os"
	"sort"

	"github.com/veridoc/pdfscout/internal/forensic"
)

// VerificationReport partitions the bundle's evidence files by integrity
// outcome. Every document lands in exactly one slice.
type VerificationReport struct {
	Verified   []string `json:"verified"`
	Mismatched []string `json:"mismatched"`
	Missing    []string `json:"missing"`
}

// Verify recomputes the content digest of every evidence file and diffs it
// against the value recorded at scan time. Files that moved or vanished are
// reported as missing, never as a fatal condition.
func (b *Bundle) Verify() *VerificationReport {
	report := &VerificationReport{}
	for _, doc := range b.Documents {
		raw, err := os.ReadFile(doc.Path)
		if err != nil {
			report.Missing = append(report.Missing, doc.Path)
			continue
		}
		if forensic.Digest(raw) == doc.SHA256 {
			report.Verified = append(report.Verified, doc.Path)
		} else {
			report.Mismatched = append(report.Mismatched, doc.Path)
		}
	}
	sort.Strings(report.Verified)
	sort.Strings(report.Mismatched)
	sort.Strings(report.Missing)
	return report
}
