package forensic

import (
	"regexp"
	"strings"
	"time"

	"github.com/veridoc/pdfscout/internal/exiftool"
)

// ToolChange is the derived authored-by drift record. It is transient:
// consumed by the indicator detector and the timeline reconstructor, then
// only the indicator it produced persists.
type ToolChange struct {
	Changed      bool
	CreateTool   string
	ModifyTool   string
	CreateEngine string
	ModifyEngine string
	Reason       string // producer, software, engine, mixed; empty when unchanged

	ModifyTime      *time.Time
	ModifyTimeAware bool
}

// toolFacet records which kind of field a tool name was resolved from, for
// the reason facet of the result.
type toolFacet string

const (
	facetProducer toolFacet = "producer"
	facetSoftware toolFacet = "software"
)

// fieldRef is one candidate in a resolution chain. A "*" group matches any
// group. Guarded candidates are accepted only when the value looks like a
// software name, which rejects personal names in CreatorTool.
type fieldRef struct {
	group   string
	tag     string
	facet   toolFacet
	guarded bool
}

// createToolChain is the ordered priority list for the creating tool,
// evaluated once with first-match short-circuit.
var createToolChain = []fieldRef{
	{group: "PDF", tag: "Producer", facet: facetProducer},
	{group: "XMP", tag: "Producer", facet: facetProducer},
	{group: "*", tag: "Application", facet: facetSoftware},
	{group: "*", tag: "Software", facet: facetSoftware},
	{group: "XMP", tag: "CreatorTool", facet: facetSoftware, guarded: true},
}

// knownSoftwareTokens accepts CreatorTool values that contain a recognized
// software-name token; anything else is assumed to be a personal name.
var knownSoftwareTokens = []string{
	"acrobat", "adobe", "word", "excel", "powerpoint", "microsoft", "office",
	"libreoffice", "openoffice", "ghostscript", "itext", "pdf", "foxit",
	"nitro", "canva", "chrome", "chromium", "skia", "quartz", "prince",
	"wkhtmltopdf", "latex", "tex", "indesign", "illustrator", "photoshop",
	"pages", "preview", "writer", "calc", "scan", "print",
}

// engineRe pulls a generic toolkit/version identifier out of a tool string.
var engineRe = regexp.MustCompile(
	`(?i)(itext(?:sharp)?|ghostscript|skia/pdf|quartz pdfcontext|pdfium|fpdf|tcpdf|reportlab|cairo|libharu|pdflib|apache fop|openpdf|pdfkit)\s*[\w./-]*`)

// DetectToolChange derives the tool transition from parsed metadata.
//
// The comparison is exact and case-sensitive after trimming whitespace: a
// purely case-differing pair is reported as changed. That is deliberate
// behavior, not an oversight.
func DetectToolChange(meta *exiftool.Metadata) ToolChange {
	var tc ToolChange
	if meta == nil || meta.Empty() {
		return tc
	}

	var createFacet, modifyFacet toolFacet
	tc.CreateTool, createFacet = resolveTool(meta, createToolChain)
	tc.ModifyTool, modifyFacet = resolveModifyTool(meta)

	tc.ModifyTime, tc.ModifyTimeAware = latestModifyTime(meta)

	toolsDiffer := tc.CreateTool != "" && tc.ModifyTool != "" && tc.CreateTool != tc.ModifyTool

	// Engines compare independently, and only when each side is bound to
	// its timestamp: creation engine needs a creation date, modification
	// engine a modification date.
	if hasCreationTime(meta) {
		tc.CreateEngine = extractEngine(tc.CreateTool)
	}
	if tc.ModifyTime != nil {
		tc.ModifyEngine = extractEngine(tc.ModifyTool)
	}
	enginesDiffer := tc.CreateEngine != "" && tc.ModifyEngine != "" &&
		tc.CreateEngine != tc.ModifyEngine

	if !toolsDiffer && !enginesDiffer {
		return tc
	}

	tc.Changed = true
	switch {
	case toolsDiffer && enginesDiffer:
		tc.Reason = "mixed"
	case enginesDiffer:
		tc.Reason = "engine"
	case createFacet == facetProducer && modifyFacet == facetProducer:
		tc.Reason = "producer"
	default:
		tc.Reason = "software"
	}
	return tc
}

// resolveTool walks a priority chain and returns the first present,
// acceptable candidate after whitespace trimming.
func resolveTool(meta *exiftool.Metadata, chain []fieldRef) (string, toolFacet) {
	for _, ref := range chain {
		var value string
		if ref.group == "*" {
			value = meta.Find(ref.tag)
		} else {
			value = meta.Get(ref.group, ref.tag)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if ref.guarded && !looksLikeSoftware(value) {
			continue
		}
		return value, ref.facet
	}
	return "", ""
}

// resolveModifyTool prefers the dedicated software-agent field of the most
// recent history entry, then falls back to the create-tool chain.
func resolveModifyTool(meta *exiftool.Metadata) (string, toolFacet) {
	for i := len(meta.History) - 1; i >= 0; i-- {
		if agent := strings.TrimSpace(meta.History[i].SoftwareAgent); agent != "" {
			return agent, facetSoftware
		}
	}
	return resolveTool(meta, createToolChain)
}

// looksLikeSoftware reports whether a value contains a known software-name
// token.
func looksLikeSoftware(value string) bool {
	lower := strings.ToLower(value)
	for _, token := range knownSoftwareTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// extractEngine pulls the toolkit identifier out of a tool string, or "".
func extractEngine(tool string) string {
	return strings.TrimSpace(engineRe.FindString(tool))
}

// latestModifyTime returns the latest of all discovered modification or
// metadata timestamps, comparing within each awareness class and preferring
// an aware result when one exists.
func latestModifyTime(meta *exiftool.Metadata) (*time.Time, bool) {
	var latestAware, latestNaive *time.Time

	consider := func(value string) {
		t, aware, err := ParseMetadataDate(value)
		if err != nil {
			return
		}
		if aware {
			if latestAware == nil || t.After(*latestAware) {
				latestAware = &t
			}
		} else {
			if latestNaive == nil || t.After(*latestNaive) {
				latestNaive = &t
			}
		}
	}

	for _, tag := range []string{"ModifyDate", "MetadataDate", "ModDate"} {
		for _, v := range meta.FindAll(tag) {
			consider(v)
		}
	}
	for _, ev := range meta.History {
		if ev.When != "" {
			consider(ev.When)
		}
	}

	if latestAware != nil {
		return latestAware, true
	}
	if latestNaive != nil {
		return latestNaive, false
	}
	return nil, false
}

// hasCreationTime reports whether any creation timestamp is present.
func hasCreationTime(meta *exiftool.Metadata) bool {
	for _, tag := range []string{"CreateDate", "CreationDate"} {
		if meta.Find(tag) != "" {
			return true
		}
	}
	return false
}
