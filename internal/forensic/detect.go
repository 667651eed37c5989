package forensic

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Detection patterns over the text surrogate. Counts taken this way can
// over- or under-count when binary stream bodies coincidentally match a
// token; that imprecision is the price of tolerating damaged files.
var (
	touchUpRe       = regexp.MustCompile(`/TouchUp_TextEdit\b`)
	prevXrefRe      = regexp.MustCompile(`/Prev\s+\d+`)
	objGenRe        = regexp.MustCompile(`(?m)(\d+)\s+([1-9]\d*)\s+obj\b`)
	infoCreatorRe   = regexp.MustCompile(`/Creator\s*\(([^)]*)\)`)
	infoProducerRe  = regexp.MustCompile(`/Producer\s*\(([^)]*)\)`)
	xmpCreatorRe    = regexp.MustCompile(`<xmp:CreatorTool>([^<]+)</xmp:CreatorTool>`)
	xmpProducerRe   = regexp.MustCompile(`<pdf:Producer>([^<]+)</pdf:Producer>`)
	xmpHistoryRe    = regexp.MustCompile(`<xmpMM:History[\s>]`)
	xmpDocIDRe      = regexp.MustCompile(`<xmpMM:DocumentID>([^<]+)</xmpMM:DocumentID>`)
	xmpOrigDocIDRe  = regexp.MustCompile(`<xmpMM:OriginalDocumentID>([^<]+)</xmpMM:OriginalDocumentID>`)
	xmpCreateDateRe = regexp.MustCompile(`<xmp:CreateDate>([^<]+)</xmp:CreateDate>`)
	xmpModifyDateRe = regexp.MustCompile(`<xmp:ModifyDate>([^<]+)</xmp:ModifyDate>`)
	redactRe        = regexp.MustCompile(`/Subtype\s*/Redact\b|/Redact\b`)
	annotsRe        = regexp.MustCompile(`/Annots\b`)
	pieceInfoRe     = regexp.MustCompile(`/PieceInfo\b`)
	byteRangeRe     = regexp.MustCompile(`/ByteRange\b`)
	xfaRe           = regexp.MustCompile(`/XFA\b`)
	needAppearRe    = regexp.MustCompile(`/NeedAppearances\s+true\b`)
)

// Detector runs the heuristic indicator rules. Rules are independent
// predicates; a rule that cannot evaluate simply contributes nothing.
type Detector struct{}

// NewDetector creates an indicator detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Input bundles everything a detection pass looks at. Structural and font
// data are optional: nil means that source was unavailable and its rules
// are skipped.
type Input struct {
	Surrogate     string
	Raw           []byte
	Structure     *Structure
	RevisionCount int
	ToolChange    *ToolChange
}

// Detect evaluates every rule and returns the findings in fixed rule
// order. It never mutates the raw buffer or touches the filesystem.
func (d *Detector) Detect(in Input) IndicatorSet {
	var set IndicatorSet

	add := func(name IndicatorName, payload Payload) {
		set = append(set, Indicator{Name: name, Payload: payload})
	}

	// Direct edit flag: the text-edit marker is written by touch-up editing
	// and survives in the file verbatim.
	if n := len(touchUpRe.FindAllString(in.Surrogate, -1)); n > 0 {
		add(IndTouchUpTextEdit, CountPayload{Count: n})
	}

	if in.RevisionCount > 0 {
		add(IndHasRevisions, CountPayload{Count: in.RevisionCount})
	}

	if creators := d.distinctValues(in, infoCreatorRe, xmpCreatorRe, "creator"); len(creators) > 1 {
		add(IndMultipleCreators, ValuesPayload{Field: "Creator", Values: creators})
	}
	if producers := d.distinctValues(in, infoProducerRe, xmpProducerRe, "producer"); len(producers) > 1 {
		add(IndMultipleProducers, ValuesPayload{Field: "Producer", Values: producers})
	}

	if in.ToolChange != nil && in.ToolChange.Changed {
		add(IndToolChange, ToolChangePayload{
			CreateTool:   in.ToolChange.CreateTool,
			ModifyTool:   in.ToolChange.ModifyTool,
			CreateEngine: in.ToolChange.CreateEngine,
			ModifyEngine: in.ToolChange.ModifyEngine,
			Reason:       in.ToolChange.Reason,
		})
	}

	if xmpHistoryRe.MatchString(in.Surrogate) {
		add(IndXMPHistory, FlagPayload{})
	}

	// Font subsets: a failure here omits the indicator, nothing more.
	if in.Raw != nil {
		if variants, err := CollectFontVariants(in.Raw); err == nil {
			if conflicts := SubsetConflicts(variants); conflicts != nil {
				add(IndMultipleFontSubsets, FontVariantsPayload{Variants: conflicts})
			}
		}
	}

	markers := 0
	if in.Raw != nil {
		markers = len(MarkerOffsets(in.Raw))
	}
	if markers > 1 || prevXrefRe.MatchString(in.Surrogate) {
		add(IndIncrementalUpdates, CountPayload{Count: markers})
	}

	if n := len(objGenRe.FindAllString(in.Surrogate, -1)); n > 0 {
		add(IndObjectGenerations, CountPayload{Count: n})
	}

	if in.Structure != nil && in.Structure.PageCount > 0 &&
		in.Structure.LayerCount > in.Structure.PageCount {
		add(IndLayersExceedPages, PairPayload{
			Field:  "layers/pages",
			Before: strconv.Itoa(in.Structure.LayerCount),
			After:  strconv.Itoa(in.Structure.PageCount),
		})
	}

	d.detectIdentifierLineage(in, add)
	d.detectDateMismatch(in, add)
	d.detectFeatureFlags(in, add)

	return set
}

func (d *Detector) detectIdentifierLineage(in Input, add func(IndicatorName, Payload)) {
	orig := firstMatch(xmpOrigDocIDRe, in.Surrogate)
	curr := firstMatch(xmpDocIDRe, in.Surrogate)
	if orig != "" && curr != "" && orig != curr {
		add(IndDocumentIDMismatch, PairPayload{Field: "xmpMM DocumentID", Before: orig, After: curr})
	}

	if in.Structure != nil && len(in.Structure.TrailerID) == 2 &&
		in.Structure.TrailerID[0] != in.Structure.TrailerID[1] {
		add(IndTrailerIDMismatch, PairPayload{
			Field:  "trailer ID",
			Before: in.Structure.TrailerID[0],
			After:  in.Structure.TrailerID[1],
		})
	}
}

// detectDateMismatch compares document-info dates against the XMP dates for
// the same semantic field. When one side is timezone-naive the comparison
// falls back to wall-clock fields to avoid manufacturing a mismatch out of
// an offset the file never stated.
func (d *Detector) detectDateMismatch(in Input, add func(IndicatorName, Payload)) {
	var infoCreation, infoMod string
	if in.Structure != nil {
		infoCreation = in.Structure.InfoCreationDate
		infoMod = in.Structure.InfoModDate
	}
	if infoCreation == "" {
		infoCreation = firstMatch(regexp.MustCompile(`/CreationDate\s*\(([^)]*)\)`), in.Surrogate)
	}
	if infoMod == "" {
		infoMod = firstMatch(regexp.MustCompile(`/ModDate\s*\(([^)]*)\)`), in.Surrogate)
	}

	compare := func(infoVal, xmpVal string) bool {
		if infoVal == "" || xmpVal == "" {
			return false
		}
		infoT, infoAware, err1 := ParsePDFDate(infoVal)
		xmpT, xmpAware, err2 := ParseMetadataDate(xmpVal)
		if err1 != nil || err2 != nil {
			return false
		}
		if infoAware != xmpAware {
			return !wallClockEqual(infoT, xmpT)
		}
		return !SameInstant(infoT, xmpT, false)
	}

	if xmpCreate := firstMatch(xmpCreateDateRe, in.Surrogate); compare(infoCreation, xmpCreate) {
		add(IndDateMismatch, PairPayload{Field: "CreationDate/xmp:CreateDate", Before: infoCreation, After: xmpCreate})
		return
	}
	if xmpModify := firstMatch(xmpModifyDateRe, in.Surrogate); compare(infoMod, xmpModify) {
		add(IndDateMismatch, PairPayload{Field: "ModDate/xmp:ModifyDate", Before: infoMod, After: xmpModify})
	}
}

func (d *Detector) detectFeatureFlags(in Input, add func(IndicatorName, Payload)) {
	if n := len(redactRe.FindAllString(in.Surrogate, -1)); n > 0 {
		add(IndRedactions, CountPayload{Count: n})
	}
	if n := len(annotsRe.FindAllString(in.Surrogate, -1)); n > 0 {
		add(IndAnnotations, CountPayload{Count: n})
	}
	if pieceInfoRe.MatchString(in.Surrogate) {
		add(IndPieceInfo, FlagPayload{})
	}
	if (in.Structure != nil && in.Structure.HasSigFields) || byteRangeRe.MatchString(in.Surrogate) {
		add(IndDigitalSignature, FlagPayload{})
	}
	if (in.Structure != nil && in.Structure.HasXFA) || xfaRe.MatchString(in.Surrogate) {
		add(IndXFAForm, FlagPayload{})
	}
	if (in.Structure != nil && in.Structure.NeedAppearances) || needAppearRe.MatchString(in.Surrogate) {
		add(IndNeedAppearances, FlagPayload{})
	}
}

// distinctValues collects the distinct trimmed values a field takes across
// the document-info dictionary, the XMP packet and the structural view.
func (d *Detector) distinctValues(in Input, infoRe, xmpRe *regexp.Regexp, field string) []string {
	seen := make(map[string]bool)
	var values []string
	record := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		values = append(values, v)
	}

	for _, m := range infoRe.FindAllStringSubmatch(in.Surrogate, -1) {
		record(decodePDFString(m[1]))
	}
	for _, m := range xmpRe.FindAllStringSubmatch(in.Surrogate, -1) {
		record(m[1])
	}
	if in.Structure != nil {
		switch field {
		case "creator":
			record(in.Structure.InfoCreator)
		case "producer":
			record(in.Structure.InfoProducer)
		}
	}
	sort.Strings(values)
	return values
}

// decodePDFString undoes the escapes that appear inside literal string
// metadata values.
func decodePDFString(s string) string {
	replacer := strings.NewReplacer(
		`\(`, "(",
		`\)`, ")",
		`\\`, `\`,
	)
	return replacer.Replace(s)
}

func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func wallClockEqual(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by || am != bm || ad != bd {
		return false
	}
	ah, amin, as := a.Clock()
	bh, bmin, bs := b.Clock()
	return ah == bh && amin == bmin && as == bs
}

