package forensic

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// IndicatorName identifies a forensic finding. The set of names present on
// a record determines its classification; payloads are detail only.
type IndicatorName string

const (
	// High-risk indicators: presence alone is sufficient evidence of
	// post-creation alteration.
	IndTouchUpTextEdit IndicatorName = "TouchUpTextEdit"
	IndHasRevisions    IndicatorName = "HasRevisions"

	// Indications: corroborating but non-conclusive findings.
	IndMultipleCreators     IndicatorName = "MultipleCreators"
	IndMultipleProducers    IndicatorName = "MultipleProducers"
	IndToolChange           IndicatorName = "ToolChange"
	IndXMPHistory           IndicatorName = "XMPHistory"
	IndMultipleFontSubsets  IndicatorName = "MultipleFontSubsets"
	IndIncrementalUpdates   IndicatorName = "IncrementalUpdates"
	IndObjectGenerations    IndicatorName = "ObjectGenerations"
	IndLayersExceedPages    IndicatorName = "LayersExceedPages"
	IndDocumentIDMismatch   IndicatorName = "DocumentIDMismatch"
	IndTrailerIDMismatch    IndicatorName = "TrailerIDMismatch"
	IndDateMismatch         IndicatorName = "DateMismatch"
	IndRedactions           IndicatorName = "Redactions"
	IndAnnotations          IndicatorName = "Annotations"
	IndPieceInfo            IndicatorName = "PieceInfo"
	IndDigitalSignature     IndicatorName = "DigitalSignature"
	IndXFAForm              IndicatorName = "XFAForm"
	IndNeedAppearances      IndicatorName = "AcroFormNeedAppearances"
)

// HighRiskNames is the closed set of names that classify a document as
// high-risk on their own.
var HighRiskNames = map[IndicatorName]bool{
	IndTouchUpTextEdit: true,
	IndHasRevisions:    true,
}

// Payload carries the kind-specific detail of an indicator. Classification
// never inspects payloads; they exist for display and export.
type Payload interface {
	Details() string
}

// CountPayload reports how often a pattern occurred.
type CountPayload struct {
	Count int `json:"count"`
}

func (p CountPayload) Details() string {
	return fmt.Sprintf("%d occurrence(s)", p.Count)
}

// ValuesPayload lists the distinct values observed for a field.
type ValuesPayload struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

func (p ValuesPayload) Details() string {
	return fmt.Sprintf("%s: %s", p.Field, strings.Join(p.Values, " | "))
}

// PairPayload records a before/after value divergence.
type PairPayload struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

func (p PairPayload) Details() string {
	return fmt.Sprintf("%s: %q -> %q", p.Field, p.Before, p.After)
}

// FontVariantsPayload maps base font names to the subset-prefixed variants
// observed across all pages.
type FontVariantsPayload struct {
	Variants map[string][]string `json:"variants"`
}

func (p FontVariantsPayload) Details() string {
	bases := make([]string, 0, len(p.Variants))
	for base := range p.Variants {
		bases = append(bases, base)
	}
	sort.Strings(bases)
	parts := make([]string, 0, len(bases))
	for _, base := range bases {
		parts = append(parts, fmt.Sprintf("%s [%s]", base, strings.Join(p.Variants[base], ", ")))
	}
	return strings.Join(parts, "; ")
}

// ToolChangePayload carries the resolved tool transition.
type ToolChangePayload struct {
	CreateTool   string `json:"create_tool"`
	ModifyTool   string `json:"modify_tool"`
	CreateEngine string `json:"create_engine,omitempty"`
	ModifyEngine string `json:"modify_engine,omitempty"`
	Reason       string `json:"reason"`
}

func (p ToolChangePayload) Details() string {
	s := fmt.Sprintf("%q -> %q (%s)", p.CreateTool, p.ModifyTool, p.Reason)
	if p.CreateEngine != "" || p.ModifyEngine != "" {
		s += fmt.Sprintf(", engine %q -> %q", p.CreateEngine, p.ModifyEngine)
	}
	return s
}

// FlagPayload marks plain feature presence.
type FlagPayload struct{}

func (FlagPayload) Details() string { return "present" }

const (
	payloadKindCount        = "count"
	payloadKindValues       = "values"
	payloadKindPair         = "pair"
	payloadKindFontVariants = "font_variants"
	payloadKindToolChange   = "tool_change"
	payloadKindFlag         = "flag"
)

// Indicator is a single named finding on a document or revision.
type Indicator struct {
	Name    IndicatorName
	Payload Payload
}

// Details renders the payload, tolerating indicators restored without one.
func (i Indicator) Details() string {
	if i.Payload == nil {
		return ""
	}
	return i.Payload.Details()
}

type indicatorJSON struct {
	Name    IndicatorName   `json:"name"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarshalJSON tags the payload with its kind so a case bundle round-trips
// into the same concrete type.
func (i Indicator) MarshalJSON() ([]byte, error) {
	out := indicatorJSON{Name: i.Name}
	switch i.Payload.(type) {
	case CountPayload:
		out.Kind = payloadKindCount
	case ValuesPayload:
		out.Kind = payloadKindValues
	case PairPayload:
		out.Kind = payloadKindPair
	case FontVariantsPayload:
		out.Kind = payloadKindFontVariants
	case ToolChangePayload:
		out.Kind = payloadKindToolChange
	case FlagPayload, nil:
		out.Kind = payloadKindFlag
	default:
		return nil, fmt.Errorf("unknown payload type %T", i.Payload)
	}
	if i.Payload != nil {
		raw, err := json.Marshal(i.Payload)
		if err != nil {
			return nil, err
		}
		out.Payload = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the concrete payload type from the kind tag.
func (i *Indicator) UnmarshalJSON(data []byte) error {
	var in indicatorJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	i.Name = in.Name
	if len(in.Payload) == 0 {
		i.Payload = FlagPayload{}
		return nil
	}
	switch in.Kind {
	case payloadKindCount:
		var p CountPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return err
		}
		i.Payload = p
	case payloadKindValues:
		var p ValuesPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return err
		}
		i.Payload = p
	case payloadKindPair:
		var p PairPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return err
		}
		i.Payload = p
	case payloadKindFontVariants:
		var p FontVariantsPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return err
		}
		i.Payload = p
	case payloadKindToolChange:
		var p ToolChangePayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return err
		}
		i.Payload = p
	case payloadKindFlag, "":
		i.Payload = FlagPayload{}
	default:
		return fmt.Errorf("unknown payload kind %q", in.Kind)
	}
	return nil
}

// IndicatorSet is an ordered collection of findings. Order is the rule
// evaluation order, which is fixed, so serialization is deterministic.
type IndicatorSet []Indicator

// Names returns the set of indicator names present.
func (s IndicatorSet) Names() map[IndicatorName]bool {
	names := make(map[IndicatorName]bool, len(s))
	for _, ind := range s {
		names[ind.Name] = true
	}
	return names
}

// Has reports whether the named indicator is present.
func (s IndicatorSet) Has(name IndicatorName) bool {
	for _, ind := range s {
		if ind.Name == name {
			return true
		}
	}
	return false
}

// SortedNames returns the present names in lexical order, for display.
// Empty sets yield nil so serialized records omit the field.
func (s IndicatorSet) SortedNames() []string {
	if len(s) == 0 {
		return nil
	}
	names := make([]string, 0, len(s))
	for _, ind := range s {
		names = append(names, string(ind.Name))
	}
	sort.Strings(names)
	return names
}
