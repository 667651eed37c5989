package forensic

import "fmt"

// Tier is the risk tier of a classified record.
type Tier string

const (
	TierClean             Tier = "clean"
	TierIndications       Tier = "indications-found"
	TierHighRisk          Tier = "high-risk"
	TierRevision          Tier = "revision-of"
	TierRevisionIdentical Tier = "revision-of-identical"
)

// Classification is the final risk verdict for a document or revision.
type Classification struct {
	Tier     Tier   `json:"tier"`
	ParentID string `json:"parent_id,omitempty"` // set for revision tiers only
}

// String renders the classification for display and export.
func (c Classification) String() string {
	switch c.Tier {
	case TierRevision:
		return fmt.Sprintf("revision-of(%s)", c.ParentID)
	case TierRevisionIdentical:
		return fmt.Sprintf("revision-of(%s)-identical", c.ParentID)
	default:
		return string(c.Tier)
	}
}

// Classify maps an indicator name set and revision linkage to a risk tier.
// It is a pure function with no internal state: recomputing with identical
// inputs always yields the identical value, so callers are free to
// re-evaluate whenever their view of the record set changes.
func Classify(names map[IndicatorName]bool, isRevision bool, parentID string, identical TriState) Classification {
	if isRevision {
		tier := TierRevision
		if identical == TriTrue {
			tier = TierRevisionIdentical
		}
		return Classification{Tier: tier, ParentID: parentID}
	}

	for name := range names {
		if HighRiskNames[name] {
			return Classification{Tier: TierHighRisk}
		}
	}
	if len(names) > 0 {
		return Classification{Tier: TierIndications}
	}
	return Classification{Tier: TierClean}
}
