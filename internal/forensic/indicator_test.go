package forensic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicatorSetNames(t *testing.T) {
	set := IndicatorSet{
		{Name: IndHasRevisions, Payload: CountPayload{Count: 2}},
		{Name: IndAnnotations, Payload: CountPayload{Count: 5}},
	}

	names := set.Names()
	assert.Len(t, names, 2)
	assert.True(t, names[IndHasRevisions])
	assert.True(t, set.Has(IndAnnotations))
	assert.False(t, set.Has(IndXMPHistory))
	assert.Equal(t, []string{"Annotations", "HasRevisions"}, set.SortedNames())
}

func TestIndicatorJSONRoundTrip(t *testing.T) {
	original := IndicatorSet{
		{Name: IndHasRevisions, Payload: CountPayload{Count: 3}},
		{Name: IndMultipleCreators, Payload: ValuesPayload{Field: "Creator", Values: []string{"Word", "Acrobat"}}},
		{Name: IndDateMismatch, Payload: PairPayload{Field: "CreationDate", Before: "a", After: "b"}},
		{Name: IndMultipleFontSubsets, Payload: FontVariantsPayload{
			Variants: map[string][]string{"Calibri": {"ABC+Calibri", "DEF+Calibri-Bold"}},
		}},
		{Name: IndToolChange, Payload: ToolChangePayload{CreateTool: "Word", ModifyTool: "Acrobat", Reason: "software"}},
		{Name: IndPieceInfo, Payload: FlagPayload{}},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var restored IndicatorSet
	require.NoError(t, json.Unmarshal(data, &restored))

	require.Len(t, restored, len(original))
	assert.Equal(t, original, restored)

	// The round trip preserves the classification input exactly.
	assert.Equal(t, original.Names(), restored.Names())
}

func TestPayloadDetails(t *testing.T) {
	assert.Equal(t, "3 occurrence(s)", CountPayload{Count: 3}.Details())
	assert.Equal(t, "Creator: A | B", ValuesPayload{Field: "Creator", Values: []string{"A", "B"}}.Details())
	assert.Equal(t, `ID: "a" -> "b"`, PairPayload{Field: "ID", Before: "a", After: "b"}.Details())
	assert.Equal(t, "present", FlagPayload{}.Details())
	assert.Contains(t, ToolChangePayload{CreateTool: "W", ModifyTool: "A", Reason: "software"}.Details(), `"W" -> "A"`)

	fv := FontVariantsPayload{Variants: map[string][]string{
		"Calibri": {"ABC+Calibri", "DEF+Calibri"},
		"Arial":   {"GHI+Arial", "JKL+Arial"},
	}}
	// Base fonts render in stable lexical order.
	assert.Equal(t, "Arial [GHI+Arial, JKL+Arial]; Calibri [ABC+Calibri, DEF+Calibri]", fv.Details())

	var unnamed Indicator
	assert.Empty(t, unnamed.Details())
}
