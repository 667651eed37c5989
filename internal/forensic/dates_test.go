package forensic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePDFDateCompactNaive(t *testing.T) {
	got, aware, err := ParsePDFDate("D:20200115093045")
	require.NoError(t, err)
	assert.False(t, aware, "compact numeric form is always naive")
	assert.Equal(t, time.Date(2020, 1, 15, 9, 30, 45, 0, time.UTC), got)
}

func TestParsePDFDateExtendedOffset(t *testing.T) {
	got, aware, err := ParsePDFDate("D:20200115093045+02'00'")
	require.NoError(t, err)
	assert.True(t, aware)
	assert.True(t, got.Equal(time.Date(2020, 1, 15, 7, 30, 45, 0, time.UTC)))

	got, aware, err = ParsePDFDate("D:20200115093045-05'30'")
	require.NoError(t, err)
	assert.True(t, aware)
	assert.True(t, got.Equal(time.Date(2020, 1, 15, 15, 0, 45, 0, time.UTC)))
}

func TestParsePDFDateZulu(t *testing.T) {
	got, aware, err := ParsePDFDate("D:20200115093045Z")
	require.NoError(t, err)
	assert.True(t, aware)
	assert.True(t, got.Equal(time.Date(2020, 1, 15, 9, 30, 45, 0, time.UTC)))
}

func TestParsePDFDatePartial(t *testing.T) {
	got, aware, err := ParsePDFDate("D:2020")
	require.NoError(t, err)
	assert.False(t, aware)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParsePDFDateInvalid(t *testing.T) {
	_, _, err := ParsePDFDate("yesterday")
	assert.Error(t, err)
}

func TestParseMetadataDate(t *testing.T) {
	tests := []struct {
		in    string
		aware bool
	}{
		{"2021:06:01 10:00:00+02:00", true},
		{"2021:06:01 10:00:00Z", true},
		{"2021-06-01T10:00:00+02:00", true},
		{"2021:06:01 10:00:00", false},
		{"2021-06-01T10:00:00", false},
		{"2021:06:01", false},
		{"D:20210601100000", false},
	}
	for _, tt := range tests {
		_, aware, err := ParseMetadataDate(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.aware, aware, "input %q", tt.in)
	}

	_, _, err := ParseMetadataDate("")
	assert.Error(t, err)
	_, _, err = ParseMetadataDate("0000:00:00 00:00:00")
	assert.Error(t, err)
}

func TestSameInstant(t *testing.T) {
	a := time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)
	b := time.Date(2020, 1, 1, 22, 30, 0, 0, time.UTC)

	assert.True(t, SameInstant(a, b, true), "same day")
	assert.False(t, SameInstant(a, b, false), "different second")
	assert.True(t, SameInstant(a, a.Add(500*time.Millisecond), false), "sub-second noise ignored")
}
