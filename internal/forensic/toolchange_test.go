package forensic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc/pdfscout/internal/exiftool"
)

func metaFromLines(t *testing.T, lines string) *exiftool.Metadata {
	t.Helper()
	return exiftool.Parse(lines)
}

func TestDetectToolChangeTrailingWhitespace(t *testing.T) {
	meta := metaFromLines(t, `[PDF] Producer : Acrobat PDFMaker
[XMP] History : {Action=saved,SoftwareAgent=Acrobat PDFMaker ,When=2021:05:01 10:00:00+02:00}
`)

	tc := DetectToolChange(meta)
	assert.False(t, tc.Changed, "trailing whitespace must not count as a change")
	assert.Empty(t, tc.Reason)
}

func TestDetectToolChangeCaseSensitive(t *testing.T) {
	// A purely case-differing pair is treated as changed. Deliberate.
	meta := metaFromLines(t, `[PDF] Producer : Acrobat PDFMaker
[XMP] History : {Action=saved,SoftwareAgent=acrobat pdfmaker,When=2021:05:01 10:00:00+02:00}
`)

	tc := DetectToolChange(meta)
	assert.True(t, tc.Changed)
}

func TestDetectToolChangeProducerDrift(t *testing.T) {
	meta := metaFromLines(t, `[PDF] Producer : Microsoft Word
[XMP] History : {Action=saved,SoftwareAgent=Adobe Acrobat Pro,When=2022:03:04 09:30:00+01:00}
[PDF] ModifyDate : 2022:03:04 09:30:00+01:00
`)

	tc := DetectToolChange(meta)
	require.True(t, tc.Changed)
	assert.Equal(t, "Microsoft Word", tc.CreateTool)
	assert.Equal(t, "Adobe Acrobat Pro", tc.ModifyTool)
	assert.Equal(t, "software", tc.Reason)
	require.NotNil(t, tc.ModifyTime)
	assert.True(t, tc.ModifyTimeAware)
}

func TestDetectToolChangeCreatePriorityChain(t *testing.T) {
	// PDF:Producer outranks XMP:Producer and everything after it.
	meta := metaFromLines(t, `[XMP] Producer : LibreOffice 7.4
[PDF] Producer : Microsoft Word 2016
[XMP] CreatorTool : John Smith
`)
	tc := DetectToolChange(meta)
	assert.Equal(t, "Microsoft Word 2016", tc.CreateTool)
}

func TestDetectToolChangeCreatorToolGuard(t *testing.T) {
	// CreatorTool is accepted only when it looks like software, so a
	// personal name never becomes the creating tool.
	personal := metaFromLines(t, `[XMP] CreatorTool : Jane Doe
`)
	assert.Empty(t, DetectToolChange(personal).CreateTool)

	software := metaFromLines(t, `[XMP] CreatorTool : Microsoft Word
`)
	assert.Equal(t, "Microsoft Word", DetectToolChange(software).CreateTool)
}

func TestDetectToolChangeModifyPrefersSoftwareAgent(t *testing.T) {
	meta := metaFromLines(t, `[PDF] Producer : LibreOffice 7.4
[XMP] History : {Action=saved,SoftwareAgent=Adobe Acrobat 21.0,When=2023:01:01 08:00:00Z},{Action=saved,SoftwareAgent=Foxit Editor,When=2023:06:01 08:00:00Z}
`)
	tc := DetectToolChange(meta)
	// The latest history entry's agent wins.
	assert.Equal(t, "Foxit Editor", tc.ModifyTool)
	assert.True(t, tc.Changed)
}

func TestDetectToolChangeLatestModifyTime(t *testing.T) {
	meta := metaFromLines(t, `[PDF] Producer : LibreOffice
[PDF] ModifyDate : 2021:01:01 10:00:00+00:00
[XMP] MetadataDate : 2023:02:02 10:00:00+00:00
[XMP] History : {Action=saved,SoftwareAgent=LibreOffice,When=2022:01:01 10:00:00+00:00}
`)
	tc := DetectToolChange(meta)
	require.NotNil(t, tc.ModifyTime)
	want := time.Date(2023, 2, 2, 10, 0, 0, 0, time.UTC)
	assert.True(t, tc.ModifyTime.Equal(want), "got %s", tc.ModifyTime)
}

func TestDetectToolChangeEngineFacet(t *testing.T) {
	meta := metaFromLines(t, `[PDF] Producer : iText 5.5.13
[PDF] CreateDate : 2020:01:01 00:00:00
[PDF] ModifyDate : 2021:01:01 00:00:00
[XMP] History : {Action=saved,SoftwareAgent=Ghostscript 9.55,When=2021:01:01 00:00:00}
`)
	tc := DetectToolChange(meta)
	require.True(t, tc.Changed)
	assert.Equal(t, "mixed", tc.Reason, "tool and engine both differ")
	assert.NotEmpty(t, tc.CreateEngine)
	assert.NotEmpty(t, tc.ModifyEngine)
}

func TestDetectToolChangeEmptyMetadata(t *testing.T) {
	tc := DetectToolChange(exiftool.Parse(exiftool.SentinelPrefix + " not found"))
	assert.False(t, tc.Changed)
	assert.Nil(t, tc.ModifyTime)
}
