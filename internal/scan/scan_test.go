package scan

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc/pdfscout/internal/config"
	"github.com/veridoc/pdfscout/internal/forensic"
)

// testConfig points the external tool at a path that cannot exist so every
// invocation degrades to the sentinel instead of depending on the host.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Workers = 2
	cfg.CopyWorkers = 1
	cfg.ExifToolPath = filepath.Join(os.TempDir(), "no-such-binary-pdfscout")
	return cfg
}

// fakePDF builds a buffer with a PDF header, end-of-update markers at the
// given offsets and a closing marker at the tail.
func fakePDF(t *testing.T, size int, offsets ...int) []byte {
	t.Helper()
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 'x'
	}
	copy(buf, "%PDF-1.4\n")
	for _, off := range offsets {
		require.LessOrEqual(t, off+5, size-5, "planted marker overlaps the tail")
		copy(buf[off:], "%%EOF")
	}
	copy(buf[size-5:], "%%EOF")
	return buf
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func collect(ch <-chan string) []string {
	var paths []string
	for p := range ch {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func TestDiscoverFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", []byte("x"))
	b := writeFile(t, dir, "B.PDF", []byte("x"))
	writeFile(t, dir, "notes.txt", []byte("x"))

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	c := writeFile(t, sub, "c.pdf", []byte("x"))

	got := collect(Discover(context.Background(), dir))
	want := []string{a, b, c}
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestDiscoverSkipsRevisionDirectories(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", []byte("x"))

	carved := filepath.Join(dir, "a_revisions")
	require.NoError(t, os.Mkdir(carved, 0o755))
	writeFile(t, carved, "a_rev1_1200.pdf", []byte("x"))

	got := collect(Discover(context.Background(), dir))
	assert.Equal(t, []string{a}, got,
		"materialized carves from earlier runs must not re-enter the scan")
}

func TestDiscoverStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		writeFile(t, dir, string(rune('a'+i))+".pdf", []byte("x"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := Discover(ctx, dir)
	<-ch
	cancel()

	// The channel must close once the walk observes cancellation.
	for range ch {
	}
}

func TestFileCreated(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.pdf", []byte("x"))
	info, err := os.Stat(path)
	require.NoError(t, err)

	created := fileCreated(info)
	require.NotNil(t, created)
	assert.WithinDuration(t, time.Now(), *created, time.Minute)
}

func TestAnalyzeFileTimelineFilesystemEvents(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clean.pdf", fakePDF(t, 2048))
	a := NewAnalyzer(testConfig(), nil, zerolog.Nop())
	doc := a.AnalyzeFile(context.Background(), path)
	require.False(t, doc.Failed())

	var descs []string
	for _, ev := range doc.Timeline.Aware {
		descs = append(descs, ev.Description)
	}
	assert.Contains(t, descs, "file modified")
	assert.Contains(t, descs, "file created")
}

func TestAnalyzeFileExpiredDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	path := writeFile(t, t.TempDir(), "clean.pdf", fakePDF(t, 2048))
	a := NewAnalyzer(testConfig(), nil, zerolog.Nop())
	doc := a.AnalyzeFile(ctx, path)

	require.True(t, doc.Failed())
	assert.Equal(t, forensic.ErrTimeout, doc.Err.Kind)
}

func TestAnalyzeFileMissing(t *testing.T) {
	a := NewAnalyzer(testConfig(), nil, zerolog.Nop())
	doc := a.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	require.True(t, doc.Failed())
	assert.Equal(t, forensic.ErrUnknown, doc.Err.Kind)
}

func TestAnalyzeFileTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxFileSize = 16

	path := writeFile(t, t.TempDir(), "big.pdf", fakePDF(t, 2048))
	a := NewAnalyzer(cfg, nil, zerolog.Nop())
	doc := a.AnalyzeFile(context.Background(), path)

	require.True(t, doc.Failed())
	assert.Equal(t, forensic.ErrTooLarge, doc.Err.Kind)
	assert.Equal(t, int64(2048), doc.Size)
}

func TestAnalyzeFileMissingHeader(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fake.pdf", []byte("this is not a portable document"))
	a := NewAnalyzer(testConfig(), nil, zerolog.Nop())
	doc := a.AnalyzeFile(context.Background(), path)

	require.True(t, doc.Failed())
	assert.Equal(t, forensic.ErrCorrupt, doc.Err.Kind)
	assert.NotEmpty(t, doc.SHA256, "digest is recorded before the header check")
}

func TestAnalyzeFileEncrypted(t *testing.T) {
	raw := fakePDF(t, 4096)
	copy(raw[3000:], "/Encrypt 5 0 R")

	path := writeFile(t, t.TempDir(), "locked.pdf", raw)
	a := NewAnalyzer(testConfig(), nil, zerolog.Nop())
	doc := a.AnalyzeFile(context.Background(), path)

	require.True(t, doc.Failed())
	assert.Equal(t, forensic.ErrEncrypted, doc.Err.Kind)
}

func TestAnalyzeFileClean(t *testing.T) {
	path := writeFile(t, t.TempDir(), "clean.pdf", fakePDF(t, 2048))
	a := NewAnalyzer(testConfig(), nil, zerolog.Nop())
	doc := a.AnalyzeFile(context.Background(), path)

	require.False(t, doc.Failed())
	assert.Empty(t, doc.Revisions)
	assert.Equal(t, forensic.TierClean, doc.Class.Tier)
	assert.NotEmpty(t, doc.ID)
	assert.NotEmpty(t, doc.SHA256)
}

func TestAnalyzeFileWithRevisions(t *testing.T) {
	raw := fakePDF(t, 5000, 1200, 3000)
	path := writeFile(t, t.TempDir(), "edited.pdf", raw)

	a := NewAnalyzer(testConfig(), nil, zerolog.Nop())
	doc := a.AnalyzeFile(context.Background(), path)

	require.False(t, doc.Failed())
	require.Len(t, doc.Revisions, 2)

	assert.True(t, doc.Indicators.Has(forensic.IndHasRevisions))
	assert.Equal(t, forensic.TierHighRisk, doc.Class.Tier)

	for _, rev := range doc.Revisions {
		assert.Equal(t, doc.ID, rev.ParentID)
		assert.Equal(t, forensic.TierRevision, rev.Class.Tier)
		// No renderer is wired, so identity can never be proven.
		assert.Equal(t, forensic.TriFalse, rev.Identical)
		assert.True(t, rev.Broken,
			"unreadable carves are retained and flagged under the default policy")
	}
}

func TestAnalyzeFileDiscardsBrokenRevisions(t *testing.T) {
	cfg := testConfig()
	cfg.KeepBrokenRevisions = false

	raw := fakePDF(t, 5000, 1200, 3000)
	path := writeFile(t, t.TempDir(), "edited.pdf", raw)

	a := NewAnalyzer(cfg, nil, zerolog.Nop())
	doc := a.AnalyzeFile(context.Background(), path)

	require.False(t, doc.Failed())
	assert.Empty(t, doc.Revisions)
}

func TestCoordinatorRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "clean.pdf", fakePDF(t, 2048))
	writeFile(t, dir, "edited.pdf", fakePDF(t, 5000, 1200, 3000))
	writeFile(t, dir, "corrupt.pdf", []byte("nothing here"))
	writeFile(t, dir, "ignored.txt", []byte("nothing here"))

	c := NewCoordinator(testConfig(), nil, zerolog.Nop())
	session, err := c.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, dir, session.Root)
	assert.False(t, session.FinishedAt.Before(session.StartedAt))

	assert.Equal(t, 3, session.Summary.Files)
	assert.Equal(t, 1, session.Summary.Clean)
	assert.Equal(t, 1, session.Summary.HighRisk)
	assert.Equal(t, 1, session.Summary.Errors)
	assert.Equal(t, 2, session.Summary.Revisions)

	// Aggregated records come back in stable path order.
	require.Len(t, session.Documents, 3)
	for i := 1; i < len(session.Documents); i++ {
		assert.Less(t, session.Documents[i-1].Path, session.Documents[i].Path)
	}
}

func TestCoordinatorRunUnreadableRoot(t *testing.T) {
	c := NewCoordinator(testConfig(), nil, zerolog.Nop())
	_, err := c.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestCoordinatorMaterializesRevisions(t *testing.T) {
	cfg := testConfig()
	cfg.MaterializeRevisions = true

	dir := t.TempDir()
	writeFile(t, dir, "edited.pdf", fakePDF(t, 5000, 1200, 3000))

	c := NewCoordinator(cfg, nil, zerolog.Nop())
	session, err := c.Run(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, session.Documents, 1)
	doc := session.Documents[0]
	require.Len(t, doc.Revisions, 2)

	for _, rev := range doc.Revisions {
		require.NotEmpty(t, rev.MaterializedPath)
		data, err := os.ReadFile(rev.MaterializedPath)
		require.NoError(t, err)
		assert.Equal(t, rev.SHA256, forensic.Digest(data),
			"materialized carve must be byte-exact")
	}

	// Carve names encode sequence and source offset deterministically.
	assert.Equal(t,
		filepath.Join(dir, "edited_revisions", "edited_rev1_1200.pdf"),
		doc.Revisions[0].MaterializedPath)
}

func TestDisplayIDs(t *testing.T) {
	docs := []*forensic.Document{
		{ID: "doc-a", Path: "a.pdf"},
		{ID: "doc-b", Path: "b.pdf"},
		{ID: "doc-c", Path: "c.pdf"},
	}

	ids := DisplayIDs(docs)
	assert.Equal(t, map[string]int{"doc-a": 1, "doc-b": 2, "doc-c": 3}, ids)

	// Removing a record renumbers: ids are a projection, not stored state.
	ids = DisplayIDs(docs[1:])
	assert.Equal(t, map[string]int{"doc-b": 1, "doc-c": 2}, ids)
}
