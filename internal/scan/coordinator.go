package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/veridoc/pdfscout/internal/config"
	"github.com/veridoc/pdfscout/internal/forensic"
)

// Summary aggregates scan outcomes. Every file lands in exactly one of the
// classification counts or the error count.
type Summary struct {
	Files       int `json:"files"`
	Clean       int `json:"clean"`
	Indications int `json:"indications"`
	HighRisk    int `json:"high_risk"`
	Errors      int `json:"errors"`
	Revisions   int `json:"revisions"`
}

// Session is the aggregate state of one scan. It is written only by the
// coordinator's consumer loop, never by workers.
type Session struct {
	ID         string               `json:"id"`
	Root       string               `json:"root"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Documents  []*forensic.Document `json:"documents"`
	Summary    Summary              `json:"summary"`
}

// copyJob is one revision materialization unit for the copy-out pool.
type copyJob struct {
	dir  string
	path string
	data []byte
}

// Coordinator fans analysis across a bounded worker pool and aggregates
// immutable result records through a single consumer.
type Coordinator struct {
	cfg      *config.Config
	analyzer *Analyzer
	log      zerolog.Logger
}

// NewCoordinator creates a scan coordinator.
func NewCoordinator(cfg *config.Config, renderer forensic.Renderer, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		analyzer: NewAnalyzer(cfg, renderer, log),
		log:      log,
	}
}

// Run scans every PDF under root. Discovery streams into the worker pool so
// processing overlaps the walk; completion is signaled only once discovery
// has finished and every dispatched unit has completed or failed. The only
// fatal condition is an unreadable root.
func (c *Coordinator) Run(ctx context.Context, root string) (*Session, error) {
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("cannot enumerate scan root: %w", err)
	}

	session := &Session{
		ID:        uuid.NewString(),
		Root:      root,
		StartedAt: time.Now(),
	}

	results := make(chan *forensic.Document)
	copyJobs := make(chan copyJob, c.cfg.CopyWorkers*2)

	// Copy-out pool: decoupled from analysis so slow disk I/O cannot stall
	// classification.
	copyGroup := &errgroup.Group{}
	copyGroup.SetLimit(c.cfg.CopyWorkers)
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		for job := range copyJobs {
			job := job
			copyGroup.Go(func() error {
				c.materialize(job)
				return nil
			})
		}
		_ = copyGroup.Wait()
	}()

	workers, workerCtx := errgroup.WithContext(ctx)
	workers.SetLimit(c.cfg.Workers)

	go func() {
		for path := range Discover(workerCtx, root) {
			path := path
			workers.Go(func() error {
				doc := c.analyzer.AnalyzeFile(workerCtx, path)
				c.enqueueCopies(workerCtx, doc, copyJobs)
				select {
				case results <- doc:
				case <-workerCtx.Done():
				}
				return nil
			})
		}
		_ = workers.Wait()
		close(results)
		close(copyJobs)
	}()

	// Single consumer: shared aggregate state is written here and nowhere
	// else, so it needs no locking.
	for doc := range results {
		session.Documents = append(session.Documents, doc)
		c.tally(&session.Summary, doc)
		c.logOutcome(doc)
	}
	<-copyDone

	sort.Slice(session.Documents, func(i, j int) bool {
		return session.Documents[i].Path < session.Documents[j].Path
	})
	session.FinishedAt = time.Now()

	if err := ctx.Err(); err != nil {
		return session, err
	}
	return session, nil
}

// enqueueCopies schedules materialization of a document's carved revisions
// and records their deterministic target paths on the records.
func (c *Coordinator) enqueueCopies(ctx context.Context, doc *forensic.Document, copyJobs chan<- copyJob) {
	if !c.cfg.MaterializeRevisions || doc.Failed() || len(doc.Revisions) == 0 {
		return
	}
	raw, err := os.ReadFile(doc.Path)
	if err != nil {
		c.log.Warn().Str("path", doc.Path).Err(err).Msg("revision copy-out skipped")
		return
	}
	dir := config.RevisionDir(doc.Path)
	for _, rev := range doc.Revisions {
		data := forensic.RevisionBytes(raw, rev)
		if data == nil {
			continue
		}
		name := config.RevisionFileName(doc.Path, rev.Sequence, rev.Offset)
		rev.MaterializedPath = filepath.Join(dir, name)
		job := copyJob{dir: dir, path: rev.MaterializedPath, data: data}
		select {
		case copyJobs <- job:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Coordinator) materialize(job copyJob) {
	if err := os.MkdirAll(job.dir, config.DefaultDirPerm); err != nil {
		c.log.Warn().Str("dir", job.dir).Err(err).Msg("cannot create revision directory")
		return
	}
	if err := os.WriteFile(job.path, job.data, 0o640); err != nil {
		c.log.Warn().Str("path", job.path).Err(err).Msg("cannot write revision")
	}
}

func (c *Coordinator) tally(s *Summary, doc *forensic.Document) {
	s.Files++
	s.Revisions += len(doc.Revisions)
	switch {
	case doc.Failed():
		s.Errors++
	case doc.Class.Tier == forensic.TierHighRisk:
		s.HighRisk++
	case doc.Class.Tier == forensic.TierIndications:
		s.Indications++
	default:
		s.Clean++
	}
}

func (c *Coordinator) logOutcome(doc *forensic.Document) {
	if doc.Failed() {
		c.log.Warn().Str("path", doc.Path).Str("kind", string(doc.Err.Kind)).Msg("file failed")
		return
	}
	c.log.Info().
		Str("path", doc.Path).
		Str("class", doc.Class.String()).
		Int("indicators", len(doc.Indicators)).
		Int("revisions", len(doc.Revisions)).
		Msg("file scanned")
}

// DisplayIDs derives sequential display ids from the record set. Ids are a
// recomputable projection over the currently visible records, never stored
// on the records themselves.
func DisplayIDs(docs []*forensic.Document) map[string]int {
	ids := make(map[string]int, len(docs))
	for i, doc := range docs {
		ids[doc.ID] = i + 1
	}
	return ids
}
