package ingest

import (
	"context"
	"fmt"

	"telemetry_ingest/internal/fold"
	"telemetry_ingest/internal/keyfilter"
	"telemetry_ingest/internal/objectstore"
	"telemetry_ingest/internal/spreadsheet"
	"telemetry_ingest/internal/telemetry"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Pipeline lists a bucket, keeps the files matching a criteria and loads each one
// in turn. Files are processed strictly one after another.
type Pipeline struct {
	store    objectstore.Store
	loader   Loader
	reporter Reporter
	clock    clock.Clock
	log      zerolog.Logger
	newRunID func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces the wall clock used for elapsed times.
func WithClock(c clock.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithRunID fixes the run identifier instead of generating one per run.
func WithRunID(id string) Option {
	return func(p *Pipeline) { p.newRunID = func() string { return id } }
}

// New creates a pipeline. A nil reporter discards progress events.
func New(store objectstore.Store, loader Loader, reporter Reporter, log zerolog.Logger, opts ...Option) *Pipeline {
	if reporter == nil {
		reporter = nopReporter{}
	}
	p := &Pipeline{
		store:    store,
		loader:   loader,
		reporter: reporter,
		clock:    clock.New(),
		log:      log,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ingests every file matching criteria. A failing file is reported and
// skipped; only a failed listing (objectstore.ErrStoreUnavailable) or a cancelled
// context is returned as an error. The loader is closed before Run returns.
func (p *Pipeline) Run(ctx context.Context, criteria keyfilter.Criteria) (summary Summary, err error) {
	started := p.clock.Now()
	summary.RunID = p.newRunID()
	log := p.log.With().Str("run_id", summary.RunID).Logger()

	defer func() {
		if cerr := p.loader.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("Failed to close loader")
		}
	}()

	objects, err := p.store.ListAll(ctx)
	if err != nil {
		return summary, err
	}
	summary.FilesListed = len(objects)

	files := keyfilter.Filter(objects, criteria, log)
	summary.FilesMatched = len(files)
	p.reporter.BatchStarted(ctx, summary.RunID, len(files))

	result, err := fold.ContinueOnError(ctx, files, func(ctx context.Context, i int, obj objectstore.Object) error {
		ev := FileEvent{RunID: summary.RunID, Key: obj.Key, Number: i + 1, Total: len(files)}
		p.reporter.FileStarted(ctx, ev)

		fileStart := p.clock.Now()
		records, inserted, ferr := p.processFile(ctx, log, ev)
		ev.Records = records
		ev.Inserted = inserted
		ev.Elapsed = p.clock.Since(fileStart)

		summary.RecordsMapped += records
		summary.RecordsInserted += inserted
		if ferr != nil {
			ev.Err = ferr
			p.reporter.FileFailed(ctx, ev)
			return ferr
		}
		p.reporter.FileDone(ctx, ev)
		return nil
	})

	summary.Succeeded = result.Succeeded
	summary.Failed = result.Failed()
	for _, obj := range result.FailedItems() {
		summary.FailedKeys = append(summary.FailedKeys, obj.Key)
	}
	summary.Elapsed = p.clock.Since(started)

	if err != nil {
		return summary, fmt.Errorf("batch interrupted after %d of %d files: %w", result.Attempted, len(files), err)
	}
	p.reporter.BatchDone(ctx, summary)
	return summary, nil
}

// processFile fetches, decodes, maps and loads one file.
func (p *Pipeline) processFile(ctx context.Context, log zerolog.Logger, ev FileEvent) (int, int64, error) {
	data, err := p.store.Fetch(ctx, ev.Key)
	if err != nil {
		return 0, 0, err
	}
	grid, err := spreadsheet.Parse(data)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", ev.Key, err)
	}
	log.Info().
		Int("file", ev.Number).
		Int("rows", len(grid)).
		Msg("Got the excel sheet")

	records := telemetry.MapRows(grid)
	inserted, err := p.loader.Load(ctx, records)
	if err != nil {
		return len(records), 0, err
	}
	if len(records) > 0 {
		log.Info().
			Int("file", ev.Number).
			Int("records", len(records)).
			Int64("inserted", inserted).
			Int("duplicates", len(records)-int(inserted)).
			Msg("Inserted records successfully")
	}
	return len(records), inserted, nil
}

