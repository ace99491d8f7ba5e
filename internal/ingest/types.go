package ingest

import (
	"context"
	"math"
	"time"

	"telemetry_ingest/internal/telemetry"
)

// Loader writes one file's records to the destination table.
type Loader interface {
	Load(ctx context.Context, records []telemetry.Record) (int64, error)
	Close() error
}

// FileEvent describes one retained file at a point in its processing.
type FileEvent struct {
	RunID    string
	Key      string
	Number   int // 1-based position among the retained files
	Total    int
	Records  int
	Inserted int64
	Elapsed  time.Duration
	Err      error
}

// Percent is the share of the batch finished once this file is done.
func (e FileEvent) Percent() int { return Percent(e.Number, e.Total) }

// Summary is the outcome of one batch run.
type Summary struct {
	RunID           string
	FilesListed     int
	FilesMatched    int
	Succeeded       int
	Failed          int
	FailedKeys      []string
	RecordsMapped   int
	RecordsInserted int64
	Elapsed         time.Duration
}

// Processed is the number of retained files that were attempted.
func (s Summary) Processed() int { return s.Succeeded + s.Failed }

// Reporter observes a batch run. Implementations must not fail the batch.
type Reporter interface {
	BatchStarted(ctx context.Context, runID string, total int)
	FileStarted(ctx context.Context, ev FileEvent)
	FileDone(ctx context.Context, ev FileEvent)
	FileFailed(ctx context.Context, ev FileEvent)
	BatchDone(ctx context.Context, s Summary)
}

// Percent returns done/total as a rounded percentage. An empty batch is complete.
func Percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

type nopReporter struct{}

func (nopReporter) BatchStarted(context.Context, string, int) {}
func (nopReporter) FileStarted(context.Context, FileEvent)    {}
func (nopReporter) FileDone(context.Context, FileEvent)       {}
func (nopReporter) FileFailed(context.Context, FileEvent)     {}
func (nopReporter) BatchDone(context.Context, Summary)        {}
