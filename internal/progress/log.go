package progress

import (
	"context"

	"telemetry_ingest/internal/ingest"

	"github.com/rs/zerolog"
)

// LogReporter writes batch progress to a logger: one line when the batch starts,
// start and finish lines for every file with its elapsed time and the share of
// the batch completed, one error line per failed file and a completion line.
type LogReporter struct {
	log       zerolog.Logger
	processed int
}

// NewLogReporter returns a reporter writing to log.
func NewLogReporter(log zerolog.Logger) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) BatchStarted(_ context.Context, runID string, total int) {
	r.processed = 0
	r.log.Info().
		Str("run_id", runID).
		Int("files", total).
		Msgf("Processing total of %d files", total)
}

func (r *LogReporter) FileStarted(_ context.Context, ev ingest.FileEvent) {
	r.log.Info().
		Int("file", ev.Number).
		Str("key", ev.Key).
		Msgf("Currently processing file number %d", ev.Number)
}

func (r *LogReporter) FileDone(_ context.Context, ev ingest.FileEvent) {
	r.processed++
	r.log.Info().
		Int("file", ev.Number).
		Dur("elapsed", ev.Elapsed).
		Int("records", ev.Records).
		Int64("inserted", ev.Inserted).
		Int("percent", ingest.Percent(r.processed, ev.Total)).
		Msgf("%d%% of total files are completed", ingest.Percent(r.processed, ev.Total))
}

func (r *LogReporter) FileFailed(_ context.Context, ev ingest.FileEvent) {
	r.processed++
	r.log.Error().
		Err(ev.Err).
		Int("file", ev.Number).
		Str("key", ev.Key).
		Dur("elapsed", ev.Elapsed).
		Int("percent", ingest.Percent(r.processed, ev.Total)).
		Msgf("There was some error with %s", ev.Key)
}

func (r *LogReporter) BatchDone(_ context.Context, s ingest.Summary) {
	r.log.Info().
		Str("run_id", s.RunID).
		Int("succeeded", s.Succeeded).
		Int("failed", s.Failed).
		Int64("inserted", s.RecordsInserted).
		Dur("elapsed", s.Elapsed).
		Int("percent", ingest.Percent(s.Processed(), s.FilesMatched)).
		Msgf("Data processing and insertion completed: %d files processed", s.Processed())
}
