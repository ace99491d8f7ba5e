package progress

import (
	"context"

	"telemetry_ingest/internal/ingest"
)

type multi []ingest.Reporter

// Multi fans every event out to reporters in order. Nil entries are skipped.
func Multi(reporters ...ingest.Reporter) ingest.Reporter {
	var m multi
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m multi) BatchStarted(ctx context.Context, runID string, total int) {
	for _, r := range m {
		r.BatchStarted(ctx, runID, total)
	}
}

func (m multi) FileStarted(ctx context.Context, ev ingest.FileEvent) {
	for _, r := range m {
		r.FileStarted(ctx, ev)
	}
}

func (m multi) FileDone(ctx context.Context, ev ingest.FileEvent) {
	for _, r := range m {
		r.FileDone(ctx, ev)
	}
}

func (m multi) FileFailed(ctx context.Context, ev ingest.FileEvent) {
	for _, r := range m {
		r.FileFailed(ctx, ev)
	}
}

func (m multi) BatchDone(ctx context.Context, s ingest.Summary) {
	for _, r := range m {
		r.BatchDone(ctx, s)
	}
}
