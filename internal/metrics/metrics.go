package metrics

import (
	"context"
	"fmt"

	"telemetry_ingest/internal/ingest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the Pushgateway job the batch metrics are grouped under.
const JobName = "telemetry_ingest"

// Reporter counts batch events into its own registry. It is a batch job, so the
// registry is pushed once at the end rather than scraped.
type Reporter struct {
	registry *prometheus.Registry
	runID    string

	FilesProcessed  prometheus.Counter
	FilesFailed     prometheus.Counter
	RecordsMapped   prometheus.Counter
	RecordsInserted prometheus.Counter
	FileDuration    prometheus.Histogram
	LastCompletion  prometheus.Gauge
}

// NewReporter creates a reporter with a fresh registry.
func NewReporter() *Reporter {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Reporter{
		registry: reg,
		FilesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_ingest_files_processed_total",
			Help: "Files fetched, decoded and loaded without error",
		}),
		FilesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_ingest_files_failed_total",
			Help: "Files skipped after a fetch, decode or insert error",
		}),
		RecordsMapped: factory.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_ingest_records_mapped_total",
			Help: "Rows mapped into telemetry records",
		}),
		RecordsInserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_ingest_records_inserted_total",
			Help: "Records inserted, duplicates excluded",
		}),
		FileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "telemetry_ingest_file_duration_seconds",
			Help:    "Time to process one file",
			Buckets: prometheus.DefBuckets,
		}),
		LastCompletion: factory.NewGauge(prometheus.GaugeOpts{
			Name: "telemetry_ingest_last_completion_timestamp_seconds",
			Help: "Unix time the last batch completed",
		}),
	}
}

// Registry exposes the registry, for tests and for serving.
func (r *Reporter) Registry() *prometheus.Registry { return r.registry }

func (r *Reporter) BatchStarted(_ context.Context, runID string, _ int) { r.runID = runID }

func (r *Reporter) FileStarted(context.Context, ingest.FileEvent) {}

func (r *Reporter) FileDone(_ context.Context, ev ingest.FileEvent) {
	r.FilesProcessed.Inc()
	r.RecordsMapped.Add(float64(ev.Records))
	r.RecordsInserted.Add(float64(ev.Inserted))
	r.FileDuration.Observe(ev.Elapsed.Seconds())
}

func (r *Reporter) FileFailed(_ context.Context, ev ingest.FileEvent) {
	r.FilesFailed.Inc()
	r.RecordsMapped.Add(float64(ev.Records))
	r.FileDuration.Observe(ev.Elapsed.Seconds())
}

func (r *Reporter) BatchDone(context.Context, ingest.Summary) {
	r.LastCompletion.SetToCurrentTime()
}

// Push sends the registry to the Pushgateway at url, grouped by run id when one
// is known.
func (r *Reporter) Push(ctx context.Context, url string) error {
	pusher := push.New(url, JobName).Gatherer(r.registry)
	if r.runID != "" {
		pusher = pusher.Grouping("run_id", r.runID)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
