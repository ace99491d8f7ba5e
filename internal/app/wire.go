package app

import (
	"context"
	"fmt"

	"telemetry_ingest/internal/config"
	"telemetry_ingest/internal/ingest"
	"telemetry_ingest/internal/loader"
	"telemetry_ingest/internal/metrics"
	"telemetry_ingest/internal/notifications"
	"telemetry_ingest/internal/objectstore"
	"telemetry_ingest/internal/progress"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Resources are the process-scoped collaborators of one batch run.
type Resources struct {
	Store    objectstore.Store
	Loader   ingest.Loader
	Reporter ingest.Reporter
	Metrics  *metrics.Reporter

	closers []func() error
	log     zerolog.Logger
}

// Build creates the object store, loader and reporters described by cfg. On
// error everything opened so far is closed again.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger) (_ *Resources, err error) {
	log.Debug().
		Str("object_store", cfg.ObjectStore).
		Str("bucket", cfg.BucketName).
		Str("driver", cfg.DatabaseDriver).
		Str("table", cfg.TableName).
		Msg("Initializing clients")

	r := &Resources{log: log}
	defer func() {
		if err != nil {
			if cerr := r.Close(); cerr != nil {
				log.Warn().Err(cerr).Msg("Failed to release partially built resources")
			}
		}
	}()

	switch cfg.ObjectStore {
	case config.StoreGCS:
		r.Store, err = objectstore.NewGCSStore(ctx, cfg.GCSCredentialsFile, cfg.BucketName, log)
	default:
		r.Store, err = objectstore.NewS3Store(cfg.AWSRegion, cfg.S3Endpoint, cfg.BucketName, log)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s store: %w", cfg.ObjectStore, err)
	}

	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		s, oerr := loader.OpenSQLite(ctx, cfg.DatabaseURL, cfg.TableName, log)
		if oerr != nil {
			return nil, oerr
		}
		r.Loader = s
	default:
		p, oerr := loader.OpenPostgres(ctx, cfg.DatabaseURL, cfg.TableName, cfg.DBMaxConns, log)
		if oerr != nil {
			return nil, oerr
		}
		r.Loader = p
	}
	r.closers = append(r.closers, r.Loader.Close)

	reporters := []ingest.Reporter{progress.NewLogReporter(log)}
	if cfg.RedisAddr != "" {
		rdb, rerr := progress.NewRedisClient(ctx, cfg.RedisAddr)
		if rerr != nil {
			log.Warn().Err(rerr).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, progress hash disabled")
		} else {
			r.closers = append(r.closers, rdb.Close)
			reporters = append(reporters, progress.NewRedisReporter(rdb, cfg.ProgressTTL, log))
		}
	}
	if cfg.PushgatewayURL != "" {
		r.Metrics = metrics.NewReporter()
		reporters = append(reporters, r.Metrics)
	}
	if cfg.NtfyTopic != "" {
		client := notifications.NewClient(cfg.NtfyURL, cfg.NtfyTopic, cfg.NtfyPriority, log)
		reporters = append(reporters, notifications.NewReporter(client, log))
		log.Info().Str("topic", cfg.NtfyTopic).Msg("Notifications enabled")
	}
	r.Reporter = progress.Multi(reporters...)

	log.Debug().Int("reporters", len(reporters)).Msg("Clients initialized successfully")
	return r, nil
}

// Pipeline returns a pipeline over the built resources.
func (r *Resources) Pipeline(log zerolog.Logger, opts ...ingest.Option) *ingest.Pipeline {
	return ingest.New(r.Store, r.Loader, r.Reporter, log, opts...)
}

// PushMetrics sends the batch metrics when a Pushgateway is configured. A push
// failure is logged and otherwise ignored.
func (r *Resources) PushMetrics(ctx context.Context, url string) {
	if r.Metrics == nil {
		return
	}
	if err := r.Metrics.Push(ctx, url); err != nil {
		r.log.Warn().Err(err).Msg("Failed to push metrics")
		return
	}
	r.log.Debug().Str("url", url).Msg("Pushed metrics")
}

// Close releases every resource in reverse order of creation and returns all
// errors together.
func (r *Resources) Close() error {
	var result *multierror.Error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	r.closers = nil
	return result.ErrorOrNil()
}
