package progress

import (
	"context"
	"time"

	"telemetry_ingest/internal/ingest"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// KeyPrefix prefixes the progress hash of every run.
const KeyPrefix = "telemetry_ingest:progress:"

// HashClient is the part of a redis client the reporter needs.
type HashClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisReporter mirrors batch progress into a hash so a parent process can poll
// it. Write failures are logged and never affect the batch.
type RedisReporter struct {
	client HashClient
	ttl    time.Duration
	log    zerolog.Logger

	key    string
	total  int
	done   int
	failed int
}

// NewRedisReporter returns a reporter writing through client. A zero ttl leaves
// the hash without expiry.
func NewRedisReporter(client HashClient, ttl time.Duration, log zerolog.Logger) *RedisReporter {
	return &RedisReporter{client: client, ttl: ttl, log: log}
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// Key returns the hash key of the current run.
func (r *RedisReporter) Key() string { return r.key }

func (r *RedisReporter) BatchStarted(ctx context.Context, runID string, total int) {
	r.key = KeyPrefix + runID
	r.total, r.done, r.failed = total, 0, 0
	r.write(ctx, "status", "running", "total", total, "done", 0, "failed", 0, "percent", ingest.Percent(0, total))
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, r.key, r.ttl).Err(); err != nil {
			r.log.Warn().Err(err).Str("key", r.key).Msg("Failed to set progress expiry")
		}
	}
}

func (r *RedisReporter) FileStarted(ctx context.Context, ev ingest.FileEvent) {
	r.write(ctx, "last_key", ev.Key)
}

func (r *RedisReporter) FileDone(ctx context.Context, ev ingest.FileEvent) {
	r.done++
	r.write(ctx, "done", r.done, "percent", ingest.Percent(r.done+r.failed, r.total))
}

func (r *RedisReporter) FileFailed(ctx context.Context, ev ingest.FileEvent) {
	r.failed++
	r.write(ctx, "failed", r.failed, "percent", ingest.Percent(r.done+r.failed, r.total))
}

func (r *RedisReporter) BatchDone(ctx context.Context, s ingest.Summary) {
	r.write(ctx,
		"status", "completed",
		"done", s.Succeeded,
		"failed", s.Failed,
		"inserted", s.RecordsInserted,
		"percent", ingest.Percent(s.Processed(), s.FilesMatched),
	)
}

func (r *RedisReporter) write(ctx context.Context, values ...interface{}) {
	if r.key == "" {
		return
	}
	if err := r.client.HSet(ctx, r.key, values...).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", r.key).Msg("Failed to update progress hash")
	}
}
