package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"telemetry_ingest/internal/telemetry"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// Postgres loads records with a single INSERT ... SELECT FROM unnest statement per
// batch, so the batch size is not bounded by the bind parameter limit.
type Postgres struct {
	pool      pgExecer
	insertSQL string
	log       zerolog.Logger
	closeOnce sync.Once
}

// OpenPostgres connects a pool to dsn. maxConns <= 0 keeps the pool default.
func OpenPostgres(ctx context.Context, dsn, table string, maxConns int, log zerolog.Logger) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return newPostgres(pool, table, log), nil
}

func newPostgres(pool pgExecer, table string, log zerolog.Logger) *Postgres {
	if table == "" {
		table = DefaultTable
	}
	return &Postgres{
		pool:      pool,
		insertSQL: postgresInsertSQL(table),
		log:       log.With().Str("loader", "postgres").Str("table", table).Logger(),
	}
}

func postgresInsertSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (%s)
SELECT * FROM unnest(
	$1::text[], $2::int8[], $3::text[], $4::timestamptz[], $5::timestamptz[],
	$6::float8[], $7::float8[], $8::float8[], $9::float8[], $10::float8[]
)
ON CONFLICT DO NOTHING`, quoteIdent(table), quotedColumns())
}

// columns pivots records into one slice per destination column.
func columns(records []telemetry.Record) []any {
	n := len(records)
	var (
		ids       = make([]string, n)
		customers = make([]*int64, n)
		imeis     = make([]string, n)
		stamps    = make([]*time.Time, n)
		actuals   = make([]*time.Time, n)
		lons      = make([]float64, n)
		lats      = make([]float64, n)
		alts      = make([]float64, n)
		angles    = make([]float64, n)
		speeds    = make([]float64, n)
	)
	for i, r := range records {
		ids[i] = r.ID
		customers[i] = telemetry.Int64Ptr(r.CustomerCode)
		imeis[i] = r.IMEI
		stamps[i] = telemetry.TimePtr(r.Timestamp)
		actuals[i] = telemetry.TimePtr(r.Actual)
		lons[i] = r.Longitude
		lats[i] = r.Latitude
		alts[i] = r.Altitude
		angles[i] = r.Angle
		speeds[i] = r.Speed
	}
	return []any{ids, customers, imeis, stamps, actuals, lons, lats, alts, angles, speeds}
}

// Load inserts records, skipping rows that hit a unique constraint, and returns
// the number of rows actually inserted. An empty batch makes no call.
func (p *Postgres) Load(ctx context.Context, records []telemetry.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tag, err := p.pool.Exec(ctx, p.insertSQL, columns(records)...)
	if err != nil {
		return 0, fmt.Errorf("%w: %d records: %v", ErrInsert, len(records), err)
	}
	inserted := tag.RowsAffected()
	p.log.Debug().
		Int("records", len(records)).
		Int64("inserted", inserted).
		Msg("Bulk insert complete")
	return inserted, nil
}

// Close releases the pool. Only the first call has any effect.
func (p *Postgres) Close() error {
	p.closeOnce.Do(func() {
		p.pool.Close()
		p.log.Debug().Msg("Closed postgres pool")
	})
	return nil
}
