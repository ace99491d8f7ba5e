package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"telemetry_ingest/internal/telemetry"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLite loads records into an embedded database. It is meant for local runs and
// tests; the table and its unique constraint are created when missing.
type SQLite struct {
	db        *sql.DB
	table     string
	insertSQL string
	log       zerolog.Logger
	closeOnce sync.Once
	closeErr  error
}

// OpenSQLite opens (or creates) the database at path. ":memory:" is allowed.
func OpenSQLite(ctx context.Context, path, table string, log zerolog.Logger) (*SQLite, error) {
	if table == "" {
		table = DefaultTable
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	s := &SQLite{
		db:    db,
		table: table,
		insertSQL: fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
			quoteIdent(table), quotedColumns(),
			strings.TrimSuffix(strings.Repeat("?, ", len(telemetry.Header)), ", "),
		),
		log: log.With().Str("loader", "sqlite").Str("table", table).Logger(),
	}
	if err := s.ensureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) ensureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			"_id"          TEXT,
			"CustomerCode" INTEGER,
			"IMEI"         TEXT NOT NULL,
			"Timestamp"    TIMESTAMP NOT NULL,
			"Actual"       TIMESTAMP,
			"Longitude"    DOUBLE,
			"Latitude"     DOUBLE,
			"Altitude"     DOUBLE,
			"Angle"        DOUBLE,
			"Speed"        DOUBLE,
			UNIQUE ("IMEI", "Timestamp")
		)`, quoteIdent(s.table)))
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// DB exposes the underlying handle, mainly for inspection in tests.
func (s *SQLite) DB() *sql.DB { return s.db }

// Load inserts records in one transaction, skipping duplicates, and returns the
// number of rows actually inserted. An empty batch makes no call.
func (s *SQLite) Load(ctx context.Context, records []telemetry.Record) (inserted int64, err error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", ErrInsert, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.insertSQL)
	if err != nil {
		return 0, fmt.Errorf("%w: prepare: %v", ErrInsert, err)
	}
	defer stmt.Close()

	for i, r := range records {
		res, err := stmt.ExecContext(ctx, r.Values()...)
		if err != nil {
			return 0, fmt.Errorf("%w: record %d: %v", ErrInsert, i, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("%w: record %d: %v", ErrInsert, i, err)
		}
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", ErrInsert, err)
	}

	s.log.Debug().
		Int("records", len(records)).
		Int64("inserted", inserted).
		Msg("Bulk insert complete")
	return inserted, nil
}

// Close closes the database. Only the first call has any effect.
func (s *SQLite) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
