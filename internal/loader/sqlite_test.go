package loader

import (
	"context"
	"database/sql"
	"math"
	"testing"
	"time"

	"telemetry_ingest/internal/telemetry"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords(imei string, n int) []telemetry.Record {
	base := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC)
	out := make([]telemetry.Record, 0, n)
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		out = append(out, telemetry.Record{
			ID:           imei + "-" + ts.Format("150405"),
			CustomerCode: sql.NullInt64{Int64: 42, Valid: true},
			IMEI:         imei,
			Timestamp:    sql.NullTime{Time: ts, Valid: true},
			Actual:       sql.NullTime{Time: ts.Add(2 * time.Second), Valid: true},
			Longitude:    28.04 + float64(i)/1000,
			Latitude:     -26.2,
			Altitude:     1750,
			Angle:        90,
			Speed:        float64(i),
		})
	}
	return out
}

func openMemory(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), ":memory:", "", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func countRows(t *testing.T, s *SQLite) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM "LatestData"`).Scan(&n))
	return n
}

func TestSQLiteLoadIsIdempotent(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	records := sampleRecords("350317177724063", 5)

	inserted, err := s.Load(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, int64(5), inserted)

	inserted, err = s.Load(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inserted, "second load is all duplicates")
	assert.Equal(t, 5, countRows(t, s))
}

func TestSQLiteLoadSkipsOnlyDuplicates(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	_, err := s.Load(ctx, sampleRecords("111", 3))
	require.NoError(t, err)

	batch := append(sampleRecords("111", 5), sampleRecords("222", 2)...)
	inserted, err := s.Load(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(4), inserted)
	assert.Equal(t, 7, countRows(t, s))
}

func TestSQLiteLoadRejectsMissingTimestamp(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	records := sampleRecords("111", 3)
	records[0].Timestamp.Valid = false

	for i := 0; i < 2; i++ {
		inserted, err := s.Load(ctx, records)
		assert.ErrorIs(t, err, ErrInsert, "load %d", i+1)
		assert.Zero(t, inserted)
	}
	assert.Zero(t, countRows(t, s), "failed batch leaves no rows behind")

	inserted, err := s.Load(ctx, records[1:])
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)
}

func TestSQLiteLoadEmptyBatch(t *testing.T) {
	s := openMemory(t)
	inserted, err := s.Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.Zero(t, countRows(t, s))
}

func TestSQLiteLoadStoresSentinels(t *testing.T) {
	s := openMemory(t)
	r := telemetry.Record{
		ID:        "x",
		IMEI:      "111",
		Timestamp: sql.NullTime{Time: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Valid: true},
		Longitude: math.NaN(),
		Speed:     3,
	}
	inserted, err := s.Load(context.Background(), []telemetry.Record{r})
	require.NoError(t, err)
	assert.Equal(t, int64(1), inserted)

	var customer sql.NullInt64
	var actual sql.NullString
	require.NoError(t, s.DB().QueryRow(`SELECT "CustomerCode", "Actual" FROM "LatestData"`).Scan(&customer, &actual))
	assert.False(t, customer.Valid)
	assert.False(t, actual.Valid)
}

func TestSQLiteLoadFailureIsInsertError(t *testing.T) {
	s := openMemory(t)
	require.NoError(t, s.Close())

	_, err := s.Load(context.Background(), sampleRecords("111", 1))
	assert.ErrorIs(t, err, ErrInsert)
}

func TestSQLiteCloseIsIdempotent(t *testing.T) {
	s, err := OpenSQLite(context.Background(), ":memory:", "Telemetry", zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
