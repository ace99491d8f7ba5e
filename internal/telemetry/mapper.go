package telemetry

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"telemetry_ingest/internal/spreadsheet"
)

// timeLayouts are tried in order for date cells that arrive as text.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// MapRows drops the header row and maps every remaining row onto a Record by
// column position. Rows are never dropped for bad values.
func MapRows(grid spreadsheet.Grid) []Record {
	if len(grid) <= 1 {
		return nil
	}
	records := make([]Record, 0, len(grid)-1)
	for _, row := range grid[1:] {
		records = append(records, MapRow(row))
	}
	return records
}

// MapRow zips row against Header and coerces each field.
func MapRow(row spreadsheet.Row) Record {
	fields := make(map[string]any, len(Header))
	for i, name := range Header {
		if i < len(row) {
			fields[name] = row[i]
		}
	}

	return Record{
		ID:           extractStringField(fields["_id"]),
		CustomerCode: parseInt(fields["CustomerCode"]),
		IMEI:         extractStringField(fields["IMEI"]),
		Timestamp:    parseTime(fields["Timestamp"]),
		Actual:       parseTime(fields["Actual"]),
		Longitude:    parseFloat(fields["Longitude"]),
		Latitude:     parseFloat(fields["Latitude"]),
		Altitude:     parseFloat(fields["Altitude"]),
		Angle:        parseFloat(fields["Angle"]),
		Speed:        parseFloat(fields["Speed"]),
	}
}

// extractStringField returns the cell as text, or "" for a missing cell.
func extractStringField(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case time.Time:
		return c.Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", c)
	}
}

func parseFloat(v any) float64 {
	switch c := v.(type) {
	case float64:
		return c
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// parseInt reads a base-10 integer. Decimal text is truncated toward zero.
func parseInt(v any) sql.NullInt64 {
	var s string
	switch c := v.(type) {
	case string:
		s = strings.TrimSpace(c)
	case float64:
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return sql.NullInt64{}
		}
		return sql.NullInt64{Int64: int64(c), Valid: true}
	default:
		return sql.NullInt64{}
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return sql.NullInt64{Int64: n, Valid: true}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(f), Valid: true}
}

// parseTime accepts an already decoded time, a serial day number in text form, or
// a timestamp in one of timeLayouts (UTC unless the text carries a zone).
func parseTime(v any) sql.NullTime {
	switch c := v.(type) {
	case time.Time:
		return sql.NullTime{Time: c, Valid: true}
	case float64:
		return sql.NullTime{Time: spreadsheet.SerialToTime(c), Valid: true}
	case string:
		s := strings.TrimSpace(c)
		if s == "" {
			return sql.NullTime{}
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return sql.NullTime{Time: t, Valid: true}
			}
		}
		if serial, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(serial) && !math.IsInf(serial, 0) {
			return sql.NullTime{Time: spreadsheet.SerialToTime(serial), Valid: true}
		}
	}
	return sql.NullTime{}
}
