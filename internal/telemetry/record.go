package telemetry

import (
	"database/sql"
	"time"
)

// Header is the fixed column order of a telemetry sheet. Column names double as
// destination column names.
var Header = []string{
	"_id",
	"CustomerCode",
	"IMEI",
	"Timestamp",
	"Actual",
	"Longitude",
	"Latitude",
	"Altitude",
	"Angle",
	"Speed",
}

// Record is one normalized telemetry row.
//
// Coercion is best effort: an unparseable float is NaN, an unparseable customer
// code or date is left invalid (Valid == false). Such records are still loaded;
// no validation beyond type coercion is performed.
type Record struct {
	ID           string
	CustomerCode sql.NullInt64
	IMEI         string
	Timestamp    sql.NullTime
	Actual       sql.NullTime
	Longitude    float64
	Latitude     float64
	Altitude     float64
	Angle        float64
	Speed        float64
}

// Values returns the record in Header order, with invalid values as nil.
func (r Record) Values() []any {
	return []any{
		r.ID,
		nullInt(r.CustomerCode),
		r.IMEI,
		nullTime(r.Timestamp),
		nullTime(r.Actual),
		r.Longitude,
		r.Latitude,
		r.Altitude,
		r.Angle,
		r.Speed,
	}
}

func nullInt(v sql.NullInt64) any {
	if !v.Valid {
		return nil
	}
	return v.Int64
}

func nullTime(v sql.NullTime) any {
	if !v.Valid {
		return nil
	}
	return v.Time
}

// TimePtr returns a pointer to the time, or nil when invalid.
func TimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// Int64Ptr returns a pointer to the integer, or nil when invalid.
func Int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
