package loader

import (
	"errors"
	"strings"

	"telemetry_ingest/internal/telemetry"
)

// ErrInsert is returned when a bulk insert fails for a reason other than a
// skipped duplicate.
var ErrInsert = errors.New("bulk insert failed")

// DefaultTable is the destination table name.
const DefaultTable = "LatestData"

// quoteIdent double-quotes each dot-separated part of name.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

func quotedColumns() string {
	cols := make([]string, len(telemetry.Header))
	for i, c := range telemetry.Header {
		cols[i] = quoteIdent(c)
	}
	return strings.Join(cols, ", ")
}
