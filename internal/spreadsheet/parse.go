package spreadsheet

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"telemetry_ingest/internal/objectstore"

	"github.com/xuri/excelize/v2"
)

// serialUnixEpoch is the spreadsheet serial day number of 1970-01-01.
const serialUnixEpoch = 25569

// DateColumns are the zero-based columns holding serial dates (Timestamp, Actual).
var DateColumns = []int{3, 4}

// Row is one line of a sheet. Each cell is the raw string value as stored in the
// workbook, or a time.Time for serial dates in DateColumns.
type Row []any

// Grid is a sheet in row-major order.
type Grid []Row

// SerialToTime converts a spreadsheet serial day number (days since 1899-12-30)
// into a UTC instant, rounded to the millisecond.
func SerialToTime(serial float64) time.Time {
	ms := math.Round((serial - serialUnixEpoch) * 86400 * 1000)
	return time.UnixMilli(int64(ms)).UTC()
}

// Parse decodes an xlsx workbook and returns its first sheet in workbook order.
// Fully empty rows are skipped.
func Parse(data []byte) (Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", objectstore.ErrFetch, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", objectstore.ErrFetch)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", objectstore.ErrFetch, sheets[0], err)
	}

	grid := make(Grid, 0, len(rows))
	for _, cells := range rows {
		if isBlank(cells) {
			continue
		}
		row := make(Row, len(cells))
		for i, cell := range cells {
			row[i] = cell
		}
		convertDates(row)
		grid = append(grid, row)
	}
	return grid, nil
}

// convertDates replaces numeric cells in DateColumns with their calendar time.
// Non-numeric cells, such as the header, are left untouched.
func convertDates(row Row) {
	for _, col := range DateColumns {
		if col >= len(row) {
			continue
		}
		s, ok := row[col].(string)
		if !ok {
			continue
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) {
			continue
		}
		row[col] = SerialToTime(serial)
	}
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
