package spreadsheet

import (
	"testing"
	"time"

	"telemetry_ingest/internal/objectstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var header = []any{"_id", "CustomerCode", "IMEI", "Timestamp", "Actual", "Longitude", "Latitude", "Altitude", "Angle", "Speed"}

// workbook builds an xlsx file whose sheets are written in the given order.
func workbook(t *testing.T, sheets map[string][][]any, order ...string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, name := range order {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", name))
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := row
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestSerialToTime(t *testing.T) {
	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), SerialToTime(25569))
	assert.Equal(t, time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC), SerialToTime(25570))
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), SerialToTime(45292.5))
	assert.Equal(t, time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC), SerialToTime(25568))
}

func TestParseConvertsDateColumns(t *testing.T) {
	data := workbook(t, map[string][][]any{
		"Data": {
			header,
			{"a1", 42, "350317177724063", 25569, 25570, 10.5, -33.25, 12, 90, 60.5},
		},
	}, "Data")

	grid, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, grid, 2)

	assert.Equal(t, "Timestamp", grid[0][3], "header cells stay strings")
	assert.Equal(t, "Actual", grid[0][4])

	row := grid[1]
	assert.Equal(t, "a1", row[0])
	assert.Equal(t, "42", row[1])
	assert.Equal(t, "350317177724063", row[2])
	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), row[3])
	assert.Equal(t, time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC), row[4])
	assert.Equal(t, "10.5", row[5])
	assert.Equal(t, "60.5", row[9])
}

func TestParseUsesFirstSheetInWorkbookOrder(t *testing.T) {
	data := workbook(t, map[string][][]any{
		"Zeta":  {header, {"from-zeta"}},
		"Alpha": {header, {"from-alpha"}},
	}, "Zeta", "Alpha")

	grid, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.Equal(t, "from-zeta", grid[1][0])
}

func TestParseSkipsBlankRows(t *testing.T) {
	data := workbook(t, map[string][][]any{
		"Data": {
			header,
			{},
			{"a2", 1, "1", 45292, 45292},
		},
	}, "Data")

	grid, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.Equal(t, "a2", grid[1][0])
	assert.Len(t, grid[1], 5, "trailing empty cells are not padded")
}

func TestParseLeavesNonNumericDateCells(t *testing.T) {
	data := workbook(t, map[string][][]any{
		"Data": {header, {"a1", 1, "1", "2024-01-05 10:00:00", ""}},
	}, "Data")

	grid, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05 10:00:00", grid[1][3])
}

func TestParseRejectsNonWorkbook(t *testing.T) {
	_, err := Parse([]byte("IMEI,Timestamp\n1,2\n"))
	assert.ErrorIs(t, err, objectstore.ErrFetch)
}
