package warehouse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Column names match the warehouse result sets.
const (
	ColumnHour            = "HOUR"
	ColumnNumTrips        = "NUM_TRIPS"
	ColumnAvgDurationMins = "AVG_DURATION_MINS"
	ColumnConditions      = "CONDITIONS"
	ColumnStartStation    = "START_STATION_NAME"
	ColumnLat             = "LAT"
	ColumnLon             = "LON"
)

const (
	// MaxPromptChars is the longest serialization sent to the completion service.
	MaxPromptChars = 15000
	// TruncatedRows is how many leading rows are kept when a table is too long.
	TruncatedRows = 100
	// TruncationMarker ends a truncated serialization.
	TruncationMarker = "\n... (data truncated)"
)

// Table is a tabular query result. Cells hold int64, float64, string,
// time.Time or nil for missing values.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Head returns a table with at most the first n rows.
func (t Table) Head(n int) Table {
	if n < 0 {
		n = 0
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// ColumnIndex returns the index of the named column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Float returns the numeric value of a cell.
func (t Table) Float(row, col int) (float64, bool) {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return 0, false
	}
	switch v := t.Rows[row][col].(type) {
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case float64:
		return v, !math.IsNaN(v)
	default:
		return 0, false
	}
}

// Records returns the formatted cells of every row.
func (t Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatCell(v)
		}
		out[i] = cells
	}
	return out
}

// String renders the table as right-aligned text columns separated by one
// space, header row first and without a row index.
func (t Table) String() string {
	records := t.Records()

	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for _, cells := range records {
		for i, cell := range cells {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	var b strings.Builder
	writeLine := func(cells []string) {
		for i := range widths {
			if i > 0 {
				b.WriteByte(' ')
			}
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(runewidth.FillLeft(cell, widths[i]))
		}
	}

	writeLine(t.Columns)
	for _, cells := range records {
		b.WriteByte('\n')
		writeLine(cells)
	}
	return b.String()
}

// FormatCell renders a single cell value.
func FormatCell(v any) string {
	switch v := v.(type) {
	case nil:
		return "NaN"
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		if math.IsNaN(v) {
			return "NaN"
		}
		return strconv.FormatFloat(v, 'f', 6, 64)
	case time.Time:
		return v.Format(time.DateTime)
	default:
		return fmt.Sprint(v)
	}
}

// SerializeForPrompt renders t for inclusion in a prompt. Serializations
// longer than MaxPromptChars characters keep only the first TruncatedRows
// rows followed by TruncationMarker.
func SerializeForPrompt(t Table) string {
	s := t.String()
	if utf8.RuneCountInString(s) <= MaxPromptChars {
		return s
	}
	return t.Head(TruncatedRows).String() + TruncationMarker
}

// HourlyTable converts hourly results into a table.
func HourlyTable(rows []HourlyTrips) Table {
	t := Table{Columns: []string{ColumnHour, ColumnNumTrips, ColumnAvgDurationMins}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Hour, r.NumTrips, nullable(r.AvgDurationMins.Float64, r.AvgDurationMins.Valid)})
	}
	return t
}

// WeatherTable converts weather results into a table.
func WeatherTable(rows []WeatherTrips) Table {
	t := Table{Columns: []string{ColumnConditions, ColumnNumTrips}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Conditions, r.NumTrips})
	}
	return t
}

// StationTable converts station results into a table.
func StationTable(rows []StationTrips) Table {
	t := Table{Columns: []string{ColumnStartStation, ColumnNumTrips, ColumnLat, ColumnLon}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.StartStationName,
			r.NumTrips,
			nullable(r.Lat.Float64, r.Lat.Valid),
			nullable(r.Lon.Float64, r.Lon.Valid),
		})
	}
	return t
}

// DropMissingCoordinates removes stations without a latitude or longitude.
func DropMissingCoordinates(rows []StationTrips) []StationTrips {
	out := make([]StationTrips, 0, len(rows))
	for _, r := range rows {
		if r.Lat.Valid && r.Lon.Valid && !math.IsNaN(r.Lat.Float64) && !math.IsNaN(r.Lon.Float64) {
			out = append(out, r)
		}
	}
	return out
}

func nullable(v float64, valid bool) any {
	if !valid {
		return nil
	}
	return v
}
