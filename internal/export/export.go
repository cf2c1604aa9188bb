// Package export writes analytics tables to files.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/Yates-Labs/spoke/internal/warehouse"
	"github.com/xuri/excelize/v2"
)

// Format represents supported export formats
type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// SheetName is the worksheet written by xlsx exports.
const SheetName = "data"

// FormatFromPath infers the export format from a file extension.
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// ExportTable writes t to writer as json or xlsx. The format is
// case-insensitive.
func ExportTable(t warehouse.Table, format string, writer io.Writer) error {
	switch Format(strings.ToLower(format)) {
	case FormatJSON:
		return exportJSON(t, writer)
	case FormatXLSX:
		return exportXLSX(t, writer)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, xlsx)", format)
	}
}

// exportJSON writes rows as an array of objects keyed by column name
func exportJSON(t warehouse.Table, writer io.Writer) error {
	records := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		record := make(map[string]any, len(t.Columns))
		for j, col := range t.Columns {
			if j < len(row) {
				record[col] = jsonValue(row[j])
			}
		}
		records[i] = record
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

func jsonValue(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

// exportXLSX writes a single-sheet workbook with a header row
func exportXLSX(t warehouse.Table, writer io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = jsonValue(v)
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(writer)
	return err
}
