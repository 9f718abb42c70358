package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/salescast/backend-go/internal/dataset"
)

// ErrUnsupportedFormat is returned for file extensions without an adapter.
var ErrUnsupportedFormat = errors.New("unsupported file format, upload .xlsx, .csv, .json, .xml, .sql or .txt files")

// ErrLegacyWorkbook rejects binary .xls workbooks, which the xlsx reader cannot open.
var ErrLegacyWorkbook = fmt.Errorf("%w: legacy .xls workbooks must be saved as .xlsx", ErrUnsupportedFormat)

// ErrNoRows is returned when a file parses but yields no usable table.
var ErrNoRows = errors.New("no rows found")

// Format identifies a file adapter.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTXT  Format = "txt"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
	FormatSQL  Format = "sql"
)

var extensions = map[string]Format{
	".csv":  FormatCSV,
	".txt":  FormatTXT,
	".xlsx": FormatXLSX,
	".json": FormatJSON,
	".xml":  FormatXML,
	".sql":  FormatSQL,
}

// DetectFormat maps a filename to its adapter by extension (case-insensitive).
func DetectFormat(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	if ext == ".xls" {
		return "", ErrLegacyWorkbook
	}
	return "", ErrUnsupportedFormat
}

// Supported reports whether filename has a known extension.
func Supported(filename string) bool {
	_, err := DetectFormat(filename)
	return err == nil
}

// Parse reads a whole file into a raw table using the adapter for its extension.
func Parse(filename string, r io.Reader) (dataset.Table, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return dataset.Table{}, err
	}

	var t dataset.Table
	switch format {
	case FormatCSV:
		t, err = ParseCSV(r)
	case FormatTXT:
		t, err = ParseText(r)
	case FormatXLSX:
		t, err = ParseXLSX(r)
	case FormatJSON:
		t, err = ParseJSON(r)
	case FormatXML:
		t, err = ParseXML(r)
	case FormatSQL:
		t, err = ParseSQL(r)
	}
	if err != nil {
		return dataset.Table{}, fmt.Errorf("parse %s: %w", filename, err)
	}
	return t, nil
}

// Merge concatenates tables whose headers may differ. Headers are mapped to canonical names first,
// so "Quantity" in one file and "Qty" in another land in the same column.
func Merge(tables ...dataset.Table) dataset.Table {
	if len(tables) == 1 {
		return tables[0]
	}

	var out dataset.Table
	index := map[string]int{}
	for _, t := range tables {
		for _, c := range t.Columns {
			name := dataset.CanonicalColumn(c)
			if _, ok := index[name]; !ok {
				index[name] = len(out.Columns)
				out.Columns = append(out.Columns, name)
			}
		}
	}

	for _, t := range tables {
		pos := make([]int, len(t.Columns))
		seen := map[string]bool{}
		for i, c := range t.Columns {
			name := dataset.CanonicalColumn(c)
			if seen[name] {
				pos[i] = -1
				continue
			}
			seen[name] = true
			pos[i] = index[name]
		}
		for _, row := range t.Rows {
			merged := make([]string, len(out.Columns))
			for i, v := range row {
				if i < len(pos) && pos[i] >= 0 {
					merged[pos[i]] = v
				}
			}
			out.Rows = append(out.Rows, merged)
		}
	}
	return out
}
