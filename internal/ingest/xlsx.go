package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/salescast/backend-go/internal/dataset"
)

// ParseXLSX reads the first sheet of a workbook; the first row is the header.
func ParseXLSX(r io.Reader) (dataset.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return dataset.Table{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return dataset.Table{}, fmt.Errorf("xlsx file has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return dataset.Table{}, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var t dataset.Table
	first := true
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return dataset.Table{}, fmt.Errorf("failed to read row from sheet %s: %w", sheet, err)
		}
		if first {
			t.Columns = record
			first = false
			continue
		}
		if isBlank(record) {
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	if err := rows.Error(); err != nil {
		return dataset.Table{}, fmt.Errorf("error iterating rows in sheet %s: %w", sheet, err)
	}
	if first {
		return dataset.Table{}, ErrNoRows
	}

	return t, nil
}
