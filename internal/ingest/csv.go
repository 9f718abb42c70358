package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andresuchdata/salescast/backend-go/internal/dataset"
)

var delimiters = []rune{',', ';', '\t', '|'}

// ParseCSV reads delimited text with a header row. The delimiter is sniffed from the header.
func ParseCSV(r io.Reader) (dataset.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return dataset.Table{}, err
	}
	return parseDelimited(data)
}

// ParseText tries delimited text first and falls back to JSON.
func ParseText(r io.Reader) (dataset.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return dataset.Table{}, err
	}

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		if t, err := ParseJSON(bytes.NewReader(trimmed)); err == nil {
			return t, nil
		}
	}

	t, csvErr := parseDelimited(data)
	if csvErr == nil && len(t.Columns) > 1 {
		return t, nil
	}
	t, jsonErr := ParseJSON(bytes.NewReader(data))
	if jsonErr == nil {
		return t, nil
	}
	if csvErr == nil {
		csvErr = errors.New("single column")
	}
	return dataset.Table{}, fmt.Errorf("could not parse text file as CSV (%v) or JSON (%v)", csvErr, jsonErr)
}

func parseDelimited(data []byte) (dataset.Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return dataset.Table{}, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return dataset.Table{}, ErrNoRows
	}

	t := dataset.Table{Columns: records[0]}
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// sniffDelimiter picks the candidate that occurs most often in the header line, defaulting to comma.
func sniffDelimiter(data []byte) rune {
	header := string(data)
	if i := strings.IndexAny(header, "\r\n"); i >= 0 {
		header = header[:i]
	}

	best, bestCount := ',', 0
	for _, d := range delimiters {
		if n := strings.Count(header, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
