package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

// Table is a generic tabular record set produced by a file-format adapter.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Normalize validates and cleans a raw table into a sorted, deduplicated Dataset. Any invalid row
// fails the whole call.
func Normalize(t Table) (*Dataset, error) {
	cols := resolveColumns(t.Columns)

	var missing []string
	for _, name := range RequiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.MissingFieldsError{Fields: missing, Available: append([]string(nil), t.Columns...)}
	}

	get := func(row []string, name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}

	qtys := make([]int64, len(t.Rows))
	badQty := &domain.InvalidQuantityError{}
	for i, row := range t.Rows {
		raw := get(row, ColQty)
		q, ok := parseQty(raw)
		if !ok {
			badQty.Rows = append(badQty.Rows, i)
			badQty.Values = append(badQty.Values, raw)
			continue
		}
		qtys[i] = q
	}
	if len(badQty.Rows) > 0 {
		return nil, badQty
	}

	dates := make([]time.Time, len(t.Rows))
	badDate := &domain.InvalidDateError{}
	for i, row := range t.Rows {
		raw := get(row, ColSaleDate)
		d, ok := ParseDate(raw, DateLayouts)
		if !ok {
			badDate.Rows = append(badDate.Rows, i)
			badDate.Values = append(badDate.Values, raw)
			continue
		}
		dates[i] = d
	}
	if len(badDate.Rows) > 0 {
		return nil, badDate
	}

	records := make([]domain.SalesRecord, len(t.Rows))
	emptyCompany := &domain.InvalidValueError{Field: ColCompany}
	emptyItem := &domain.InvalidValueError{Field: ColItem}
	for i, row := range t.Rows {
		company := NormalizeCompany(get(row, ColCompany))
		item := strings.TrimSpace(get(row, ColItem))
		if company == "" {
			emptyCompany.Rows = append(emptyCompany.Rows, i)
		}
		if item == "" {
			emptyItem.Rows = append(emptyItem.Rows, i)
		}
		records[i] = domain.SalesRecord{
			Company:  company,
			SaleDate: dates[i],
			Item:     item,
			Qty:      qtys[i],
		}
	}
	if len(emptyCompany.Rows) > 0 {
		return nil, emptyCompany
	}
	if len(emptyItem.Rows) > 0 {
		return nil, emptyItem
	}

	return New(dedupe(records)), nil
}

// parseQty accepts finite, non-negative, whole numbers ("5", "5.0", "1e2").
func parseQty(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// dedupe drops earlier copies of identical records, keeping the last one in place.
func dedupe(records []domain.SalesRecord) []domain.SalesRecord {
	last := make(map[domain.SalesRecord]int, len(records))
	for i, r := range records {
		last[r] = i
	}
	out := make([]domain.SalesRecord, 0, len(last))
	for i, r := range records {
		if last[r] == i {
			out = append(out, r)
		}
	}
	return out
}

// sortRecords orders by sale date, with company, item and qty as tie-breakers so the result does
// not depend on input order.
func sortRecords(records []domain.SalesRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.SaleDate.Equal(b.SaleDate) {
			return a.SaleDate.Before(b.SaleDate)
		}
		if a.Company != b.Company {
			return a.Company < b.Company
		}
		if a.Item != b.Item {
			return a.Item < b.Item
		}
		return a.Qty < b.Qty
	})
}
