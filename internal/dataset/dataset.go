package dataset

import (
	"sort"
	"time"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

// Dataset is a validated, deduplicated and date-sorted set of sales records. It is never mutated
// after construction, so it can be shared between readers.
type Dataset struct {
	records   []domain.SalesRecord
	companies []string
	items     []string
}

// New sorts records and builds the first-seen company and item indexes.
func New(records []domain.SalesRecord) *Dataset {
	sorted := append([]domain.SalesRecord(nil), records...)
	sortRecords(sorted)

	ds := &Dataset{records: sorted}
	seenCompany := make(map[string]struct{})
	seenItem := make(map[string]struct{})
	for _, r := range sorted {
		if _, ok := seenCompany[r.Company]; !ok {
			seenCompany[r.Company] = struct{}{}
			ds.companies = append(ds.companies, r.Company)
		}
		if _, ok := seenItem[r.Item]; !ok {
			seenItem[r.Item] = struct{}{}
			ds.items = append(ds.items, r.Item)
		}
	}
	return ds
}

// Len returns the number of records; a nil dataset is empty.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Records returns a copy of the sorted records.
func (d *Dataset) Records() []domain.SalesRecord {
	if d == nil {
		return nil
	}
	return append([]domain.SalesRecord(nil), d.records...)
}

// Companies returns unique companies in first-seen order.
func (d *Dataset) Companies() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.companies...)
}

// SortedCompanies returns unique companies in lexical order.
func (d *Dataset) SortedCompanies() []string {
	out := d.Companies()
	sort.Strings(out)
	return out
}

// Items returns unique items in first-seen order.
func (d *Dataset) Items() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.items...)
}

// DateRange returns the first and last sale dates. ok is false for an empty dataset.
func (d *Dataset) DateRange() (first, last time.Time, ok bool) {
	if d.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	return d.records[0].SaleDate, d.records[len(d.records)-1].SaleDate, true
}

// History returns up to n most recent records for (item, company), oldest first.
func (d *Dataset) History(item, company string, n int) []domain.SalesRecord {
	if d == nil || n <= 0 {
		return nil
	}
	var out []domain.SalesRecord
	for i := len(d.records) - 1; i >= 0 && len(out) < n; i-- {
		r := d.records[i]
		if r.Item == item && r.Company == company {
			out = append(out, r)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Each calls fn for every record in sorted order.
func (d *Dataset) Each(fn func(domain.SalesRecord)) {
	if d == nil {
		return
	}
	for _, r := range d.records {
		fn(r)
	}
}
