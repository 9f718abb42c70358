package dataset

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalizeSynonymsAndSort(t *testing.T) {
	table := Table{
		Columns: []string{" Company Name ", "DATE", "Product", "Quantity", "Notes"},
		Rows: [][]string{
			{"Beta", "2024-01-02", "Widget", "3", "x"},
			{"Acme  Co", "2024-01-01", " Gadget ", "5.0", "y"},
			{"Acme Co", "2024-01-02", "Widget", "1", "z"},
		},
	}

	ds, err := Normalize(table)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	recs := ds.Records()
	assert.Equal(t, domain.SalesRecord{Company: "Acme Co", SaleDate: day(2024, 1, 1), Item: "Gadget", Qty: 5}, recs[0])
	assert.Equal(t, "Acme Co", recs[1].Company)
	assert.Equal(t, "Beta", recs[2].Company)

	assert.Equal(t, []string{"Acme Co", "Beta"}, ds.Companies())
	assert.Equal(t, []string{"Gadget", "Widget"}, ds.Items())
}

func TestNormalizeFirstDuplicateColumnWins(t *testing.T) {
	table := Table{
		Columns: []string{"Company", "Sale Date", "Item", "Qty", "Amount"},
		Rows:    [][]string{{"Acme", "2024-01-01", "A", "2", "not-a-number"}},
	}

	ds, err := Normalize(table)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ds.Records()[0].Qty)
}

func TestNormalizeDedupKeepsOne(t *testing.T) {
	table := Table{
		Columns: []string{"Company", "Sale Date", "Item", "Qty"},
		Rows: [][]string{
			{"Acme", "2024-01-01", "A", "2"},
			{"Acme", "01-01-2024", "A", "2"},
			{"Acme", "2024-01-01", "A", "3"},
		},
	}

	ds, err := Normalize(table)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestNormalizeOrderIndependent(t *testing.T) {
	rows := [][]string{
		{"B", "2024-01-01", "X", "1"},
		{"A", "2024-01-01", "X", "1"},
		{"A", "2024-01-01", "W", "4"},
		{"A", "2023-12-31", "X", "9"},
	}
	reversed := make([][]string, len(rows))
	for i := range rows {
		reversed[len(rows)-1-i] = rows[i]
	}

	cols := []string{"Company", "Sale Date", "Item", "Qty"}
	a, err := Normalize(Table{Columns: cols, Rows: rows})
	require.NoError(t, err)
	b, err := Normalize(Table{Columns: cols, Rows: reversed})
	require.NoError(t, err)

	assert.Equal(t, a.Records(), b.Records())
	prev := a.Records()[0].SaleDate
	for _, r := range a.Records() {
		assert.False(t, r.SaleDate.Before(prev))
		prev = r.SaleDate
	}
}

func TestNormalizeUnpaddedDates(t *testing.T) {
	ds, err := Normalize(Table{
		Columns: []string{"Company", "Sale Date", "Item", "Qty"},
		Rows: [][]string{
			{"Acme", "5/1/2024", "A", "1"},
			{"Acme", "2024-1-7", "A", "2"},
			{"Acme", "12/3/2024", "A", "3"},
		},
	})
	require.NoError(t, err)

	recs := ds.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, day(2024, 1, 7), recs[0].SaleDate)
	assert.Equal(t, day(2024, 5, 1), recs[1].SaleDate)
	assert.Equal(t, day(2024, 12, 3), recs[2].SaleDate)
}

func TestParseQtyBounds(t *testing.T) {
	qty, ok := parseQty("9223372036854774784")
	assert.True(t, ok)
	assert.Equal(t, int64(9223372036854774784), qty)

	_, ok = parseQty("9223372036854775807")
	assert.False(t, ok)

	_, ok = parseQty("1e19")
	assert.False(t, ok)
}

func TestNormalizeErrors(t *testing.T) {
	cols := []string{"Company", "Sale Date", "Item", "Qty"}

	t.Run("missing fields", func(t *testing.T) {
		_, err := Normalize(Table{Columns: []string{"Company", "Item"}})
		var target *domain.MissingFieldsError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, []string{ColSaleDate, ColQty}, target.Fields)
	})

	t.Run("invalid quantity reported before dates", func(t *testing.T) {
		_, err := Normalize(Table{Columns: cols, Rows: [][]string{
			{"Acme", "bad", "A", "1"},
			{"Acme", "2024-01-01", "A", "abc"},
			{"Acme", "2024-01-01", "A", "-1"},
			{"Acme", "2024-01-01", "A", "1.5"},
			{"Acme", "2024-01-01", "A", "NaN"},
			{"Acme", "2024-01-01", "A", "9223372036854775807"},
		}})
		var target *domain.InvalidQuantityError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, []int{1, 2, 3, 4, 5}, target.Rows)
		assert.Equal(t, []string{"abc", "-1", "1.5", "NaN", "9223372036854775807"}, target.Values)
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := Normalize(Table{Columns: cols, Rows: [][]string{
			{"Acme", "2024-01-01", "A", "1"},
			{"Acme", "31-31-2024", "A", "1"},
		}})
		var target *domain.InvalidDateError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, []int{1}, target.Rows)
		assert.Equal(t, []string{"31-31-2024"}, target.Values)
	})

	t.Run("empty company", func(t *testing.T) {
		_, err := Normalize(Table{Columns: cols, Rows: [][]string{
			{" ", "2024-01-01", "A", "1"},
		}})
		var target *domain.InvalidValueError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, ColCompany, target.Field)
		assert.Equal(t, []int{0}, target.Rows)
	})

	t.Run("empty item", func(t *testing.T) {
		_, err := Normalize(Table{Columns: cols, Rows: [][]string{
			{"Acme", "2024-01-01", "A", "1"},
			{"Acme", "2024-01-01", " ", "1"},
		}})
		var target *domain.InvalidValueError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, ColItem, target.Field)
	})
}

func TestDatasetHistory(t *testing.T) {
	var recs []domain.SalesRecord
	for i := 1; i <= 10; i++ {
		recs = append(recs, domain.SalesRecord{Company: "Acme", Item: "A", SaleDate: day(2024, 1, i), Qty: int64(i)})
	}
	recs = append(recs, domain.SalesRecord{Company: "Beta", Item: "A", SaleDate: day(2024, 1, 11), Qty: 100})
	ds := New(recs)

	h := ds.History("A", "Acme", 7)
	require.Len(t, h, 7)
	assert.Equal(t, int64(4), h[0].Qty)
	assert.Equal(t, int64(10), h[6].Qty)

	assert.Len(t, ds.History("A", "Beta", 7), 1)
	assert.Empty(t, ds.History("B", "Acme", 7))

	first, last, ok := ds.DateRange()
	require.True(t, ok)
	assert.Equal(t, day(2024, 1, 1), first)
	assert.Equal(t, day(2024, 1, 11), last)

	var empty *Dataset
	assert.Equal(t, 0, empty.Len())
	_, _, ok = empty.DateRange()
	assert.False(t, ok)
}

func TestCanonicalColumn(t *testing.T) {
	assert.Equal(t, ColCompany, CanonicalColumn("COMPANY_NAME"))
	assert.Equal(t, ColQty, CanonicalColumn(" amount "))
	assert.Equal(t, "Unit Price", CanonicalColumn("unit price"))
}
