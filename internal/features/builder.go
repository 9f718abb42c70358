package features

import (
	"time"

	"github.com/andresuchdata/salescast/backend-go/internal/dataset"
)

// Column positions in a feature row.
const (
	ColItemCode = iota
	ColCompanyCode
	ColMonth
	ColDay
	ColYear
	ColDayOfWeek
	ColQuarter
	ColLag1
	ColLag7

	NumFeatures
)

// Names lists feature names in column order.
var Names = []string{"item", "company", "month", "day", "year", "day_of_week", "quarter", "lag_1", "lag_7"}

// Matrix is a feature matrix with its regression target.
type Matrix struct {
	X [][]float64
	Y []float64
}

// Len returns the number of rows.
func (m *Matrix) Len() int {
	return len(m.Y)
}

// Subset returns the rows at the given indices. Row slices are shared with m.
func (m *Matrix) Subset(idx []int) *Matrix {
	out := &Matrix{X: make([][]float64, len(idx)), Y: make([]float64, len(idx))}
	for i, j := range idx {
		out.X[i] = m.X[j]
		out.Y[i] = m.Y[j]
	}
	return out
}

// Build turns a dataset into a feature matrix and returns it with the item and company encoders
// that produced its code columns. Rows keep the dataset's sorted order; lag_1 and
// lag_7 are the qty one and seven rows earlier within the same (item, company) partition, 0 when
// that much history does not exist.
func Build(ds *dataset.Dataset) (*Matrix, *CategoryEncoder, *CategoryEncoder) {
	records := ds.Records()
	items := FitEncoder(ds.Items())
	companies := FitEncoder(ds.Companies())

	type key struct{ item, company string }
	history := make(map[key][]float64)

	m := &Matrix{X: make([][]float64, len(records)), Y: make([]float64, len(records))}
	for i, r := range records {
		k := key{r.Item, r.Company}
		past := history[k]

		var lag1, lag7 float64
		if n := len(past); n >= 1 {
			lag1 = past[n-1]
		}
		if n := len(past); n >= 7 {
			lag7 = past[n-7]
		}

		itemCode, _ := items.Code(r.Item)
		companyCode, _ := companies.Code(r.Company)
		m.X[i] = Row(itemCode, companyCode, r.SaleDate, lag1, lag7)
		m.Y[i] = float64(r.Qty)

		history[k] = append(past, float64(r.Qty))
	}

	return m, items, companies
}

// Row assembles a single feature vector.
func Row(itemCode, companyCode int, date time.Time, lag1, lag7 float64) []float64 {
	row := make([]float64, NumFeatures)
	row[ColItemCode] = float64(itemCode)
	row[ColCompanyCode] = float64(companyCode)
	row[ColMonth] = float64(date.Month())
	row[ColDay] = float64(date.Day())
	row[ColYear] = float64(date.Year())
	row[ColDayOfWeek] = float64(Weekday(date))
	row[ColQuarter] = float64((int(date.Month())-1)/3 + 1)
	row[ColLag1] = lag1
	row[ColLag7] = lag7
	return row
}

// Weekday returns Monday=0 ... Sunday=6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
