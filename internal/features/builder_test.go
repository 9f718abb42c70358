package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salescast/backend-go/internal/dataset"
	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

func TestFitEncoder(t *testing.T) {
	enc := FitEncoder([]string{"pear", "apple", "pear", "fig"})

	assert.Equal(t, []string{"apple", "fig", "pear"}, enc.Classes())
	assert.Equal(t, 3, enc.Len())

	code, ok := enc.Code("fig")
	assert.True(t, ok)
	assert.Equal(t, 1, code)

	_, ok = enc.Code("kiwi")
	assert.False(t, ok)
}

func TestBuildLags(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var recs []domain.SalesRecord
	for i := 0; i < 10; i++ {
		recs = append(recs, domain.SalesRecord{Company: "Acme", Item: "A", SaleDate: start.AddDate(0, 0, i), Qty: int64(i + 1)})
	}
	recs = append(recs, domain.SalesRecord{Company: "Beta", Item: "A", SaleDate: start.AddDate(0, 0, 3), Qty: 50})

	m, items, companies := Build(dataset.New(recs))
	require.Equal(t, 11, m.Len())
	assert.Equal(t, 1, items.Len())
	assert.Equal(t, []string{"Acme", "Beta"}, companies.Classes())

	var acme [][]float64
	for i, row := range m.X {
		if row[ColCompanyCode] == 0 {
			acme = append(acme, row)
			continue
		}
		assert.Equal(t, 50.0, m.Y[i])
		assert.Zero(t, row[ColLag1])
		assert.Zero(t, row[ColLag7])
	}
	require.Len(t, acme, 10)

	for i, row := range acme {
		if i == 0 {
			assert.Zero(t, row[ColLag1])
		} else {
			assert.Equal(t, float64(i), row[ColLag1])
		}
		if i < 7 {
			assert.Zero(t, row[ColLag7])
		} else {
			assert.Equal(t, float64(i-6), row[ColLag7])
		}
	}
}

func TestRowCalendar(t *testing.T) {
	// 2024-08-18 is a Sunday.
	row := Row(2, 5, time.Date(2024, 8, 18, 0, 0, 0, 0, time.UTC), 3, 4)

	assert.Equal(t, []float64{2, 5, 8, 18, 2024, 6, 3, 3, 4}, row)
	assert.Len(t, Names, NumFeatures)
}

func TestWeekday(t *testing.T) {
	monday := time.Date(2024, 8, 12, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		assert.Equal(t, i, Weekday(monday.AddDate(0, 0, i)))
	}
}

func TestMatrixSubset(t *testing.T) {
	m := &Matrix{X: [][]float64{{1}, {2}, {3}}, Y: []float64{10, 20, 30}}
	sub := m.Subset([]int{2, 0})
	assert.Equal(t, []float64{30, 10}, sub.Y)
	assert.Equal(t, [][]float64{{3}, {1}}, sub.X)
}
