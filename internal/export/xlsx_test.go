package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

func sheetRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	return rows
}

func TestWriteForecast(t *testing.T) {
	e := NewExporter(t.TempDir())

	path, err := e.WriteForecast(domain.FrequencyWeekly, []domain.ForecastRecord{
		{Item: "Widget", Company: "Acme", Quantity: 12.5, Period: "07-Jan-2024 (Week 1)"},
	})
	require.NoError(t, err)
	assert.Equal(t, "forecasting_weekly.xlsx", filepath.Base(path))

	rows := sheetRows(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Item", "Company Name", "Forecasted Quantity", "Date"}, rows[0])
	assert.Equal(t, []string{"Widget", "Acme", "12.5", "07-Jan-2024 (Week 1)"}, rows[1])

	_, err = e.WriteForecast(domain.FrequencyWeekly, nil)
	require.NoError(t, err)
	assert.Len(t, sheetRows(t, path), 1)
}

func TestAppendQuantitySkipsDuplicates(t *testing.T) {
	e := NewExporter(t.TempDir())
	q := domain.QuantityQuery{
		Company:       "Acme",
		FromDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ToDate:        time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		TotalQuantity: 12,
	}

	path, appended, err := e.AppendQuantity(q)
	require.NoError(t, err)
	assert.True(t, appended)

	_, appended, err = e.AppendQuantity(q)
	require.NoError(t, err)
	assert.False(t, appended)

	q.Company = "Beta"
	_, appended, err = e.AppendQuantity(q)
	require.NoError(t, err)
	assert.True(t, appended)

	rows := sheetRows(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Company Name", "From Date", "To Date", "Total Quantity"}, rows[0])
	assert.Equal(t, []string{"Acme", "2024-01-01", "2024-01-31", "12"}, rows[1])
	assert.Equal(t, "Beta", rows[2][0])
}
