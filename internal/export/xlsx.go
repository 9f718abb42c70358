package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

// QuantityWorkbook is the file that accumulates quantity lookups.
const QuantityWorkbook = "data_fetched.xlsx"

var (
	forecastHeader = []interface{}{"Item", "Company Name", "Forecasted Quantity", "Date"}
	quantityHeader = []interface{}{"Company Name", "From Date", "To Date", "Total Quantity"}
)

// Exporter writes forecast and quantity results as workbooks under Dir.
type Exporter struct {
	Dir string
	mu  sync.Mutex
}

func NewExporter(dir string) *Exporter {
	return &Exporter{Dir: dir}
}

// WriteForecast replaces forecasting_<frequency>.xlsx with records.
func (e *Exporter) WriteForecast(freq domain.Frequency, records []domain.ForecastRecord) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows := make([][]interface{}, 0, len(records)+1)
	rows = append(rows, forecastHeader)
	for _, r := range records {
		rows = append(rows, []interface{}{r.Item, r.Company, r.Quantity, r.Period})
	}

	path := filepath.Join(e.Dir, freq.ExportName())
	if err := writeWorkbook(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

// AppendQuantity adds q to data_fetched.xlsx unless a row for the same company and date range is
// already there. It reports whether a row was appended.
func (e *Exporter) AppendQuantity(q domain.QuantityQuery) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	path := filepath.Join(e.Dir, QuantityWorkbook)
	from, to := q.FromDate.Format("2006-01-02"), q.ToDate.Format("2006-01-02")
	row := []interface{}{q.Company, from, to, q.TotalQuantity}

	existing, err := readRows(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not read existing workbook, creating a new one")
		existing = nil
	}

	rows := [][]interface{}{quantityHeader}
	for i, r := range existing {
		if i == 0 {
			continue
		}
		if len(r) >= 3 && strings.TrimSpace(r[0]) == strings.TrimSpace(q.Company) && r[1] == from && r[2] == to {
			return path, false, nil
		}
		cells := make([]interface{}, len(r))
		for k, v := range r {
			cells[k] = v
		}
		rows = append(rows, cells)
	}
	rows = append(rows, row)

	if err := writeWorkbook(path, rows); err != nil {
		return "", false, err
	}
	return path, true, nil
}

func readRows(path string) ([][]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	return f.GetRows(sheets[0])
}

func writeWorkbook(path string, rows [][]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
