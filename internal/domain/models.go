// backend-go/internal/domain/models.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SalesRecord is one normalized sales row in the canonical schema.
type SalesRecord struct {
	Company  string    `json:"company" db:"company"`
	SaleDate time.Time `json:"sale_date" db:"sale_date"`
	Item     string    `json:"item" db:"item"`
	Qty      int64     `json:"qty" db:"qty"`
}

// Upload describes one accepted batch of sales rows.
type Upload struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Filename  string    `json:"filename" db:"filename"`
	RowCount  int       `json:"row_count" db:"row_count"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Frequency is the reporting granularity of a forecast.
type Frequency string

const (
	FrequencyDaily   Frequency = "Daily"
	FrequencyWeekly  Frequency = "Weekly"
	FrequencyMonthly Frequency = "Monthly"
)

// ForecastPoint is a single day's prediction for one item.
type ForecastPoint struct {
	Item    string
	Company string
	Qty     float64
	Date    time.Time
}

// AggregationBucket groups one or more forecast points into a reporting period.
type AggregationBucket struct {
	Label string
	Qty   float64
	Date  time.Time
}

// ForecastRecord is what callers receive for each (item, period).
type ForecastRecord struct {
	Item     string    `json:"item"`
	Company  string    `json:"company_name"`
	Quantity float64   `json:"forecasted_quantity"`
	Period   string    `json:"date"`
	Date     time.Time `json:"period_end"`
}

// QuantityQuery is the audit record of a historical quantity lookup.
type QuantityQuery struct {
	Company       string    `json:"company" db:"company"`
	FromDate      time.Time `json:"from_date" db:"from_date"`
	ToDate        time.Time `json:"to_date" db:"to_date"`
	TotalQuantity int64     `json:"total_quantity" db:"total_quantity"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// TrainingRun records the outcome of one model fit.
type TrainingRun struct {
	Version   int64     `json:"version" db:"version"`
	Rows      int       `json:"rows" db:"row_count"`
	Items     int       `json:"items" db:"items"`
	Companies int       `json:"companies" db:"companies"`
	CVFolds   int       `json:"cv_folds" db:"cv_folds"`
	CVMSE     float64   `json:"cv_mse" db:"cv_mse"`
	CVStd     float64   `json:"cv_std" db:"cv_std"`
	Duration  float64   `json:"duration_seconds" db:"duration_seconds"`
	TrainedAt time.Time `json:"trained_at" db:"trained_at"`
}
