// backend-go/internal/repository/sales_repository.go

package repository

import (
	"context"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

// SalesRepository persists the normalized sales dataset and the audit trail around it.
type SalesRepository interface {
	// ReplaceSales swaps the stored dataset for records and records the upload, atomically.
	ReplaceSales(ctx context.Context, upload domain.Upload, records []domain.SalesRecord) error
	LoadSales(ctx context.Context) ([]domain.SalesRecord, error)
	ListUploads(ctx context.Context, limit int) ([]domain.Upload, error)
	// SaveQuantityQuery upserts on (company, from_date, to_date).
	SaveQuantityQuery(ctx context.Context, q domain.QuantityQuery) error
	SaveTrainingRun(ctx context.Context, run domain.TrainingRun) error
	// LatestTrainingRun returns nil when nothing has been trained yet.
	LatestTrainingRun(ctx context.Context) (*domain.TrainingRun, error)
}
