package repository

import (
	"context"
	"sync"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

type quantityKey struct {
	company  string
	from, to int64
}

// MemorySalesRepository keeps everything in process memory. It backs the server when no database
// is configured and stands in for Postgres in tests.
type MemorySalesRepository struct {
	mu      sync.RWMutex
	records []domain.SalesRecord
	uploads []domain.Upload
	queries map[quantityKey]domain.QuantityQuery
	runs    []domain.TrainingRun
}

func NewMemorySalesRepository() *MemorySalesRepository {
	return &MemorySalesRepository{queries: map[quantityKey]domain.QuantityQuery{}}
}

func (r *MemorySalesRepository) ReplaceSales(_ context.Context, upload domain.Upload, records []domain.SalesRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append([]domain.SalesRecord(nil), records...)
	r.uploads = append(r.uploads, upload)
	return nil
}

func (r *MemorySalesRepository) LoadSales(_ context.Context) ([]domain.SalesRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.SalesRecord(nil), r.records...), nil
}

func (r *MemorySalesRepository) ListUploads(_ context.Context, limit int) ([]domain.Upload, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Upload
	for i := len(r.uploads) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, r.uploads[i])
	}
	return out, nil
}

func (r *MemorySalesRepository) SaveQuantityQuery(_ context.Context, q domain.QuantityQuery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries[quantityKey{q.Company, q.FromDate.Unix(), q.ToDate.Unix()}] = q
	return nil
}

// QuantityQueries returns the recorded audit rows in no particular order.
func (r *MemorySalesRepository) QuantityQueries() []domain.QuantityQuery {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.QuantityQuery, 0, len(r.queries))
	for _, q := range r.queries {
		out = append(out, q)
	}
	return out
}

func (r *MemorySalesRepository) SaveTrainingRun(_ context.Context, run domain.TrainingRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *MemorySalesRepository) LatestTrainingRun(_ context.Context) (*domain.TrainingRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.runs) == 0 {
		return nil, nil
	}
	run := r.runs[len(r.runs)-1]
	return &run, nil
}
