// backend-go/internal/repository/postgres/sales_repository.go

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

// insertChunk bounds rows per multi-row INSERT; five parameters per row stays under the
// 65535 bind parameter limit.
const insertChunk = 1000

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) *salesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) ReplaceSales(ctx context.Context, upload domain.Upload, records []domain.SalesRecord) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sales_records`); err != nil {
			return fmt.Errorf("failed to clear sales records: %w", err)
		}

		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO uploads (id, filename, row_count, created_at)
			VALUES (:id, :filename, :row_count, :created_at)
		`, upload)
		if err != nil {
			return fmt.Errorf("failed to insert upload: %w", err)
		}

		if r.db.DriverName() == DriverPQ {
			err = copySales(ctx, tx, upload, records)
		} else {
			err = insertSales(ctx, tx, upload, records)
		}
		if err != nil {
			return err
		}

		log.Info().
			Str("upload_id", upload.ID.String()).
			Str("filename", upload.Filename).
			Int("rows", len(records)).
			Msg("sales dataset replaced")
		return nil
	})
}

// copySales streams rows with COPY FROM STDIN, which lib/pq implements via a prepared statement.
func copySales(ctx context.Context, tx *sqlx.Tx, upload domain.Upload, records []domain.SalesRecord) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("sales_records", "upload_id", "company", "sale_date", "item", "qty"))
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, upload.ID.String(), rec.Company, rec.SaleDate, rec.Item, rec.Qty); err != nil {
			return fmt.Errorf("failed to copy sales record: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to flush copy: %w", err)
	}
	return nil
}

func insertSales(ctx context.Context, tx *sqlx.Tx, upload domain.Upload, records []domain.SalesRecord) error {
	for start := 0; start < len(records); start += insertChunk {
		end := start + insertChunk
		if end > len(records) {
			end = len(records)
		}
		query, args := buildSalesInsert(upload.ID.String(), records[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert sales records: %w", err)
		}
	}
	return nil
}

func buildSalesInsert(uploadID string, records []domain.SalesRecord) (string, []interface{}) {
	var b strings.Builder
	b.WriteString("INSERT INTO sales_records (upload_id, company, sale_date, item, qty) VALUES ")
	args := make([]interface{}, 0, len(records)*5)
	for i, rec := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * 5
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5)
		args = append(args, uploadID, rec.Company, rec.SaleDate, rec.Item, rec.Qty)
	}
	return b.String(), args
}

func (r *salesRepository) LoadSales(ctx context.Context) ([]domain.SalesRecord, error) {
	var records []domain.SalesRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT company, sale_date, item, qty
		FROM sales_records
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales records: %w", err)
	}
	for i := range records {
		records[i].SaleDate = records[i].SaleDate.UTC()
	}
	return records, nil
}

func (r *salesRepository) ListUploads(ctx context.Context, limit int) ([]domain.Upload, error) {
	if limit <= 0 {
		limit = 50
	}
	var uploads []domain.Upload
	err := r.db.SelectContext(ctx, &uploads, `
		SELECT id, filename, row_count, created_at
		FROM uploads
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	return uploads, nil
}

func (r *salesRepository) SaveQuantityQuery(ctx context.Context, q domain.QuantityQuery) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO quantity_queries (company, from_date, to_date, total_quantity, created_at)
		VALUES (:company, :from_date, :to_date, :total_quantity, :created_at)
		ON CONFLICT (company, from_date, to_date)
		DO UPDATE SET
			total_quantity = EXCLUDED.total_quantity,
			created_at = EXCLUDED.created_at
	`, q)
	if err != nil {
		return fmt.Errorf("failed to save quantity query: %w", err)
	}
	return nil
}

func (r *salesRepository) SaveTrainingRun(ctx context.Context, run domain.TrainingRun) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO training_runs (
			version, row_count, items, companies, cv_folds,
			cv_mse, cv_std, duration_seconds, trained_at
		) VALUES (
			:version, :row_count, :items, :companies, :cv_folds,
			:cv_mse, :cv_std, :duration_seconds, :trained_at
		)
		ON CONFLICT (version) DO NOTHING
	`, run)
	if err != nil {
		return fmt.Errorf("failed to save training run: %w", err)
	}
	return nil
}

func (r *salesRepository) LatestTrainingRun(ctx context.Context) (*domain.TrainingRun, error) {
	run := &domain.TrainingRun{}
	err := r.db.GetContext(ctx, run, `
		SELECT version, row_count, items, companies, cv_folds,
		       cv_mse, cv_std, duration_seconds, trained_at
		FROM training_runs
		ORDER BY trained_at DESC
		LIMIT 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest training run: %w", err)
	}
	return run, nil
}
