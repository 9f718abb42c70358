package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
)

func TestBuildSalesInsert(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	query, args := buildSalesInsert("u1", []domain.SalesRecord{
		{Company: "Acme", SaleDate: day, Item: "W", Qty: 3},
		{Company: "Beta", SaleDate: day, Item: "X", Qty: 4},
	})

	assert.Equal(t, "INSERT INTO sales_records (upload_id, company, sale_date, item, qty) VALUES ($1, $2, $3, $4, $5), ($6, $7, $8, $9, $10)", query)
	assert.Equal(t, []interface{}{"u1", "Acme", day, "W", int64(3), "u1", "Beta", day, "X", int64(4)}, args)
}

// TestSalesRepositoryIntegration runs against a real database when TEST_DATABASE_URL is set.
func TestSalesRepositoryIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	sqlDB, err := sql.Open(DriverPGX, dsn)
	require.NoError(t, err)
	defer sqlDB.Close()

	ctx := context.Background()
	db := Wrap(sqlDB, DriverPGX)
	require.NoError(t, db.Migrate(ctx))

	repo := NewSalesRepository(db)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	records := []domain.SalesRecord{
		{Company: "Acme", SaleDate: day, Item: "W", Qty: 3},
		{Company: "Beta", SaleDate: day.AddDate(0, 0, 1), Item: "X", Qty: 4},
	}
	upload := domain.Upload{ID: uuid.New(), Filename: "sales.csv", RowCount: 2, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.ReplaceSales(ctx, upload, records))

	loaded, err := repo.LoadSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)

	q := domain.QuantityQuery{Company: "Acme", FromDate: day, ToDate: day, TotalQuantity: 3, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.SaveQuantityQuery(ctx, q))
	q.TotalQuantity = 5
	require.NoError(t, repo.SaveQuantityQuery(ctx, q))

	run := domain.TrainingRun{Version: time.Now().UnixMilli(), Rows: 2, Items: 2, Companies: 2, TrainedAt: time.Now().UTC()}
	require.NoError(t, repo.SaveTrainingRun(ctx, run))
	latest, err := repo.LatestTrainingRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, run.Version, latest.Version)
}
