// cmd/analytics/main.go

// Command analytics answers quantity and forecast queries offline against the persisted dataset.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/salescast/backend-go/internal/config"
	"github.com/andresuchdata/salescast/backend-go/internal/export"
	"github.com/andresuchdata/salescast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/salescast/backend-go/internal/service"
	"github.com/andresuchdata/salescast/backend-go/pkg/logger"
)

type contextKey string

const serviceKey contextKey = "service"

func main() {
	_ = godotenv.Load()
	logger.Setup(os.Getenv("LOG_LEVEL"), "debug")

	rangeFlags := []cli.Flag{
		&cli.StringFlag{Name: "company", Required: true},
		&cli.StringFlag{Name: "from", Usage: "Start date (YYYY-MM-DD)", Required: true},
		&cli.StringFlag{Name: "to", Usage: "End date (YYYY-MM-DD)", Required: true},
	}

	app := &cli.App{
		Name:  "analytics",
		Usage: "Train and query the sales forecasting model from the command line",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db-url",
				Usage:    "Database connection string",
				Required: true,
				EnvVars:  []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "export-dir",
				Usage:   "Write XLSX results to this directory",
				EnvVars: []string{"APP_DATA_DIR"},
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			{
				Name:  "train",
				Usage: "Train on the persisted dataset and record the run",
				Action: func(c *cli.Context) error {
					svc := c.Context.Value(serviceKey).(*service.ForecastService)
					start := time.Now()
					if err := svc.WarmStart(c.Context); err != nil {
						return err
					}
					status, err := svc.ModelStatus(c.Context)
					if err != nil {
						return err
					}
					log.Printf("trained in %v", time.Since(start))
					return printJSON(status)
				},
			},
			{
				Name:  "quantity",
				Usage: "Total historical quantity for a company",
				Flags: rangeFlags,
				Action: func(c *cli.Context) error {
					svc := c.Context.Value(serviceKey).(*service.ForecastService)
					if err := svc.LoadPersisted(c.Context); err != nil {
						return err
					}
					total, err := svc.TotalQuantity(c.Context, c.String("company"), c.String("from"), c.String("to"))
					if err != nil {
						return err
					}
					return printJSON(map[string]interface{}{"total_quantity": total})
				},
			},
			{
				Name:  "forecast",
				Usage: "Forecast quantities per item for a company",
				Flags: append(rangeFlags, &cli.StringFlag{Name: "frequency", Value: "Daily", Usage: "Daily, Weekly or Monthly"}),
				Action: func(c *cli.Context) error {
					svc := c.Context.Value(serviceKey).(*service.ForecastService)
					if err := svc.WarmStart(c.Context); err != nil {
						return err
					}
					records, err := svc.Forecast(c.Context, c.String("company"), c.String("from"), c.String("to"), c.String("frequency"))
					if err != nil {
						return err
					}
					return printJSON(map[string]interface{}{"predictions": records})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(c *cli.Context) error {
	db, err := sql.Open(postgres.DriverPGX, c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	cfg := config.Load()
	var exporter *export.Exporter
	if dir := c.String("export-dir"); dir != "" {
		exporter = export.NewExporter(dir)
	}

	svc := service.NewForecastService(service.Options{
		Engine:   service.NewEngine(cfg),
		Repo:     postgres.NewSalesRepository(postgres.Wrap(db, postgres.DriverPGX)),
		Exporter: exporter,
	})
	c.Context = context.WithValue(c.Context, serviceKey, svc)
	c.Context = context.WithValue(c.Context, contextKey("db"), db)
	return nil
}

func teardown(c *cli.Context) error {
	if db, ok := c.Context.Value(contextKey("db")).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
