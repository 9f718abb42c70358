package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/salescast/backend-go/internal/config"
	"github.com/andresuchdata/salescast/backend-go/internal/drive"
	"github.com/andresuchdata/salescast/backend-go/internal/ingest"
	"github.com/andresuchdata/salescast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/salescast/backend-go/internal/service"
	"github.com/andresuchdata/salescast/backend-go/pkg/logger"
)

type contextKey string

const dbKey contextKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	// Initialize database connection
	db, err := sql.Open(postgres.DriverPGX, c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(c.Context); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	wrapped := postgres.Wrap(db, postgres.DriverPGX)
	if err := wrapped.Migrate(c.Context); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	// Store the database connection in the context
	c.Context = context.WithValue(c.Context, dbKey, wrapped)
	return nil
}

func closeDB(c *cli.Context) error {
	// Close the database connection when done
	if db, ok := c.Context.Value(dbKey).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func newService(c *cli.Context) (*service.ForecastService, error) {
	db, ok := c.Context.Value(dbKey).(*postgres.DB)
	if !ok {
		return nil, fmt.Errorf("database not initialized")
	}
	cfg := config.Load()
	return service.NewForecastService(service.Options{
		Engine:       service.NewEngine(cfg),
		Repo:         postgres.NewSalesRepository(db),
		ParseWorkers: c.Int("workers"),
	}), nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}
	logger.Setup(os.Getenv("LOG_LEVEL"), "debug")

	workersFlag := &cli.IntFlag{
		Name:  "workers",
		Usage: "Number of files parsed concurrently",
		Value: 4,
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Load sales data into the database and train the forecasting model",
		Flags: []cli.Flag{
			newDBURLFlag(),
		},
		Commands: []*cli.Command{
			{
				Name:      "load",
				Usage:     "Load sales files or directories from the local filesystem",
				ArgsUsage: "<file|dir>...",
				Flags:     []cli.Flag{newDBURLFlag(), workersFlag},
				Before:    initDB,
				After:     closeDB,
				Action:    runLoad,
			},
			{
				Name:  "drive",
				Usage: "Load every sales file of a Google Drive folder",
				Flags: []cli.Flag{
					newDBURLFlag(),
					workersFlag,
					&cli.StringFlag{
						Name:     "credentials",
						Usage:    "Service account credentials JSON",
						Required: true,
						EnvVars:  []string{"GOOGLE_DRIVE_CREDENTIALS_JSON"},
					},
					&cli.StringFlag{
						Name:    "folder-id",
						Usage:   "Drive folder ID",
						EnvVars: []string{"GOOGLE_DRIVE_FOLDER_ID"},
					},
					&cli.StringFlag{
						Name:  "path",
						Usage: "Drive folder path from the root, used instead of folder-id",
					},
				},
				Before: initDB,
				After:  closeDB,
				Action: runDrive,
			},
			{
				Name:  "s3",
				Usage: "Load sales files from an S3-compatible bucket",
				Flags: []cli.Flag{
					newDBURLFlag(),
					workersFlag,
					&cli.StringFlag{Name: "s3-endpoint", EnvVars: []string{"STORAGE_ENDPOINT"}, Required: true},
					&cli.StringFlag{Name: "s3-access-key", EnvVars: []string{"STORAGE_ACCESS_KEY"}, Required: true},
					&cli.StringFlag{Name: "s3-secret-key", EnvVars: []string{"STORAGE_SECRET_KEY"}, Required: true},
					&cli.StringFlag{Name: "s3-bucket", EnvVars: []string{"STORAGE_BUCKET"}, Required: true},
					&cli.StringFlag{Name: "s3-region", EnvVars: []string{"STORAGE_REGION"}},
					&cli.BoolFlag{Name: "s3-use-ssl", EnvVars: []string{"STORAGE_USE_SSL"}, Value: true},
					&cli.StringFlag{Name: "prefix", Usage: "Object key prefix", Value: "uploads/"},
					&cli.StringFlag{Name: "key", Usage: "Load a single object instead of the whole prefix"},
					&cli.StringFlag{Name: "download-dir", Value: "./data/tmp/s3"},
				},
				Before: initDB,
				After:  closeDB,
				Action: runS3,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runLoad(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file or directory is required")
	}

	paths, err := expandPaths(c.Args().Slice())
	if err != nil {
		return err
	}
	return ingestPaths(c, "seed:load", paths)
}

func runDrive(c *cli.Context) error {
	driveService, err := drive.NewService(c.Context, c.String("credentials"))
	if err != nil {
		return err
	}

	folderID := c.String("folder-id")
	if p := c.String("path"); p != "" {
		if folderID, err = driveService.FindFolderByPath(c.Context, p); err != nil {
			return err
		}
	}

	svc, err := newService(c)
	if err != nil {
		return err
	}
	result, err := drive.NewIngestService(driveService, svc).IngestFolder(c.Context, folderID)
	if err != nil {
		return fmt.Errorf("drive ingestion failed: %w", err)
	}
	return printResult(result)
}

func runS3(c *cli.Context) error {
	downloader, err := newObjectDownloader(c)
	if err != nil {
		return err
	}
	paths, err := downloader.download(c.Context, c.String("prefix"), c.String("key"))
	if err != nil {
		return err
	}
	return ingestPaths(c, "seed:s3", paths)
}

func ingestPaths(c *cli.Context, name string, paths []string) error {
	svc, err := newService(c)
	if err != nil {
		return err
	}

	sources := make([]ingest.Source, 0, len(paths))
	for _, p := range paths {
		log.Printf("Queued %s", p)
		sources = append(sources, ingest.FileSource(p))
	}

	result, err := svc.Ingest(c.Context, name, sources)
	if err != nil {
		return fmt.Errorf("failed to load sales data: %w", err)
	}
	return printResult(result)
}

// expandPaths replaces directories with the supported files they contain.
func expandPaths(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && ingest.Supported(p) {
				out = append(out, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no supported sales files found")
	}
	sort.Strings(out)
	return out, nil
}

func printResult(result *service.UploadResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
