// Command api runs a standalone Google Drive ingestion server. It shares the Postgres dataset with
// cmd/server, which picks up the new data on its next start or upload.
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/andresuchdata/salescast/backend-go/internal/config"
	"github.com/andresuchdata/salescast/backend-go/internal/drive"
	"github.com/andresuchdata/salescast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/salescast/backend-go/internal/service"
	"github.com/andresuchdata/salescast/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Setup(cfg.Server.LogLevel, cfg.Server.Mode)
	ctx := context.Background()

	if !cfg.Drive.Enabled() {
		logger.Log.Fatal().Msg("GOOGLE_DRIVE_CREDENTIALS_JSON is required")
	}

	// Initialize Google Drive service
	driveService, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
	}

	// Initialize Database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	// Initialize Services
	forecastService := service.NewForecastService(service.Options{
		Engine:       service.NewEngine(cfg),
		Repo:         postgres.NewSalesRepository(db),
		ParseWorkers: cfg.Forecast.Workers,
	})
	ingestService := drive.NewIngestService(driveService, forecastService)

	// Create router
	r := mux.NewRouter()

	// Register routes
	driveHandler := drive.NewHandler(driveService, ingestService, cfg.Drive.FolderID)
	driveHandler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
	logger.Log.Info().Str("addr", addr).Msg("Drive ingest server starting")
	if err := srv.ListenAndServe(); err != nil {
		logger.Log.Fatal().Err(err).Msg("server stopped")
	}
}
