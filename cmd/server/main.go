// backend-go/cmd/server/main.go

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/salescast/backend-go/internal/api"
	"github.com/andresuchdata/salescast/backend-go/internal/cache"
	"github.com/andresuchdata/salescast/backend-go/internal/config"
	"github.com/andresuchdata/salescast/backend-go/internal/drive"
	"github.com/andresuchdata/salescast/backend-go/internal/export"
	"github.com/andresuchdata/salescast/backend-go/internal/repository"
	"github.com/andresuchdata/salescast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/salescast/backend-go/internal/service"
	"github.com/andresuchdata/salescast/backend-go/internal/storage"
	"github.com/andresuchdata/salescast/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Setup(cfg.Server.LogLevel, cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo := openRepository(ctx, cfg)
	defer closeRepo()

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("redis unavailable, forecast caching disabled")
		forecastCache = cache.NewNoopForecastCache()
	}

	var exporter *export.Exporter
	if cfg.App.ExportEnabled {
		exporter = export.NewExporter(cfg.App.DataDir)
	}

	forecastService := service.NewForecastService(service.Options{
		Engine:         service.NewEngine(cfg),
		Repo:           repo,
		Cache:          forecastCache,
		Storage:        openStorage(cfg),
		StoragePrefix:  cfg.Storage.Prefix,
		Exporter:       exporter,
		MaxHorizonDays: cfg.Forecast.MaxHorizonDays,
		ParseWorkers:   cfg.Forecast.Workers,
	})

	start := time.Now()
	if err := forecastService.WarmStart(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("warm start failed, serving without a model")
	} else {
		logger.Log.Info().Dur("took", time.Since(start)).Msg("warm start complete")
	}

	services := &api.Services{
		ForecastService: forecastService,
		Drive:           openDrive(ctx, cfg, forecastService),
		MaxUploadBytes:  cfg.Server.MaxUploadMB << 20,
	}

	// Initialize HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(services, cfg.Server.AllowedOrigins),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func openRepository(ctx context.Context, cfg *config.Config) (repository.SalesRepository, func()) {
	if !cfg.Database.Enabled {
		logger.Log.Warn().Msg("database disabled, sales data is kept in memory only")
		return repository.NewMemorySalesRepository(), func() {}
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := db.Migrate(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to apply schema")
	}
	return postgres.NewSalesRepository(db), func() { db.Close() }
}

func openStorage(cfg *config.Config) storage.ObjectStorage {
	if !cfg.Storage.Enabled {
		return storage.NewLocalStorage(cfg.App.UploadDir)
	}
	client, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("object storage unavailable, archiving uploads locally")
		return storage.NewLocalStorage(cfg.App.UploadDir)
	}
	return client
}

func openDrive(ctx context.Context, cfg *config.Config, ingester drive.Ingester) *drive.Handler {
	if !cfg.Drive.Enabled() {
		return nil
	}
	driveService, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Google Drive unavailable, drive routes disabled")
		return nil
	}
	return drive.NewHandler(driveService, drive.NewIngestService(driveService, ingester), cfg.Drive.FolderID)
}
