// backend-go/internal/api/api.go

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/salescast/backend-go/internal/api/handlers"
	"github.com/andresuchdata/salescast/backend-go/internal/api/middleware"
	"github.com/andresuchdata/salescast/backend-go/internal/drive"
	"github.com/andresuchdata/salescast/backend-go/internal/service"
)

const healthPath = "/health"

type Services struct {
	ForecastService *service.ForecastService
	// Drive is optional; its routes are mounted only when set.
	Drive          *drive.Handler
	MaxUploadBytes int64
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(healthPath))
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET(healthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if services == nil {
		return router
	}

	if services.ForecastService != nil {
		h := handlers.NewForecastHandler(services.ForecastService, services.MaxUploadBytes)

		apiGroup := router.Group("/api/v1")
		{
			apiGroup.POST("/upload", h.Upload)
			apiGroup.GET("/quantity", h.Quantity)
			apiGroup.POST("/quantity", h.Quantity)
			apiGroup.GET("/forecast", h.Forecast)
			apiGroup.POST("/forecast", h.Forecast)
			apiGroup.GET("/companies", h.Companies)
			apiGroup.GET("/model", h.Model)
		}

		// Routes used by the original web client.
		router.POST("/upload_dotnet_data", h.LegacyUpload)
		router.GET("/get_quantity", h.LegacyQuantity)
		router.POST("/get_quantity", h.LegacyQuantity)
		router.GET("/forecast", h.LegacyForecast)
		router.POST("/forecast", h.LegacyForecast)
		router.GET("/get_companies", h.Companies)
	}

	if services.Drive != nil {
		driveRouter := gin.WrapH(services.Drive.Router())
		router.Any("/api/drive/*path", driveRouter)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
