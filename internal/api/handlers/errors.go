package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/andresuchdata/salescast/backend-go/internal/ingest"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var (
		missing    *domain.MissingFieldsError
		badQty     *domain.InvalidQuantityError
		badDate    *domain.InvalidDateError
		badValue   *domain.InvalidValueError
		badFreq    *domain.InvalidFrequencyError
		badArg     *domain.InvalidArgumentError
		tooLong    *domain.HorizonTooLongError
		notFound   *domain.NotFoundError
		notTrained *domain.ModelNotTrainedError
		empty      *domain.EmptyDatasetError
		tooLarge   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ingest.ErrUnsupportedFormat), errors.Is(err, ingest.ErrNoRows),
		errors.As(err, &missing), errors.As(err, &badQty), errors.As(err, &badDate),
		errors.As(err, &badValue), errors.As(err, &badFreq), errors.As(err, &badArg),
		errors.As(err, &tooLong):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &notTrained), errors.As(err, &empty):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Missing columns are reported as a warning with the field list.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)

	var missing *domain.MissingFieldsError
	if errors.As(err, &missing) {
		c.JSON(status, gin.H{
			"warning":           fmt.Sprintf("Missing required fields: %s", strings.Join(missing.Fields, ", ")),
			"missing_fields":    missing.Fields,
			"available_columns": missing.Available,
		})
		return
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	log.Warn().Err(err).Str("path", c.Request.URL.Path).Int("status", status).Msg("request rejected")
	c.JSON(status, gin.H{"error": err.Error()})
}
