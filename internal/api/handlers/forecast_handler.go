// backend-go/internal/api/handlers/forecast_handler.go

package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/andresuchdata/salescast/backend-go/internal/service"
)

const uploadSuccessMessage = "Data uploaded and processed successfully"

type ForecastHandler struct {
	service        *service.ForecastService
	maxUploadBytes int64
}

func NewForecastHandler(svc *service.ForecastService, maxUploadBytes int64) *ForecastHandler {
	return &ForecastHandler{service: svc, maxUploadBytes: maxUploadBytes}
}

// legacyPrediction keeps the field names of the original web client.
type legacyPrediction struct {
	Item     string  `json:"Item"`
	Company  string  `json:"Company Name"`
	Quantity float64 `json:"Forecasted Quantity"`
	Date     string  `json:"Date"`
}

// Upload accepts a sales file (multipart field "file"), a JSON body, or a JSON document sent as a
// form key, and replaces the dataset with it.
func (h *ForecastHandler) Upload(c *gin.Context) {
	result, ok := h.upload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   uploadSuccessMessage,
		"row_count": result.Upload.RowCount,
		"upload":    result.Upload,
		"training":  result.Training,
	})
}

// LegacyUpload is Upload with the original response body.
func (h *ForecastHandler) LegacyUpload(c *gin.Context) {
	result, ok := h.upload(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   uploadSuccessMessage,
		"row_count": result.Upload.RowCount,
	})
}

func (h *ForecastHandler) upload(c *gin.Context) (*service.UploadResult, bool) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	filename, data, err := readUpload(c)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	result, err := h.service.Upload(c.Request.Context(), filename, data)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	log.Info().
		Str("file", filename).
		Int("rows", result.Upload.RowCount).
		Int64("version", result.Training.Version).
		Msg("upload processed")
	return result, true
}

func readUpload(c *gin.Context) (string, []byte, error) {
	if strings.HasPrefix(c.ContentType(), binding.MIMEMultipartPOSTForm) {
		fh, err := c.FormFile("file")
		if err == nil {
			if fh.Filename == "" {
				return "", nil, &domain.InvalidArgumentError{Name: "file", Reason: "no file selected"}
			}
			f, err := fh.Open()
			if err != nil {
				return "", nil, err
			}
			defer f.Close()
			data, err := io.ReadAll(f)
			if err != nil {
				return "", nil, err
			}
			return fh.Filename, data, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			return "", nil, err
		}
	}

	if c.ContentType() == binding.MIMEJSON {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return "", nil, err
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return "", nil, &domain.InvalidArgumentError{Name: "body", Reason: "no JSON data provided"}
		}
		return "request.json", data, nil
	}

	if raw, ok := firstFormKey(c); ok {
		return "form.json", []byte(raw), nil
	}

	return "", nil, &domain.InvalidArgumentError{Name: "file", Reason: "provide a sales file, JSON data or form data"}
}

// Quantity returns the historical total for a company over a date range.
func (h *ForecastHandler) Quantity(c *gin.Context) {
	p, total, ok := h.quantity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"company":        p.Company,
		"from_date":      p.FromDate,
		"to_date":        p.ToDate,
		"total_quantity": total,
	})
}

// LegacyQuantity is Quantity with the original response body.
func (h *ForecastHandler) LegacyQuantity(c *gin.Context) {
	_, total, ok := h.quantity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_quantity": total})
}

func (h *ForecastHandler) quantity(c *gin.Context) (queryParams, int64, bool) {
	p, err := bindQueryParams(c, false)
	if err != nil {
		respondError(c, &domain.InvalidArgumentError{Name: "request", Reason: err.Error()})
		return p, 0, false
	}

	total, err := h.service.TotalQuantity(c.Request.Context(), p.Company, p.FromDate, p.ToDate)
	if err != nil {
		respondError(c, err)
		return p, 0, false
	}
	return p, total, true
}

// Forecast returns per-item predictions aggregated at the requested frequency.
func (h *ForecastHandler) Forecast(c *gin.Context) {
	p, records, ok := h.forecast(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"company":     p.Company,
		"from_date":   p.FromDate,
		"to_date":     p.ToDate,
		"frequency":   p.Frequency,
		"predictions": records,
	})
}

// LegacyForecast is Forecast with the original prediction field names.
func (h *ForecastHandler) LegacyForecast(c *gin.Context) {
	_, records, ok := h.forecast(c)
	if !ok {
		return
	}
	out := make([]legacyPrediction, len(records))
	for i, r := range records {
		out[i] = legacyPrediction{Item: r.Item, Company: r.Company, Quantity: r.Quantity, Date: r.Period}
	}
	c.JSON(http.StatusOK, gin.H{"predictions": out})
}

func (h *ForecastHandler) forecast(c *gin.Context) (queryParams, []domain.ForecastRecord, bool) {
	p, err := bindQueryParams(c, true)
	if err != nil {
		respondError(c, &domain.InvalidArgumentError{Name: "request", Reason: err.Error()})
		return p, nil, false
	}

	records, err := h.service.Forecast(c.Request.Context(), p.Company, p.FromDate, p.ToDate, p.Frequency)
	if err != nil {
		respondError(c, err)
		return p, nil, false
	}
	return p, records, true
}

// Companies lists the companies of the live dataset.
func (h *ForecastHandler) Companies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"companies": h.service.Companies()})
}

// Model reports the live dataset and training state.
func (h *ForecastHandler) Model(c *gin.Context) {
	status, err := h.service.ModelStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
