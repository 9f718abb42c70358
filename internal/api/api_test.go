package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salescast/backend-go/internal/forecast"
	"github.com/andresuchdata/salescast/backend-go/internal/model"
	"github.com/andresuchdata/salescast/backend-go/internal/repository"
	"github.com/andresuchdata/salescast/backend-go/internal/service"
)

const salesCSV = `Company Name,Sale Date,Item,Qty
Acme,2024-01-01,Widget,5
Acme,2024-01-02,Widget,7
Beta Corp,2024-01-01,Gadget,3
`

type constRegressor float64

func (c constRegressor) Predict([]float64) float64 { return float64(c) }

type constTrainer struct{}

func (constTrainer) Fit(_ context.Context, X [][]float64, _ []float64) (model.Regressor, error) {
	if len(X) == 0 {
		return nil, model.ErrNoSamples
	}
	return constRegressor(2), nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	svc := service.NewForecastService(service.Options{
		Engine:         forecast.NewEngine(forecast.Options{Trainer: constTrainer{}, Workers: 2}),
		Repo:           repository.NewMemorySalesRepository(),
		MaxHorizonDays: 366,
	})
	return NewRouter(&Services{ForecastService: svc, MaxUploadBytes: 1 << 20}, []string{"*"})
}

func multipartUpload(t *testing.T, filename, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload_dotnet_data", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rec := serve(newTestRouter(t), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestUploadThenQuery(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, multipartUpload(t, "sales.csv", salesCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Data uploaded and processed successfully", body["message"])
	assert.EqualValues(t, 3, body["row_count"])

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/get_quantity?company=acme&from_date=2024-01-01&to_date=2024-01-31", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 12, decode(t, rec)["total_quantity"])

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/get_companies", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"Acme", "Beta Corp"}, decode(t, rec)["companies"])

	req := httptest.NewRequest(http.MethodPost, "/forecast",
		strings.NewReader(`{"company":"Acme","from_date":"2024-02-01","to_date":"2024-02-02","frequency":"daily"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(router, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var legacy struct {
		Predictions []map[string]interface{} `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &legacy))
	// Both known items are forecast for both days.
	require.Len(t, legacy.Predictions, 4)
	first := legacy.Predictions[0]
	assert.Equal(t, "Acme", first["Company Name"])
	assert.EqualValues(t, 2, first["Forecasted Quantity"])
	assert.Equal(t, "01-Feb-2024", first["Date"])
	assert.Contains(t, first, "Item")

	form := url.Values{}
	form.Set(`{"company":"Acme","from_date":"2024-02-01","to_date":"2024-02-14","frequency":"Weekly"}`, "")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/forecast", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = serve(router, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "Weekly", body["frequency"])
	assert.NotEmpty(t, body["predictions"])

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/model", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, true, body["trained"])
	assert.EqualValues(t, 3, body["rows"])
}

func TestErrorStatuses(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/forecast?company=Acme&from_date=2024-02-01&to_date=2024-02-02&frequency=Daily", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(router, multipartUpload(t, "sales.csv", "Company,Item\nAcme,Widget\n"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []interface{}{"Sale Date", "Qty"}, body["missing_fields"])
	assert.Contains(t, body["warning"], "Missing required fields")

	rec = serve(router, multipartUpload(t, "sales.pdf", "x"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, multipartUpload(t, "sales.csv", salesCSV))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/forecast?company=Acme&from_date=2024-02-01&to_date=2024-02-02&frequency=Yearly", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/quantity?company=Nobody&from_date=2024-01-01&to_date=2024-01-31", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/quantity?company=Acme", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "text/plain")
	rec = serve(router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadJSONBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload",
		strings.NewReader(`[{"Company":"Acme","Date":"2024-01-01","Item":"Widget","Quantity":4}]`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(router, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.EqualValues(t, 1, body["row_count"])
	assert.Contains(t, body, "training")
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
