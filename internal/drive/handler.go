package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/andresuchdata/salescast/backend-go/internal/ingest"
)

// Browser is a FileStore that can also resolve folder paths.
type Browser interface {
	FileStore
	FindFolderByPath(ctx context.Context, path string) (string, error)
}

type Handler struct {
	files         Browser
	ingestService *IngestService
	defaultFolder string
}

func NewHandler(files Browser, ingestService *IngestService, defaultFolder string) *Handler {
	return &Handler{
		files:         files,
		ingestService: ingestService,
		defaultFolder: defaultFolder,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods(http.MethodGet)
	router.HandleFunc("/api/drive/files/download", h.DownloadFile).Methods(http.MethodGet)
	router.HandleFunc("/api/drive/ingest", h.Ingest).Methods(http.MethodPost)
}

// Router returns a standalone mux router with the Drive routes registered.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	folderID, err := h.resolveFolder(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	files, err := h.files.ListFiles(r.Context(), folderID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	if files == nil {
		files = []*File{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"folder_id": folderID, "files": files})
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		writeError(w, http.StatusBadRequest, errors.New("fileId parameter is required"))
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = fileID
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(name)))

	if err := h.files.DownloadFile(r.Context(), fileID, w); err != nil {
		log.Error().Err(err).Str("file_id", fileID).Msg("drive download failed")
		writeError(w, http.StatusBadGateway, err)
	}
}

// Ingest loads a single file (fileId and name) or a whole folder (folderId or path) as the dataset.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		result interface{}
		err    error
	)
	if fileID := q.Get("fileId"); fileID != "" {
		name := q.Get("name")
		if name == "" {
			writeError(w, http.StatusBadRequest, errors.New("name parameter is required with fileId"))
			return
		}
		result, err = h.ingestService.IngestFile(r.Context(), fileID, name)
	} else {
		folderID, ferr := h.resolveFolder(r)
		if ferr != nil {
			writeError(w, http.StatusNotFound, ferr)
			return
		}
		result, err = h.ingestService.IngestFolder(r.Context(), folderID)
	}
	if err != nil {
		log.Error().Err(err).Msg("drive ingestion failed")
		writeError(w, ingestStatus(err), fmt.Errorf("ingestion failed: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Data ingested and model trained successfully",
		"result":  result,
	})
}

func (h *Handler) resolveFolder(r *http.Request) (string, error) {
	q := r.URL.Query()
	if path := q.Get("path"); path != "" {
		return h.files.FindFolderByPath(r.Context(), path)
	}
	if id := q.Get("folderId"); id != "" {
		return id, nil
	}
	return h.defaultFolder, nil
}

func ingestStatus(err error) int {
	var (
		missing  *domain.MissingFieldsError
		badQty   *domain.InvalidQuantityError
		badDate  *domain.InvalidDateError
		badValue *domain.InvalidValueError
		empty    *domain.EmptyDatasetError
	)
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat), errors.Is(err, ingest.ErrNoRows),
		errors.As(err, &missing), errors.As(err, &badQty), errors.As(err, &badDate), errors.As(err, &badValue):
		return http.StatusBadRequest
	case errors.As(err, &empty):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
