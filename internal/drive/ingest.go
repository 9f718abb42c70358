package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salescast/backend-go/internal/ingest"
	"github.com/andresuchdata/salescast/backend-go/internal/service"
)

// Ingester loads parsed sources as the new dataset. service.ForecastService implements it.
type Ingester interface {
	Ingest(ctx context.Context, name string, sources []ingest.Source) (*service.UploadResult, error)
}

type IngestService struct {
	files    FileStore
	ingester Ingester
}

func NewIngestService(files FileStore, ingester Ingester) *IngestService {
	return &IngestService{files: files, ingester: ingester}
}

// IngestFolder downloads every supported sales file of a Drive folder and loads them as one dataset.
func (s *IngestService) IngestFolder(ctx context.Context, folderID string) (*service.UploadResult, error) {
	files, err := s.files.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var selected []*File
	for _, f := range files {
		if !ingest.Supported(f.Name) {
			log.Debug().Str("file", f.Name).Msg("skipping unsupported drive file")
			continue
		}
		selected = append(selected, f)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no supported sales files in folder %s: %w", folderID, ingest.ErrNoRows)
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Name < selected[j].Name })

	sources, err := s.download(ctx, selected)
	if err != nil {
		return nil, err
	}
	return s.ingester.Ingest(ctx, "drive:"+folderID, sources)
}

// IngestFile downloads a single Drive file and loads it as the new dataset.
func (s *IngestService) IngestFile(ctx context.Context, fileID, name string) (*service.UploadResult, error) {
	if !ingest.Supported(name) {
		return nil, ingest.ErrUnsupportedFormat
	}
	sources, err := s.download(ctx, []*File{{ID: fileID, Name: name}})
	if err != nil {
		return nil, err
	}
	return s.ingester.Ingest(ctx, "drive:"+name, sources)
}

func (s *IngestService) download(ctx context.Context, files []*File) ([]ingest.Source, error) {
	sources := make([]ingest.Source, 0, len(files))
	for _, f := range files {
		var buf bytes.Buffer
		if err := s.files.DownloadFile(ctx, f.ID, &buf); err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", f.Name, err)
		}
		data := buf.Bytes()
		sources = append(sources, ingest.Source{
			Name: f.Name,
			Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
		})
		log.Info().Str("file", f.Name).Int("bytes", len(data)).Msg("downloaded drive file")
	}
	return sources, nil
}
