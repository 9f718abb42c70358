// backend-go/internal/service/forecast_service.go

package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salescast/backend-go/internal/cache"
	"github.com/andresuchdata/salescast/backend-go/internal/dataset"
	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/andresuchdata/salescast/backend-go/internal/export"
	"github.com/andresuchdata/salescast/backend-go/internal/forecast"
	"github.com/andresuchdata/salescast/backend-go/internal/ingest"
	"github.com/andresuchdata/salescast/backend-go/internal/repository"
	"github.com/andresuchdata/salescast/backend-go/internal/storage"
)

// QueryDateLayouts are tried, in order, for from/to request parameters.
var QueryDateLayouts = append([]string{"2006-01-02"}, dataset.DateLayouts...)

// Options wires a ForecastService. Cache defaults to a no-op; Storage and Exporter are optional.
type Options struct {
	Engine         *forecast.Engine
	Repo           repository.SalesRepository
	Cache          cache.ForecastCache
	Storage        storage.ObjectStorage
	StoragePrefix  string
	Exporter       *export.Exporter
	MaxHorizonDays int
	ParseWorkers   int
	Now            func() time.Time
}

// ForecastService coordinates ingestion, persistence, training and the query operations.
type ForecastService struct {
	engine         *forecast.Engine
	repo           repository.SalesRepository
	cache          cache.ForecastCache
	store          storage.ObjectStorage
	storagePrefix  string
	exporter       *export.Exporter
	maxHorizonDays int
	parseWorkers   int
	now            func() time.Time

	// loadMu serializes dataset replacement.
	loadMu sync.Mutex
}

// UploadResult describes an accepted dataset and the model trained on it.
type UploadResult struct {
	Upload   domain.Upload      `json:"upload"`
	Training domain.TrainingRun `json:"training"`
}

// ModelStatus is a snapshot of the live dataset and model.
type ModelStatus struct {
	Trained   bool                `json:"trained"`
	Rows      int                 `json:"rows"`
	Companies int                 `json:"companies"`
	Items     int                 `json:"items"`
	FirstDate *time.Time          `json:"first_date,omitempty"`
	LastDate  *time.Time          `json:"last_date,omitempty"`
	Training  *domain.TrainingRun `json:"training,omitempty"`
	Uploads   []domain.Upload     `json:"recent_uploads"`
}

func NewForecastService(opts Options) *ForecastService {
	if opts.Engine == nil {
		opts.Engine = forecast.NewEngine(forecast.Options{})
	}
	if opts.Repo == nil {
		opts.Repo = repository.NewMemorySalesRepository()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNoopForecastCache()
	}
	if opts.ParseWorkers <= 0 {
		opts.ParseWorkers = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ForecastService{
		engine:         opts.Engine,
		repo:           opts.Repo,
		cache:          opts.Cache,
		store:          opts.Storage,
		storagePrefix:  opts.StoragePrefix,
		exporter:       opts.Exporter,
		maxHorizonDays: opts.MaxHorizonDays,
		parseWorkers:   opts.ParseWorkers,
		now:            opts.Now,
	}
}

// Upload parses one file, replaces the stored dataset with it and retrains the model.
func (s *ForecastService) Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	table, err := ingest.Parse(filename, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	result, err := s.load(ctx, filename, table)
	if err != nil {
		return nil, err
	}

	s.archive(ctx, result.Upload, data)
	return result, nil
}

// Ingest parses several sources concurrently, merges them into one dataset and retrains.
func (s *ForecastService) Ingest(ctx context.Context, name string, sources []ingest.Source) (*UploadResult, error) {
	if len(sources) == 0 {
		return nil, ingest.ErrNoRows
	}

	results, err := ingest.ParseAll(ctx, sources, s.parseWorkers)
	if err != nil {
		return nil, err
	}
	table, err := ingest.MergeResults(results)
	if err != nil {
		return nil, err
	}

	return s.load(ctx, name, table)
}

func (s *ForecastService) load(ctx context.Context, name string, table dataset.Table) (*UploadResult, error) {
	ds, err := dataset.Normalize(table)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, &domain.EmptyDatasetError{}
	}

	upload := domain.Upload{
		ID:        uuid.New(),
		Filename:  name,
		RowCount:  ds.Len(),
		CreatedAt: s.now().UTC(),
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	bundle, err := s.engine.Fit(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("failed to train model: %w", err)
	}
	if err := s.repo.ReplaceSales(ctx, upload, ds.Records()); err != nil {
		return nil, fmt.Errorf("failed to store sales data: %w", err)
	}
	s.engine.Publish(bundle)

	run := bundle.Summary()
	if err := s.repo.SaveTrainingRun(ctx, run); err != nil {
		log.Warn().Err(err).Int64("version", run.Version).Msg("failed to record training run")
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate forecast cache")
	}

	log.Info().
		Str("upload_id", upload.ID.String()).
		Str("file", name).
		Int("rows", upload.RowCount).
		Int64("version", run.Version).
		Msg("dataset loaded")

	return &UploadResult{Upload: upload, Training: run}, nil
}

func (s *ForecastService) archive(ctx context.Context, upload domain.Upload, data []byte) {
	if s.store == nil {
		return
	}
	key := path.Join(s.storagePrefix, upload.ID.String(), path.Base(upload.Filename))
	if err := s.store.UploadObject(ctx, key, data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to archive upload")
		return
	}
	log.Debug().Str("key", key).Msg("upload archived")
}

// TotalQuantity sums historical sales of a company between two dates, inclusive. Each lookup is
// recorded and, when export is enabled, appended to the quantity workbook.
func (s *ForecastService) TotalQuantity(ctx context.Context, company, fromRaw, toRaw string) (int64, error) {
	if err := requireParams(map[string]string{"company": company, "from_date": fromRaw, "to_date": toRaw}); err != nil {
		return 0, err
	}
	from, to, err := parseRange(fromRaw, toRaw)
	if err != nil {
		return 0, err
	}

	total, err := s.engine.TotalQuantity(company, from, to)
	if err != nil {
		return 0, err
	}

	q := domain.QuantityQuery{
		Company:       dataset.NormalizeCompany(company),
		FromDate:      from,
		ToDate:        to,
		TotalQuantity: total,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.SaveQuantityQuery(ctx, q); err != nil {
		log.Warn().Err(err).Str("company", q.Company).Msg("failed to record quantity query")
	}
	if s.exporter != nil {
		if _, _, err := s.exporter.AppendQuantity(q); err != nil {
			log.Warn().Err(err).Msg("failed to export quantity query")
		}
	}

	return total, nil
}

// Forecast predicts quantities per item for a company over [from, to] at the given frequency.
func (s *ForecastService) Forecast(ctx context.Context, company, fromRaw, toRaw, frequency string) ([]domain.ForecastRecord, error) {
	if err := requireParams(map[string]string{"company": company, "from_date": fromRaw, "to_date": toRaw, "frequency": frequency}); err != nil {
		return nil, err
	}
	freq, err := domain.ParseFrequency(frequency)
	if err != nil {
		return nil, err
	}
	from, to, err := parseRange(fromRaw, toRaw)
	if err != nil {
		return nil, err
	}
	if days := int(to.Sub(from).Hours()/24) + 1; s.maxHorizonDays > 0 && days > s.maxHorizonDays {
		return nil, &domain.HorizonTooLongError{Days: days, Max: s.maxHorizonDays}
	}

	bundle := s.engine.Bundle()
	if bundle == nil {
		return nil, &domain.ModelNotTrainedError{}
	}
	if s.engine.Dataset().Len() == 0 {
		return nil, &domain.EmptyDatasetError{}
	}

	key := cache.ForecastKey{Version: bundle.Version, Company: company, From: from, To: to, Frequency: freq}
	records, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("forecast cache read failed")
	}
	if !hit {
		records, err = s.engine.ForecastWith(ctx, bundle, company, from, to, freq)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, records); err != nil {
			log.Warn().Err(err).Msg("forecast cache write failed")
		}
	}

	if s.exporter != nil {
		if _, err := s.exporter.WriteForecast(freq, records); err != nil {
			log.Warn().Err(err).Str("frequency", string(freq)).Msg("failed to export forecast")
		}
	}

	log.Debug().
		Str("company", company).
		Str("frequency", string(freq)).
		Bool("cached", hit).
		Int("records", len(records)).
		Msg("forecast served")

	return records, nil
}

// Companies returns the distinct companies of the live dataset in sorted order.
func (s *ForecastService) Companies() []string {
	companies := s.engine.Dataset().SortedCompanies()
	if companies == nil {
		return []string{}
	}
	return companies
}

// ModelStatus reports the live dataset size, the current model and the latest uploads.
func (s *ForecastService) ModelStatus(ctx context.Context) (*ModelStatus, error) {
	ds := s.engine.Dataset()
	status := &ModelStatus{
		Rows:      ds.Len(),
		Companies: len(ds.Companies()),
		Items:     len(ds.Items()),
	}
	if first, last, ok := ds.DateRange(); ok {
		status.FirstDate, status.LastDate = &first, &last
	}

	if b := s.engine.Bundle(); b != nil {
		run := b.Summary()
		status.Trained = true
		status.Training = &run
	} else {
		run, err := s.repo.LatestTrainingRun(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load training run: %w", err)
		}
		status.Training = run
	}

	uploads, err := s.repo.ListUploads(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	if uploads == nil {
		uploads = []domain.Upload{}
	}
	status.Uploads = uploads

	return status, nil
}

// LoadPersisted makes the stored dataset live without training. Quantity lookups need no model.
func (s *ForecastService) LoadPersisted(ctx context.Context) error {
	_, err := s.loadPersisted(ctx)
	return err
}

// WarmStart loads the persisted dataset and trains on it. An empty store is not an error.
func (s *ForecastService) WarmStart(ctx context.Context) error {
	ds, err := s.loadPersisted(ctx)
	if err != nil {
		return err
	}
	if ds.Len() == 0 {
		log.Info().Msg("no persisted sales data, waiting for an upload")
		return nil
	}

	bundle, err := s.engine.Train(ctx, ds)
	if err != nil {
		return fmt.Errorf("failed to train model: %w", err)
	}
	if err := s.repo.SaveTrainingRun(ctx, bundle.Summary()); err != nil {
		log.Warn().Err(err).Msg("failed to record training run")
	}
	return nil
}

func (s *ForecastService) loadPersisted(ctx context.Context) (*dataset.Dataset, error) {
	records, err := s.repo.LoadSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales data: %w", err)
	}
	ds := dataset.New(records)
	if ds.Len() > 0 {
		s.engine.SetDataset(ds)
	}
	return ds, nil
}

func requireParams(params map[string]string) error {
	for _, name := range []string{"company", "from_date", "to_date", "frequency"} {
		v, ok := params[name]
		if ok && strings.TrimSpace(v) == "" {
			return &domain.InvalidArgumentError{Name: name, Reason: "is required"}
		}
	}
	return nil
}

func parseRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	from, ok := dataset.ParseDate(fromRaw, QueryDateLayouts)
	if !ok {
		return time.Time{}, time.Time{}, &domain.InvalidArgumentError{Name: "from_date", Value: fromRaw, Reason: "is not a valid date"}
	}
	to, ok := dataset.ParseDate(toRaw, QueryDateLayouts)
	if !ok {
		return time.Time{}, time.Time{}, &domain.InvalidArgumentError{Name: "to_date", Value: toRaw, Reason: "is not a valid date"}
	}
	return from, to, nil
}
