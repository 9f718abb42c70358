package forecast

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/salescast/backend-go/internal/dataset"
	"github.com/andresuchdata/salescast/backend-go/internal/domain"
	"github.com/andresuchdata/salescast/backend-go/internal/features"
	"github.com/andresuchdata/salescast/backend-go/internal/model"
)

// historyWindow is how many recent rows seed the lag state.
const historyWindow = 7

// Bundle is an immutable trained model together with the encoders and data it was fitted on.
type Bundle struct {
	Model     model.Regressor
	Items     *features.CategoryEncoder
	Companies *features.CategoryEncoder
	Data      *dataset.Dataset
	Version   int64
	TrainedAt time.Time
	Took      time.Duration
	CV        model.CVReport
}

// Summary converts the bundle into a persistable training run.
func (b *Bundle) Summary() domain.TrainingRun {
	return domain.TrainingRun{
		Version:   b.Version,
		Rows:      b.Data.Len(),
		Items:     b.Items.Len(),
		Companies: b.Companies.Len(),
		CVFolds:   b.CV.Folds,
		CVMSE:     b.CV.MeanMSE,
		CVStd:     b.CV.Spread,
		Duration:  b.Took.Seconds(),
		TrainedAt: b.TrainedAt,
	}
}

// Options configures an Engine.
type Options struct {
	Trainer model.Trainer
	// CVFolds is the k in k-fold cross-validation; values below 2 disable it.
	CVFolds int
	// Workers bounds the per-item forecast fan-out.
	Workers int
	Now     func() time.Time
}

// Engine owns the live dataset and the current model bundle. Reads are lock-free; fitting and
// publishing are each serialized.
type Engine struct {
	trainer model.Trainer
	cvFolds int
	workers int
	now     func() time.Time

	fitMu     sync.Mutex
	publishMu sync.Mutex
	bundle    atomic.Pointer[Bundle]
	data      atomic.Pointer[dataset.Dataset]
}

// NewEngine creates an engine with no data and no model.
func NewEngine(opts Options) *Engine {
	if opts.Trainer == nil {
		opts.Trainer = model.NewForestTrainer(model.DefaultForestConfig())
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		trainer: opts.Trainer,
		cvFolds: opts.CVFolds,
		workers: opts.Workers,
		now:     opts.Now,
	}
}

// Load normalizes a raw table and makes it the live dataset. The current model is untouched.
func (e *Engine) Load(t dataset.Table) (*dataset.Dataset, error) {
	ds, err := dataset.Normalize(t)
	if err != nil {
		return nil, err
	}
	e.data.Store(ds)
	return ds, nil
}

// SetDataset replaces the live dataset.
func (e *Engine) SetDataset(ds *dataset.Dataset) {
	e.data.Store(ds)
}

// Dataset returns the live dataset, possibly nil.
func (e *Engine) Dataset() *dataset.Dataset {
	return e.data.Load()
}

// Bundle returns the current model bundle, or nil before the first successful training.
func (e *Engine) Bundle() *Bundle {
	return e.bundle.Load()
}

// Train fits a new model on ds (the live dataset when ds is nil) and publishes it. On failure the
// live dataset and bundle are left as they were.
func (e *Engine) Train(ctx context.Context, ds *dataset.Dataset) (*Bundle, error) {
	b, err := e.Fit(ctx, ds)
	if err != nil {
		return nil, err
	}
	e.Publish(b)
	return b, nil
}

// Fit trains a bundle on ds (the live dataset when ds is nil) without making it live. Fits are
// serialized.
func (e *Engine) Fit(ctx context.Context, ds *dataset.Dataset) (*Bundle, error) {
	e.fitMu.Lock()
	defer e.fitMu.Unlock()

	if ds == nil {
		ds = e.data.Load()
	}
	if ds.Len() == 0 {
		return nil, &domain.EmptyDatasetError{}
	}

	start := e.now()
	m, items, companies := features.Build(ds)

	cv, err := model.CrossValidate(ctx, e.trainer, m.X, m.Y, e.cvFolds)
	if err != nil {
		return nil, fmt.Errorf("cross-validation: %w", err)
	}

	reg, err := e.trainer.Fit(ctx, m.X, m.Y)
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	trainedAt := e.now()
	return &Bundle{
		Model:     reg,
		Items:     items,
		Companies: companies,
		Data:      ds,
		TrainedAt: trainedAt,
		Took:      trainedAt.Sub(start),
		CV:        cv,
	}, nil
}

// Publish assigns b the next model version and swaps it in together with its dataset. b must come
// from Fit and must not have been published before.
func (e *Engine) Publish(b *Bundle) {
	e.publishMu.Lock()
	defer e.publishMu.Unlock()

	b.Version = b.TrainedAt.UnixMilli()
	if prev := e.bundle.Load(); prev != nil && b.Version <= prev.Version {
		b.Version = prev.Version + 1
	}
	e.data.Store(b.Data)
	e.bundle.Store(b)

	log.Info().
		Int64("version", b.Version).
		Int("rows", b.Data.Len()).
		Int("items", b.Items.Len()).
		Int("companies", b.Companies.Len()).
		Int("cv_folds", b.CV.Folds).
		Str("cv_mse", b.CV.String()).
		Dur("took", b.Took).
		Msg("model trained")
}

// TotalQuantity sums Qty for the resolved company over [from, to] inclusive on the live dataset.
// It needs no model. An empty dataset yields 0.
func (e *Engine) TotalQuantity(company string, from, to time.Time) (int64, error) {
	ds := e.data.Load()
	if ds.Len() == 0 {
		return 0, nil
	}

	match, ok := dataset.ResolveCompany(company, ds.Companies())
	if !ok {
		return 0, &domain.NotFoundError{Company: company}
	}
	logMatch(company, match)

	from, to = dataset.Day(from), dataset.Day(to)
	var total int64
	ds.Each(func(r domain.SalesRecord) {
		if r.Company != match.Name || r.SaleDate.Before(from) || r.SaleDate.After(to) {
			return
		}
		total += r.Qty
	})
	return total, nil
}

// Forecast predicts daily quantities for every known item of the resolved company over
// [from, to] and aggregates them at the requested frequency.
func (e *Engine) Forecast(ctx context.Context, company string, from, to time.Time, frequency string) ([]domain.ForecastRecord, error) {
	freq, err := domain.ParseFrequency(frequency)
	if err != nil {
		return nil, err
	}

	if e.data.Load().Len() == 0 && e.bundle.Load() != nil {
		return nil, &domain.EmptyDatasetError{}
	}
	return e.ForecastWith(ctx, e.bundle.Load(), company, from, to, freq)
}

// ForecastWith is Forecast against a specific bundle, so callers that key results by
// Bundle.Version predict with exactly that model.
func (e *Engine) ForecastWith(ctx context.Context, b *Bundle, company string, from, to time.Time, freq domain.Frequency) ([]domain.ForecastRecord, error) {
	if b == nil {
		return nil, &domain.ModelNotTrainedError{}
	}
	if b.Data.Len() == 0 {
		return nil, &domain.EmptyDatasetError{}
	}

	match, ok := dataset.ResolveCompany(company, b.Companies.Classes())
	if !ok {
		return nil, &domain.NotFoundError{Company: company}
	}
	logMatch(company, match)

	from, to = dataset.Day(from), dataset.Day(to)
	if from.After(to) {
		return []domain.ForecastRecord{}, nil
	}

	companyCode, _ := b.Companies.Code(match.Name)
	items := b.Data.Items()
	perItem := make([][]domain.ForecastRecord, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			itemCode, _ := b.Items.Code(item)
			state := SeedLagState(b.Data.History(item, match.Name, historyWindow))
			points := predictDays(b.Model, itemCode, companyCode, from, to, state)
			for k := range points {
				points[k].Item = item
				points[k].Company = match.Name
			}

			buckets := Aggregate(points, freq)
			records := make([]domain.ForecastRecord, len(buckets))
			for k, bucket := range buckets {
				records[k] = domain.ForecastRecord{
					Item:     item,
					Company:  match.Name,
					Quantity: bucket.Qty,
					Period:   bucket.Label,
					Date:     bucket.Date,
				}
			}
			perItem[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.ForecastRecord
	for _, records := range perItem {
		out = append(out, records...)
	}
	if out == nil {
		out = []domain.ForecastRecord{}
	}
	return out, nil
}

// predictDays runs the recursive daily forecast for one (item, company).
func predictDays(reg model.Regressor, itemCode, companyCode int, from, to time.Time, state LagState) []domain.ForecastPoint {
	var points []domain.ForecastPoint
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		pred := reg.Predict(features.Row(itemCode, companyCode, d, state.Last, state.SevenBack))
		points = append(points, domain.ForecastPoint{Qty: Round2(pred), Date: d})
		state = state.Step(pred)
	}
	return points
}

func logMatch(input string, m dataset.Match) {
	if m.Tier != dataset.TierSubstring {
		return
	}
	log.Warn().
		Str("input", input).
		Str("company", m.Name).
		Str("tier", m.Tier.String()).
		Msg("company resolved by substring match")
}
