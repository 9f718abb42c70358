package model

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Regressor predicts a quantity from a feature vector.
type Regressor interface {
	Predict(x []float64) float64
}

// Trainer fits a Regressor. Implementations must be deterministic for a fixed configuration.
type Trainer interface {
	Fit(ctx context.Context, X [][]float64, y []float64) (Regressor, error)
}

// ErrNoSamples is returned when fitting on an empty matrix.
var ErrNoSamples = errors.New("model: no training samples")

// ForestConfig configures a random forest regressor.
type ForestConfig struct {
	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	// MaxFeatures is the number of features considered per split; 0 means all.
	MaxFeatures int
	Seed        int64
	Workers     int
}

// DefaultForestConfig returns the production hyperparameters.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:           200,
		MaxDepth:        15,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
		Workers:         runtime.NumCPU(),
	}
}

func (c ForestConfig) withDefaults() ForestConfig {
	d := DefaultForestConfig()
	if c.Trees <= 0 {
		c.Trees = d.Trees
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.MinSamplesSplit <= 0 {
		c.MinSamplesSplit = d.MinSamplesSplit
	}
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = 2
	}
	if c.MinSamplesLeaf <= 0 {
		c.MinSamplesLeaf = d.MinSamplesLeaf
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	return c
}

// Forest is a bagged ensemble of regression trees. Predictions are the mean over trees.
type Forest struct {
	trees []*Tree
}

// Predict averages the tree predictions.
func (f *Forest) Predict(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.trees))
}

// Size returns the number of trees.
func (f *Forest) Size() int {
	return len(f.trees)
}

// ForestTrainer fits Forests.
type ForestTrainer struct {
	Config ForestConfig
}

// NewForestTrainer returns a trainer using cfg with zero fields replaced by defaults.
func NewForestTrainer(cfg ForestConfig) *ForestTrainer {
	return &ForestTrainer{Config: cfg.withDefaults()}
}

// Fit trains a forest. Each tree draws its bootstrap sample from its own generator seeded with
// Seed+treeIndex, so the result does not depend on Workers.
func (t *ForestTrainer) Fit(ctx context.Context, X [][]float64, y []float64) (Regressor, error) {
	if len(X) == 0 {
		return nil, ErrNoSamples
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("model: %d feature rows but %d targets", len(X), len(y))
	}

	cfg := t.Config.withDefaults()
	params := treeParams{
		maxDepth:        cfg.MaxDepth,
		minSamplesSplit: cfg.MinSamplesSplit,
		minSamplesLeaf:  cfg.MinSamplesLeaf,
		maxFeatures:     cfg.MaxFeatures,
	}

	trees := make([]*Tree, cfg.Trees)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i := range trees {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			sample := make([]int, len(X))
			for k := range sample {
				sample[k] = rng.Intn(len(X))
			}
			trees[i] = fitTree(X, y, sample, params, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Forest{trees: trees}, nil
}
