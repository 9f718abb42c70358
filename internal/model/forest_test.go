package model

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepData() ([][]float64, []float64) {
	var X [][]float64
	var y []float64
	for i := 0; i < 60; i++ {
		x := float64(i)
		X = append(X, []float64{x, float64(i % 3)})
		if i < 30 {
			y = append(y, 10)
		} else {
			y = append(y, 50)
		}
	}
	return X, y
}

func TestForestFitsStepFunction(t *testing.T) {
	X, y := stepData()
	trainer := NewForestTrainer(ForestConfig{Trees: 20, Seed: 7, Workers: 4})

	reg, err := trainer.Fit(context.Background(), X, y)
	require.NoError(t, err)

	assert.InDelta(t, 10, reg.Predict([]float64{5, 0}), 2)
	assert.InDelta(t, 50, reg.Predict([]float64{55, 1}), 2)
	assert.Equal(t, 20, reg.(*Forest).Size())
}

func TestForestDeterministicAcrossWorkers(t *testing.T) {
	X, y := stepData()
	for i := range y {
		y[i] += float64(i%7) * 1.3
	}

	a, err := NewForestTrainer(ForestConfig{Trees: 15, Seed: 42, Workers: 1}).Fit(context.Background(), X, y)
	require.NoError(t, err)
	b, err := NewForestTrainer(ForestConfig{Trees: 15, Seed: 42, Workers: 8}).Fit(context.Background(), X, y)
	require.NoError(t, err)

	for _, x := range [][]float64{{0, 0}, {17, 2}, {31, 1}, {100, 0}} {
		assert.Equal(t, a.Predict(x), b.Predict(x))
	}
}

func TestForestRespectsMaxDepth(t *testing.T) {
	X, y := stepData()
	for i := range y {
		y[i] = float64(i)
	}

	reg, err := NewForestTrainer(ForestConfig{Trees: 3, MaxDepth: 2, MinSamplesLeaf: 1, Seed: 1}).Fit(context.Background(), X, y)
	require.NoError(t, err)
	for _, tree := range reg.(*Forest).trees {
		assert.LessOrEqual(t, tree.Depth(), 2)
	}
}

func TestForestErrors(t *testing.T) {
	trainer := NewForestTrainer(ForestConfig{})

	_, err := trainer.Fit(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoSamples)

	_, err = trainer.Fit(context.Background(), [][]float64{{1}}, []float64{1, 2})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	X, y := stepData()
	_, err = trainer.Fit(ctx, X, y)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultForestConfig(t *testing.T) {
	cfg := DefaultForestConfig()
	assert.Equal(t, 200, cfg.Trees)
	assert.Equal(t, 15, cfg.MaxDepth)
	assert.Equal(t, 5, cfg.MinSamplesSplit)
	assert.Equal(t, 2, cfg.MinSamplesLeaf)
	assert.Equal(t, int64(42), cfg.Seed)
}

func TestTreeConstantTargetIsLeaf(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}}
	y := []float64{4, 4, 4, 4, 4, 4}
	tree := fitTree(X, y, []int{0, 1, 2, 3, 4, 5}, treeParams{maxDepth: 5, minSamplesSplit: 2, minSamplesLeaf: 1}, nil)

	assert.Equal(t, 0, tree.Depth())
	assert.Equal(t, 4.0, tree.Predict([]float64{100}))
}

func TestCrossValidate(t *testing.T) {
	X, y := stepData()
	trainer := NewForestTrainer(ForestConfig{Trees: 5, Seed: 3, Workers: 2})

	report, err := CrossValidate(context.Background(), trainer, X, y, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Folds)
	require.Len(t, report.MSEs, 5)

	var sum float64
	for _, m := range report.MSEs {
		assert.GreaterOrEqual(t, m, 0.0)
		sum += m
	}
	assert.InDelta(t, sum/5, report.MeanMSE, 1e-9)
	assert.False(t, math.IsNaN(report.Spread))
	assert.Contains(t, report.String(), "+/-")
}

func TestCrossValidateSmallInputs(t *testing.T) {
	trainer := NewForestTrainer(ForestConfig{Trees: 2})

	report, err := CrossValidate(context.Background(), trainer, [][]float64{{1}}, []float64{1}, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Folds)

	report, err = CrossValidate(context.Background(), trainer, [][]float64{{1}, {2}, {3}}, []float64{1, 2, 3}, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Folds)
}

func TestFoldBounds(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 3}, {3, 5}, {5, 7}}, foldBounds(7, 3))
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}}, foldBounds(4, 2))
}
