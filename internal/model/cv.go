package model

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// CVReport summarises k-fold cross-validation.
type CVReport struct {
	Folds   int       `json:"folds"`
	MSEs    []float64 `json:"mse_per_fold"`
	MeanMSE float64   `json:"mean_mse"`
	// Spread is two population standard deviations of the fold MSEs.
	Spread float64 `json:"spread"`
}

func (r CVReport) String() string {
	return fmt.Sprintf("%.4f (+/- %.4f)", r.MeanMSE, r.Spread)
}

// CrossValidate runs k-fold cross-validation with contiguous, unshuffled folds. Folds are only
// reported; a poor score never blocks training. When there are fewer rows than folds the fold count
// is reduced; fewer than two rows yields a zero report.
func CrossValidate(ctx context.Context, trainer Trainer, X [][]float64, y []float64, folds int) (CVReport, error) {
	n := len(X)
	if folds > n {
		folds = n
	}
	if folds < 2 {
		return CVReport{}, nil
	}

	mses := make([]float64, 0, folds)
	for k, bounds := range foldBounds(n, folds) {
		if err := ctx.Err(); err != nil {
			return CVReport{}, err
		}

		lo, hi := bounds[0], bounds[1]
		trainX := make([][]float64, 0, n-(hi-lo))
		trainY := make([]float64, 0, n-(hi-lo))
		trainX = append(append(trainX, X[:lo]...), X[hi:]...)
		trainY = append(append(trainY, y[:lo]...), y[hi:]...)

		reg, err := trainer.Fit(ctx, trainX, trainY)
		if err != nil {
			return CVReport{}, fmt.Errorf("fold %d: %w", k, err)
		}

		var sse float64
		for i := lo; i < hi; i++ {
			d := reg.Predict(X[i]) - y[i]
			sse += d * d
		}
		mses = append(mses, sse/float64(hi-lo))
	}

	mean := stat.Mean(mses, nil)
	return CVReport{
		Folds:   folds,
		MSEs:    mses,
		MeanMSE: mean,
		Spread:  2 * math.Sqrt(stat.PopVariance(mses, nil)),
	}, nil
}

// foldBounds splits n rows into k contiguous [lo, hi) ranges; the first n%k folds get one extra row.
func foldBounds(n, k int) [][2]int {
	out := make([][2]int, k)
	size, extra := n/k, n%k
	lo := 0
	for i := 0; i < k; i++ {
		hi := lo + size
		if i < extra {
			hi++
		}
		out[i] = [2]int{lo, hi}
		lo = hi
	}
	return out
}
