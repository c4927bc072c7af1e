// Package ml holds the small regression toolkit used by the correction
// stages: CART regression trees, a bagged random forest, k-nearest
// neighbours, a seeded train/test split and the MSE metric.
package ml

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEmptyTrainingSet = errors.New("ml: empty training set")
	ErrShapeMismatch    = errors.New("ml: X and y length mismatch")
)

// Regressor is a model fitted on feature rows X and continuous targets y.
type Regressor interface {
	Fit(ctx context.Context, X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
}

func checkXY(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), width)
		}
	}
	return nil
}
