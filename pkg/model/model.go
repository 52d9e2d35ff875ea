package model

import (
	"errors"
	"fmt"
	"math"
)

// Regressor is a supervised model predicting a continuous target.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// FeatureImporter is implemented by models that rank their inputs.
// Importances are non-negative and sum to 1 (or are all zero).
type FeatureImporter interface {
	FeatureImportances() []float64
}

var (
	ErrEmpty      = errors.New("model: empty X")
	ErrNotFitted  = errors.New("model: not fitted")
	ErrNonFinite  = errors.New("model: input contains NaN or infinity")
	ErrShape      = errors.New("model: inconsistent shapes")
	errEstimators = errors.New("model: forest needs at least one estimator")
)

// checkXY validates a training set and returns the feature count.
func checkXY(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, ErrEmpty
	}
	if len(y) != len(X) {
		return 0, fmt.Errorf("%w: %d rows in X, %d targets", ErrShape, len(X), len(y))
	}
	if err := checkX(X, len(X[0])); err != nil {
		return 0, err
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: target row %d", ErrNonFinite, i)
		}
	}
	return len(X[0]), nil
}

// checkX validates that every row has p finite features.
func checkX(X [][]float64, p int) error {
	for i, row := range X {
		if len(row) != p {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrShape, i, len(row), p)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: row %d feature %d", ErrNonFinite, i, j)
			}
		}
	}
	return nil
}
