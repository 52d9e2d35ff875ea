package model

import (
	"errors"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LinearRegression is ordinary least squares with an intercept, solved in
// closed form. Rank-deficient designs get the minimum-norm solution.
type LinearRegression struct {
	W         []float64 // weights
	Intercept float64
	Rank      int // effective rank of the centered design
	fitted    bool
}

func NewLinearRegression() *LinearRegression { return &LinearRegression{} }

// Fit centers X and y, solves the least-squares system through a thin SVD
// and recovers the intercept from the column means.
func (m *LinearRegression) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	n := len(X)

	xMean := make([]float64, p)
	for _, row := range X {
		floats.Add(xMean, row)
	}
	floats.Scale(1/float64(n), xMean)
	yMean := floats.Sum(y) / float64(n)

	m.W = make([]float64, p)
	m.Intercept = yMean
	m.Rank = 0
	m.fitted = true
	if p == 0 {
		return nil
	}

	A := mat.NewDense(n, p, nil)
	b := mat.NewDense(n, 1, nil)
	for i, row := range X {
		for j, v := range row {
			A.Set(i, j, v-xMean[j])
		}
		b.Set(i, 0, y[i]-yMean)
	}

	var svd mat.SVD
	if ok := svd.Factorize(A, mat.SVDThin); !ok {
		m.fitted = false
		return errors.New("model: SVD factorization failed")
	}
	rcond := float64(max(n, p)) * (math.Nextafter(1, 2) - 1)
	m.Rank = svd.Rank(rcond)
	if m.Rank > 0 {
		var w mat.Dense
		svd.SolveTo(&w, b, m.Rank)
		for j := 0; j < p; j++ {
			m.W[j] = w.At(j, 0)
		}
	}
	m.Intercept = yMean - floats.Dot(xMean, m.W)
	return nil
}

// Predict returns predictions for rows in X, splitting rows across CPU cores.
func (m *LinearRegression) Predict(X [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if err := checkX(X, len(m.W)); err != nil {
		return nil, err
	}
	pred := make([]float64, len(X))
	if len(X) == 0 {
		return pred, nil
	}

	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (len(X) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		s := w * rowsPerWorker
		e := min(s+rowsPerWorker, len(X))
		if s >= e {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				pred[i] = m.Intercept + floats.Dot(m.W, X[i])
			}
		}(s, e)
	}
	wg.Wait()
	return pred, nil
}
