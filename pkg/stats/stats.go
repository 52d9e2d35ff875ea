package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Mean computes the average of a slice. Empty input yields NaN.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// Variance computes the population variance (divides by n).
func Variance(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return 0
	}
	return stat.Variance(x, nil) * float64(n-1) / float64(n)
}

// Std computes the population standard deviation.
func Std(x []float64) float64 {
	return math.Sqrt(Variance(x))
}

// Median returns the median value of the slice (allocates a copy).
func Median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	cp := make([]float64, n)
	copy(cp, x)
	sort.Float64s(cp)
	mid := n >> 1
	if n&1 == 0 {
		return (cp[mid-1] + cp[mid]) * 0.5
	}
	return cp[mid]
}

// Mode returns the most frequent value; ties go to the smallest value.
func Mode(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	counts := make(map[float64]int)
	for _, v := range x {
		counts[v]++
	}
	mode, best := math.Inf(1), 0
	for v, c := range counts {
		if c > best || (c == best && v < mode) {
			mode, best = v, c
		}
	}
	return mode
}

// Covariance computes the sample covariance (divides by n-1).
func Covariance(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	return stat.Covariance(x, y, nil)
}

// Correlation computes the Pearson correlation coefficient. A constant
// input yields NaN.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// CovarianceMatrix returns the sample covariance matrix of the given
// columns, cols[j] holding the observations of variable j.
func CovarianceMatrix(cols [][]float64) *mat.SymDense {
	if len(cols) == 0 || len(cols[0]) < 2 {
		return nil
	}
	n, p := len(cols[0]), len(cols)
	X := mat.NewDense(n, p, nil)
	for j, col := range cols {
		X.SetCol(j, col)
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, X, nil)
	return &cov
}
