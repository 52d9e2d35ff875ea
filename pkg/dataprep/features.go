package dataprep

import (
	"fmt"
	"math"
	"sort"

	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/data"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/stats"
)

// Log1p applies log(1+x) to each value.
func Log1p(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Log1p(v)
	}
	return out
}

// Expm1 applies exp(x)-1 to each value, inverting Log1p.
func Expm1(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Expm1(v)
	}
	return out
}

// Correlation is a column's Pearson correlation with a target.
type Correlation struct {
	Feature string
	R       float64
}

// Correlations computes the correlation of every numeric column of f,
// target included, against target. Entries follow frame column order.
func Correlations(f *data.Frame, target string) ([]Correlation, error) {
	y, err := f.Floats(target)
	if err != nil {
		return nil, fmt.Errorf("dataprep: target: %w", err)
	}
	cols := f.NumericColumns()
	out := make([]Correlation, 0, len(cols))
	for _, c := range cols {
		out = append(out, Correlation{Feature: c.Name, R: pairwiseCorrelation(c.Num, y)})
	}
	return out, nil
}

// pairwiseCorrelation ignores rows where either side is missing.
func pairwiseCorrelation(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return stats.Correlation(xs, ys)
}

// SortedByR returns a copy of cs ordered by descending correlation, NaN last.
func SortedByR(cs []Correlation) []Correlation {
	out := append([]Correlation(nil), cs...)
	sort.SliceStable(out, func(a, b int) bool {
		ra, rb := out[a].R, out[b].R
		if math.IsNaN(rb) {
			return !math.IsNaN(ra)
		}
		return ra > rb
	})
	return out
}

// SelectByCorrelation returns, in frame order, the numeric columns whose
// absolute correlation with target is strictly above threshold. The target
// itself is never selected.
func SelectByCorrelation(f *data.Frame, target string, threshold float64) ([]string, error) {
	cs, err := Correlations(f, target)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, c := range cs {
		if c.Feature == target {
			continue
		}
		if math.Abs(c.R) > threshold {
			out = append(out, c.Feature)
		}
	}
	return out, nil
}
