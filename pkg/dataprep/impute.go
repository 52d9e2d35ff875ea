package dataprep

import (
	"fmt"
	"math"

	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/data"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/stats"
)

// Strategy names the statistic used to fill numeric gaps.
type Strategy string

const (
	Mean   Strategy = "mean"
	Median Strategy = "median"
	Mode   Strategy = "mode"
)

// ParseStrategy validates a strategy name. The empty string means Mean.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", Mean:
		return Mean, nil
	case Median, Mode:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("dataprep: unknown imputation strategy %q", s)
}

func (s Strategy) statistic() func([]float64) float64 {
	switch s {
	case Median:
		return stats.Median
	case Mode:
		return stats.Mode
	default:
		return stats.Mean
	}
}

// Impute fills missing cells of every numeric column in place with a
// statistic of that column's own observed values. Categorical columns are
// left alone. A column with no observed values keeps its gaps.
// It returns the fill value used per column that had gaps.
func Impute(f *data.Frame, strategy Strategy) map[string]float64 {
	fn := strategy.statistic()
	filled := map[string]float64{}
	for _, c := range f.NumericColumns() {
		observed := make([]float64, 0, len(c.Num))
		gaps := 0
		for _, v := range c.Num {
			if math.IsNaN(v) {
				gaps++
				continue
			}
			observed = append(observed, v)
		}
		if gaps == 0 {
			continue
		}
		fill := math.NaN()
		if len(observed) > 0 {
			fill = fn(observed)
		}
		filled[c.Name] = fill
		if math.IsNaN(fill) {
			continue
		}
		for i, v := range c.Num {
			if math.IsNaN(v) {
				c.Num[i] = fill
			}
		}
	}
	return filled
}

// ImputeMean is Impute with the Mean strategy.
func ImputeMean(f *data.Frame) map[string]float64 { return Impute(f, Mean) }
