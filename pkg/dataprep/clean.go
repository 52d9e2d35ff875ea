package dataprep

import (
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/data"
)

// CleanReport summarizes what Clean changed.
type CleanReport struct {
	DroppedID bool
	Filled    map[string]float64
	Remaining map[string]int
}

// Clean drops the identifier column when present and imputes numeric gaps
// using statistics of f itself.
func Clean(f *data.Frame, idColumn string, strategy Strategy) CleanReport {
	r := CleanReport{}
	if idColumn != "" {
		r.DroppedID = f.DropIfPresent(idColumn)
	}
	r.Filled = Impute(f, strategy)
	r.Remaining = MissingCounts(f, data.Numeric)
	return r
}

// MissingCounts returns the number of missing cells per column of the
// given kind, omitting complete columns.
func MissingCounts(f *data.Frame, kind data.Kind) map[string]int {
	out := map[string]int{}
	for i := 0; i < f.Width(); i++ {
		c := f.ColumnAt(i)
		if c.Kind != kind {
			continue
		}
		n := 0
		for j := 0; j < c.Len(); j++ {
			if c.IsMissing(j) {
				n++
			}
		}
		if n > 0 {
			out[c.Name] = n
		}
	}
	return out
}
