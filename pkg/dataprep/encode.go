package dataprep

import (
	"sort"

	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/data"
)

// levels returns the sorted distinct observed values of a categorical column.
func levels(c *data.Column) []string {
	seen := map[string]struct{}{}
	var out []string
	for i, v := range c.Str {
		if c.Missing[i] {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// GetDummies one-hot encodes every categorical column into 0/1 columns named
// "<column>_<level>". With dropFirst the lowest level of each column is
// omitted. Missing cells encode as all zeros. Numeric columns come first in
// their original order, followed by the dummy columns. A generated name
// that is already taken gets a ".1", ".2", ... suffix.
func GetDummies(f *data.Frame, dropFirst bool) *data.Frame {
	out := data.NewFrame(f.Rows())
	for _, c := range f.NumericColumns() {
		_ = out.AddNumeric(c.Name, append([]float64(nil), c.Num...))
	}
	for _, c := range f.CategoricalColumns() {
		lv := levels(c)
		if dropFirst && len(lv) > 0 {
			lv = lv[1:]
		}
		for _, l := range lv {
			vals := make([]float64, f.Rows())
			for i, v := range c.Str {
				if !c.Missing[i] && v == l {
					vals[i] = 1
				}
			}
			_ = out.AddNumeric(out.FreeName(c.Name+"_"+l), vals)
		}
	}
	return out
}

// Reindex returns a copy of f holding exactly columns, in order. Columns f
// lacks are created as numeric columns filled with fill; columns not listed
// are dropped.
func Reindex(f *data.Frame, columns []string, fill float64) *data.Frame {
	out := data.NewFrame(f.Rows())
	for _, name := range columns {
		if f.Has(name) {
			sel, _ := f.Select(name)
			_ = out.Add(sel.ColumnAt(0))
			continue
		}
		vals := make([]float64, f.Rows())
		for i := range vals {
			vals[i] = fill
		}
		_ = out.AddNumeric(name, vals)
	}
	return out
}
