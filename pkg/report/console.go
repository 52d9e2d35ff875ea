package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gonum.org/v1/gonum/mat"

	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/data"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/dataprep"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/model"
)

// Importance pairs a feature with its importance score.
type Importance struct {
	Feature string
	Value   float64
}

// RankImportances pairs names with values and sorts them by descending
// importance, keeping input order among equal values.
func RankImportances(names []string, values []float64) []Importance {
	out := make([]Importance, len(names))
	for i, n := range names {
		out[i] = Importance{Feature: n, Value: values[i]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Value > out[b].Value })
	return out
}

func newTable(headers ...string) *table.Table {
	return table.New().Border(lipgloss.NormalBorder()).Headers(headers...)
}

func render(w io.Writer, t *table.Table) error {
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func num(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }

// Preview prints the first n rows of f under a title.
func Preview(w io.Writer, title string, f *data.Frame, n int) error {
	h := f.Head(n)
	if title != "" {
		fmt.Fprintln(w, title)
	}
	cols := h.Columns()
	t := newTable(append([]string{""}, cols...)...)
	for i := 0; i < h.Rows(); i++ {
		row := make([]string, 0, len(cols)+1)
		row = append(row, strconv.Itoa(i))
		for _, c := range cols {
			row = append(row, h.Cell(i, c))
		}
		t.Row(row...)
	}
	if err := render(w, t); err != nil {
		return err
	}
	fmt.Fprintf(w, "[%d rows x %d columns]\n", f.Rows(), f.Width())
	return nil
}

// Correlations prints correlations with the target, highest first.
func Correlations(w io.Writer, target string, cs []dataprep.Correlation) error {
	fmt.Fprintln(w, "Correlation Matrix:")
	t := newTable("Feature", target)
	for _, c := range dataprep.SortedByR(cs) {
		t.Row(c.Feature, num(c.R))
	}
	if err := render(w, t); err != nil {
		return err
	}
	fmt.Fprintf(w, "Name: %s\n", target)
	return nil
}

// Covariance prints a labelled covariance matrix.
func Covariance(w io.Writer, names []string, cov *mat.SymDense) error {
	fmt.Fprintln(w, "Covariance Matrix:")
	if cov == nil {
		fmt.Fprintln(w, "(not enough rows)")
		return nil
	}
	t := newTable(append([]string{""}, names...)...)
	for i, n := range names {
		row := make([]string, 0, len(names)+1)
		row = append(row, n)
		for j := range names {
			row = append(row, num(cov.At(i, j)))
		}
		t.Row(row...)
	}
	return render(w, t)
}

// BestParams prints the winning grid candidate.
func BestParams(w io.Writer, p model.Params, score float64) {
	fmt.Fprintf(w, "Best Model Found: %s (mean CV score %s)\n", p, num(score))
}

// Metrics prints training-set error metrics.
func Metrics(w io.Writer, mse, mae, r2 float64) {
	fmt.Fprintf(w, "Mean Squared Error on Training Data: %v\n", mse)
	fmt.Fprintf(w, "Mean Absolute Error on Training Data: %v\n", mae)
	fmt.Fprintf(w, "R-squared on Training Data: %v\n", r2)
}

// Importances prints the ranked feature-importance table.
func Importances(w io.Writer, imps []Importance) error {
	fmt.Fprintln(w, "\nFeature Importance:")
	t := newTable("", "Feature", "Importance")
	for i, im := range imps {
		t.Row(strconv.Itoa(i), im.Feature, num(im.Value))
	}
	return render(w, t)
}

// Predictions prints the predicted values.
func Predictions(w io.Writer, preds []float64) {
	fmt.Fprintln(w, "\nPredicted Prices on Test Data:")
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = num(p)
	}
	fmt.Fprintf(w, "[%s]\n", strings.Join(parts, " "))
}
