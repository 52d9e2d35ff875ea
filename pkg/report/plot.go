package report

import (
	"errors"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var errNoData = errors.New("report: nothing to plot")

// ChartSize is the saved image size in inches.
type ChartSize struct {
	Width  float64
	Height float64
}

// DefaultChartSize matches a 10x6 inch figure.
var DefaultChartSize = ChartSize{Width: 10, Height: 6}

func barWidth(n int, size ChartSize) vg.Length {
	w := size.Width * 72 * 0.8 / float64(n)
	return vg.Points(math.Max(0.5, math.Min(w*0.8, 40)))
}

// ImportanceChart saves a bar chart of ranked feature importances.
func ImportanceChart(path string, imps []Importance, size ChartSize) error {
	if len(imps) == 0 {
		return errNoData
	}
	p := plot.New()
	p.Title.Text = "Feature Importance"
	p.X.Label.Text = "Features"
	p.Y.Label.Text = "Importance"

	vals := make(plotter.Values, len(imps))
	names := make([]string, len(imps))
	for i, im := range imps {
		vals[i] = im.Value
		names[i] = im.Feature
	}
	bars, err := plotter.NewBarChart(vals, barWidth(len(imps), size))
	if err != nil {
		return err
	}
	bars.Color = color.NRGBA{G: 128, A: 178}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	return p.Save(vg.Length(size.Width)*vg.Inch, vg.Length(size.Height)*vg.Inch, path)
}

// PredictionChart saves a bar chart of predicted prices by test row.
func PredictionChart(path string, preds []float64, size ChartSize) error {
	if len(preds) == 0 {
		return errNoData
	}
	p := plot.New()
	p.Title.Text = "Predicted Sale Prices"
	p.X.Label.Text = "Test Data Index"
	p.Y.Label.Text = "Sale Price"

	bars, err := plotter.NewBarChart(plotter.Values(preds), barWidth(len(preds), size))
	if err != nil {
		return err
	}
	bars.Color = color.NRGBA{B: 255, A: 178}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.Legend.Add("Predicted Prices", bars)
	p.Legend.Top = true

	return p.Save(vg.Length(size.Width)*vg.Inch, vg.Length(size.Height)*vg.Inch, path)
}

// IsNoData reports whether a chart was skipped for lack of values.
func IsNoData(err error) bool { return errors.Is(err, errNoData) }
