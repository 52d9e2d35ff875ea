package pipeline

import (
	"errors"
	"fmt"

	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/data"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/dataprep"
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/stats"
)

var errNotFitted = errors.New("pipeline: step used before Fit")

// Schema describes the model inputs shared by the train and test tables.
type Schema struct {
	Target       string
	FeatureNames []string
}

// CorrelationSelector keeps the numeric columns whose absolute correlation
// with Target exceeds Threshold.
type CorrelationSelector struct {
	Target    string
	Threshold float64

	Selected []string
	fitted   bool
}

func (s *CorrelationSelector) Fit(train *data.Frame) error {
	sel, err := dataprep.SelectByCorrelation(train, s.Target, s.Threshold)
	if err != nil {
		return err
	}
	s.Selected = sel
	s.fitted = true
	return nil
}

func (s *CorrelationSelector) Transform(f *data.Frame) (*data.Frame, error) {
	if !s.fitted {
		return nil, errNotFitted
	}
	for _, name := range s.Selected {
		c, ok := f.Column(name)
		if !ok {
			return nil, fmt.Errorf("pipeline: selected feature %q: %w", name, data.ErrNoColumn)
		}
		if c.Kind != data.Numeric {
			return nil, fmt.Errorf("pipeline: selected feature %q: %w", name, data.ErrNotNumeric)
		}
	}
	out, err := f.Select(s.Selected...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Standardizer rescales every column with a scaler fitted on training rows.
type Standardizer struct {
	Scaler *stats.StandardScaler
}

func (s *Standardizer) Fit(train *data.Frame) error {
	X, err := train.Matrix(train.Columns()...)
	if err != nil {
		return err
	}
	s.Scaler = stats.NewStandardScaler()
	return s.Scaler.Fit(X)
}

func (s *Standardizer) Transform(f *data.Frame) (*data.Frame, error) {
	if s.Scaler == nil {
		return nil, errNotFitted
	}
	X, err := f.Matrix(f.Columns()...)
	if err != nil {
		return nil, err
	}
	Z, err := s.Scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return fromMatrix(f.Columns(), Z, f.Rows())
}

// DummyEncoder one-hot encodes categoricals and aligns every table to the
// training feature columns, the target excluded.
type DummyEncoder struct {
	Target    string
	DropFirst bool

	Columns []string
}

func (e *DummyEncoder) Fit(train *data.Frame) error {
	enc := dataprep.GetDummies(train, e.DropFirst)
	cols := []string{}
	for _, name := range enc.Columns() {
		if name != e.Target {
			cols = append(cols, name)
		}
	}
	e.Columns = cols
	return nil
}

func (e *DummyEncoder) Transform(f *data.Frame) (*data.Frame, error) {
	if e.Columns == nil {
		return nil, errNotFitted
	}
	return dataprep.Reindex(dataprep.GetDummies(f, e.DropFirst), e.Columns, 0), nil
}

func fromMatrix(names []string, X [][]float64, rows int) (*data.Frame, error) {
	out := data.NewFrame(rows)
	for j, name := range names {
		col := make([]float64, rows)
		for i := range X {
			col[i] = X[i][j]
		}
		if err := out.AddNumeric(name, col); err != nil {
			return nil, err
		}
	}
	return out, nil
}
