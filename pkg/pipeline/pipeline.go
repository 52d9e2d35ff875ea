// Package pipeline wires loading, cleaning, feature engineering, model
// fitting and output into the two price-prediction runs.
package pipeline

import (
	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/data"
)

// Step is a frame transformation learned from the training table and
// replayed unchanged on the test table.
type Step interface {
	Fit(train *data.Frame) error
	Transform(f *data.Frame) (*data.Frame, error)
}

// Pipeline chains multiple steps.
type Pipeline struct {
	steps []Step
}

func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// FitTransform fits each step on the output of the previous one.
func (p *Pipeline) FitTransform(train *data.Frame) (*data.Frame, error) {
	f := train
	for _, step := range p.steps {
		if err := step.Fit(f); err != nil {
			return nil, err
		}
		out, err := step.Transform(f)
		if err != nil {
			return nil, err
		}
		f = out
	}
	return f, nil
}

// Transform replays the fitted steps.
func (p *Pipeline) Transform(f *data.Frame) (*data.Frame, error) {
	for _, step := range p.steps {
		out, err := step.Transform(f)
		if err != nil {
			return nil, err
		}
		f = out
	}
	return f, nil
}
