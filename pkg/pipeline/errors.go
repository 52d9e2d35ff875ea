package pipeline

import (
	"errors"
	"fmt"
)

// ErrInputMissing is returned, wrapped together with fs.ErrNotExist, when a
// training or test file does not exist.
var ErrInputMissing = errors.New("pipeline: input file missing")

// Stage names a step of a pipeline run.
type Stage string

const (
	StageLoad     Stage = "load"
	StageClean    Stage = "clean"
	StageFeatures Stage = "features"
	StageFit      Stage = "fit"
	StageEvaluate Stage = "evaluate"
	StagePredict  Stage = "predict"
	StageWrite    Stage = "write"
	StagePlot     Stage = "plot"
)

// StageError tags a failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(s Stage, err error) error {
	return &StageError{Stage: s, Err: err}
}
