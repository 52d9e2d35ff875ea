package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/mahajialirezaei/MachineLearning-PricePrediction/pkg/loader"
)

// ParamGrid lists the forest hyperparameter values to search.
// A MaxDepth of 0 means unlimited depth.
type ParamGrid struct {
	NEstimators     []int `yaml:"n_estimators"`
	MaxDepth        []int `yaml:"max_depth"`
	MinSamplesSplit []int `yaml:"min_samples_split"`
}

// Params is one point of a ParamGrid.
type Params struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
}

func (p Params) String() string {
	depth := "None"
	if p.MaxDepth > 0 {
		depth = strconv.Itoa(p.MaxDepth)
	}
	return fmt.Sprintf("{max_depth: %s, min_samples_split: %d, n_estimators: %d}", depth, p.MinSamplesSplit, p.NEstimators)
}

// Candidates enumerates the grid with max_depth varying slowest and
// n_estimators fastest.
func (g ParamGrid) Candidates() []Params {
	var out []Params
	for _, d := range g.MaxDepth {
		for _, s := range g.MinSamplesSplit {
			for _, n := range g.NEstimators {
				out = append(out, Params{NEstimators: n, MaxDepth: d, MinSamplesSplit: s})
			}
		}
	}
	return out
}

// Validate rejects empty axes and out-of-range values.
func (g ParamGrid) Validate() error {
	if len(g.NEstimators) == 0 || len(g.MaxDepth) == 0 || len(g.MinSamplesSplit) == 0 {
		return errors.New("model: parameter grid has an empty axis")
	}
	for _, n := range g.NEstimators {
		if n < 1 {
			return fmt.Errorf("model: n_estimators must be >= 1, got %d", n)
		}
	}
	for _, d := range g.MaxDepth {
		if d < 0 {
			return fmt.Errorf("model: max_depth must be >= 0, got %d", d)
		}
	}
	for _, s := range g.MinSamplesSplit {
		if s < 2 {
			return fmt.Errorf("model: min_samples_split must be >= 2, got %d", s)
		}
	}
	return nil
}

// CVResult is the cross-validation outcome of one candidate.
type CVResult struct {
	Params     Params
	FoldScores []float64 // negative mean squared error per fold
	MeanScore  float64
	Rank       int
}

// GridSearchCV exhaustively scores every grid candidate with k-fold
// cross-validation on negative mean squared error and refits the best one
// on the full data.
type GridSearchCV struct {
	Grid        ParamGrid
	Folds       int
	NJobs       int   // concurrent candidate/fold fits, 0 => GOMAXPROCS
	RandomState int64 // seed handed to every forest
	MaxFeatures int   // features tried per split, 0 => all
	Bootstrap   bool

	// NewEstimator builds the model for a candidate. Defaults to a random forest.
	NewEstimator func(Params) Regressor

	BestParams    Params
	BestScore     float64
	BestEstimator Regressor
	Results       []CVResult
}

// NewGridSearchCV returns a search over grid with 3 folds and bootstrapped
// forests that consider every feature at each split.
func NewGridSearchCV(grid ParamGrid, seed int64) *GridSearchCV {
	return &GridSearchCV{Grid: grid, Folds: 3, RandomState: seed, Bootstrap: true}
}

func (g *GridSearchCV) estimator(p Params) Regressor {
	if g.NewEstimator != nil {
		return g.NewEstimator(p)
	}
	// The search already runs NJobs fits at once; each forest grows its
	// trees one at a time.
	return NewRandomForestRegressor(
		WithNEstimators(p.NEstimators),
		WithSeed(g.RandomState),
		WithBootstrap(g.Bootstrap),
		WithNJobs(1),
		WithTree(
			WithMaxDepth(p.MaxDepth),
			WithMinSamplesSplit(p.MinSamplesSplit),
			WithMaxFeatures(g.MaxFeatures),
		),
	)
}

// Fit runs the search. Folds are contiguous, unshuffled blocks of rows.
// Ties on mean score go to the earlier candidate.
func (g *GridSearchCV) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if _, err := checkXY(X, y); err != nil {
		return err
	}
	if err := g.Grid.Validate(); err != nil {
		return err
	}
	folds, err := loader.KFoldSplit(len(X), g.Folds, nil)
	if err != nil {
		return fmt.Errorf("model: %w", err)
	}

	cands := g.Grid.Candidates()
	results := make([]CVResult, len(cands))
	for c, p := range cands {
		results[c] = CVResult{Params: p, FoldScores: make([]float64, len(folds))}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	limit := g.NJobs
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	eg.SetLimit(limit)
	for c := range cands {
		for k, fold := range folds {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				Xtr, ytr := loader.Take(X, y, loader.Complement(len(X), fold))
				Xte, yte := loader.Take(X, y, fold)
				est := g.estimator(cands[c])
				if err := est.Fit(Xtr, ytr); err != nil {
					return fmt.Errorf("model: fit %v fold %d: %w", cands[c], k, err)
				}
				pred, err := est.Predict(Xte)
				if err != nil {
					return fmt.Errorf("model: predict %v fold %d: %w", cands[c], k, err)
				}
				results[c].FoldScores[k] = -MSE(yte, pred)
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	best := 0
	for c := range results {
		s := 0.0
		for _, v := range results[c].FoldScores {
			s += v
		}
		results[c].MeanScore = s / float64(len(folds))
		if results[c].MeanScore > results[best].MeanScore || math.IsNaN(results[best].MeanScore) {
			best = c
		}
	}
	for c := range results {
		rank := 1
		for o := range results {
			if results[o].MeanScore > results[c].MeanScore {
				rank++
			}
		}
		results[c].Rank = rank
	}
	g.Results = results
	g.BestParams = results[best].Params
	g.BestScore = results[best].MeanScore

	if err := ctx.Err(); err != nil {
		return err
	}
	est := g.estimator(g.BestParams)
	if rf, ok := est.(*RandomForestRegressor); ok {
		rf.NJobs = g.NJobs
	}
	if err := est.Fit(X, y); err != nil {
		return fmt.Errorf("model: refit %v: %w", g.BestParams, err)
	}
	g.BestEstimator = est
	return nil
}
