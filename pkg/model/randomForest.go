package model

import (
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// RandomForestRegressor averages regression trees grown on bootstrap samples.
type RandomForestRegressor struct {
	// Hyperparameters / options
	NEstimators int
	Bootstrap   bool
	RandomState int64
	NJobs       int // concurrent tree fits, 0 => GOMAXPROCS
	TreeOptions []TreeOption

	// Internal state
	Trees     []*DecisionTreeRegressor
	nFeatures int
}

// ForestOption functional config for RandomForestRegressor
type ForestOption func(*RandomForestRegressor)

func WithNEstimators(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.NEstimators = n }
}
func WithBootstrap(b bool) ForestOption { return func(rf *RandomForestRegressor) { rf.Bootstrap = b } }
func WithNJobs(n int) ForestOption      { return func(rf *RandomForestRegressor) { rf.NJobs = n } }
func WithSeed(seed int64) ForestOption {
	return func(rf *RandomForestRegressor) { rf.RandomState = seed }
}

// WithTree applies opts to every tree of the forest.
func WithTree(opts ...TreeOption) ForestOption {
	return func(rf *RandomForestRegressor) { rf.TreeOptions = append(rf.TreeOptions, opts...) }
}

// NewRandomForestRegressor initializes the forest with sensible defaults.
func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		NEstimators: 100,
		Bootstrap:   true,
		RandomState: time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

// Fit trains the trees concurrently. Tree i draws its bootstrap sample and
// feature subsets from RandomState+i, so results do not depend on scheduling.
func (rf *RandomForestRegressor) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	if rf.NEstimators < 1 {
		return errEstimators
	}
	n := len(X)
	rf.nFeatures = p
	rf.Trees = make([]*DecisionTreeRegressor, rf.NEstimators)

	var g errgroup.Group
	g.SetLimit(rf.jobs())
	for i := 0; i < rf.NEstimators; i++ {
		g.Go(func() error {
			seed := rf.RandomState + int64(i)
			treeRand := rand.New(rand.NewSource(seed))

			// Bootstrap sampling: an index slice, not a copy of the data.
			sampleIndices := make([]int, n)
			for j := 0; j < n; j++ {
				if rf.Bootstrap {
					sampleIndices[j] = treeRand.Intn(n)
				} else {
					sampleIndices[j] = j
				}
			}

			opts := append(append([]TreeOption(nil), rf.TreeOptions...), WithRandomState(seed))
			tree := NewDecisionTreeRegressor(opts...)
			tree.fitIndices(X, y, sampleIndices, p)
			rf.Trees[i] = tree
			return nil
		})
	}
	return g.Wait()
}

// Predict returns the mean of all tree predictions.
func (rf *RandomForestRegressor) Predict(X [][]float64) ([]float64, error) {
	if len(rf.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkX(X, rf.nFeatures); err != nil {
		return nil, err
	}

	allPreds := make([][]float64, len(rf.Trees))
	var g errgroup.Group
	g.SetLimit(rf.jobs())
	for k, tree := range rf.Trees {
		g.Go(func() error {
			allPreds[k] = tree.predictRows(X)
			return nil
		})
	}
	_ = g.Wait()

	// summed in tree order to keep results bit-for-bit reproducible
	out := make([]float64, len(X))
	for _, preds := range allPreds {
		floats.Add(out, preds)
	}
	floats.Scale(1/float64(len(rf.Trees)), out)
	return out, nil
}

func (rf *RandomForestRegressor) jobs() int {
	if rf.NJobs > 0 {
		return rf.NJobs
	}
	return runtime.GOMAXPROCS(0)
}

// FeatureImportances averages the importances of trees that split at least
// once and renormalizes them to sum to 1.
func (rf *RandomForestRegressor) FeatureImportances() []float64 {
	out := make([]float64, rf.nFeatures)
	used := 0
	for _, t := range rf.Trees {
		if t == nil || t.NodeCount() <= 1 {
			continue
		}
		floats.Add(out, t.importances)
		used++
	}
	if used == 0 {
		return out
	}
	if s := floats.Sum(out); s > 0 {
		floats.Scale(1/s, out)
	}
	return out
}
