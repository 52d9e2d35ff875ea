package model

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeRegressor is a CART-style regression tree grown on squared error.
type DecisionTreeRegressor struct {
	// Hyperparameters / options
	MaxDepth        int   // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit int   // minimum samples to attempt a split
	MinSamplesLeaf  int   // minimum samples required in each leaf
	MaxFeatures     int   // 0 => use all features, >0 => number of features to sample per split
	RandomState     int64 // seed for feature subsampling

	// internals
	root        *dtNode
	nFeatures   int
	nodes       int
	importances []float64
}

// dtNode holds a node in the tree.
type dtNode struct {
	isLeaf    bool
	feature   int
	threshold float64 // x <= threshold => left
	left      *dtNode
	right     *dtNode

	n     int
	value float64 // mean target of the samples reaching this node
	sse   float64 // sum of squared deviations from value
}

// TreeOption functional config
type TreeOption func(*DecisionTreeRegressor)

func WithMaxDepth(d int) TreeOption { return func(t *DecisionTreeRegressor) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}
func WithMaxFeatures(k int) TreeOption { return func(t *DecisionTreeRegressor) { t.MaxFeatures = k } }
func WithRandomState(seed int64) TreeOption {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

// NewDecisionTreeRegressor returns a tree with sensible defaults.
func NewDecisionTreeRegressor(opts ...TreeOption) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// ---------------------------
// Public API
// ---------------------------

// Fit grows the tree on X (n x p) and targets y.
func (t *DecisionTreeRegressor) Fit(X [][]float64, y []float64) error {
	p, err := checkXY(X, y)
	if err != nil {
		return err
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	t.fitIndices(X, y, idx, p)
	return nil
}

// Predict returns the leaf mean reached by each row.
func (t *DecisionTreeRegressor) Predict(X [][]float64) ([]float64, error) {
	if t.root == nil {
		return nil, ErrNotFitted
	}
	if err := checkX(X, t.nFeatures); err != nil {
		return nil, err
	}
	return t.predictRows(X), nil
}

// FeatureImportances returns the normalized total squared-error reduction
// contributed by each feature.
func (t *DecisionTreeRegressor) FeatureImportances() []float64 {
	return append([]float64(nil), t.importances...)
}

// NodeCount returns the number of nodes of the fitted tree.
func (t *DecisionTreeRegressor) NodeCount() int { return t.nodes }

// Depth returns the depth of the deepest leaf.
func (t *DecisionTreeRegressor) Depth() int { return nodeDepth(t.root) }

// ---------------------------
// Internal builders & helpers
// ---------------------------

// parallelSplitMin is the node size from which features are scanned concurrently.
const parallelSplitMin = 2048

// splitResult holds the best split found for one feature.
type splitResult struct {
	gain      float64
	feature   int
	threshold float64
	found     bool
}

// pair is a named type for a value and its original index.
type pair struct {
	v float64
	i int
}

// fitIndices grows the tree on the rows listed in idx, which may repeat
// (bootstrap samples).
func (t *DecisionTreeRegressor) fitIndices(X [][]float64, y []float64, idx []int, p int) {
	t.nFeatures = p
	t.nodes = 0
	t.importances = make([]float64, p)
	rnd := rand.New(rand.NewSource(t.RandomState))

	t.root = t.buildNode(X, y, idx, 0, p, rnd, float64(len(idx)))

	total := 0.0
	for _, v := range t.importances {
		total += v
	}
	if total > 0 {
		for j := range t.importances {
			t.importances[j] /= total
		}
	}
}

func (t *DecisionTreeRegressor) buildNode(X [][]float64, y []float64, idx []int, depth, p int, rnd *rand.Rand, total float64) *dtNode {
	t.nodes++
	node := &dtNode{n: len(idx)}
	node.value, node.sse = meanSSE(y, idx)

	// make leaf if pure, too few samples or depth reached
	if node.sse <= 0 || len(idx) < t.MinSamplesSplit || len(idx) < 2*max(t.MinSamplesLeaf, 1) {
		node.isLeaf = true
		return node
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		node.isLeaf = true
		return node
	}

	// determine features to try
	featIndices := make([]int, p)
	for j := 0; j < p; j++ {
		featIndices[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		for i := 0; i < t.MaxFeatures; i++ {
			j := i + rnd.Intn(p-i)
			featIndices[i], featIndices[j] = featIndices[j], featIndices[i]
		}
		featIndices = featIndices[:t.MaxFeatures]
	}

	results := make([]splitResult, len(featIndices))
	if len(idx) >= parallelSplitMin && len(featIndices) > 1 {
		var wg sync.WaitGroup
		for k, f := range featIndices {
			wg.Add(1)
			go func(k, f int) {
				defer wg.Done()
				results[k] = t.findBestSplitForFeature(X, y, idx, f)
			}(k, f)
		}
		wg.Wait()
	} else {
		for k, f := range featIndices {
			results[k] = t.findBestSplitForFeature(X, y, idx, f)
		}
	}

	// first feature wins ties so the tree does not depend on scheduling
	best := splitResult{gain: math.Inf(-1)}
	for _, r := range results {
		if r.found && r.gain > best.gain {
			best = r
		}
	}
	if !best.found {
		node.isLeaf = true
		return node
	}

	leftIdx := make([]int, 0, len(idx))
	rightIdx := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][best.feature] <= best.threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	node.feature = best.feature
	node.threshold = best.threshold
	node.left = t.buildNode(X, y, leftIdx, depth+1, p, rnd, total)
	node.right = t.buildNode(X, y, rightIdx, depth+1, p, rnd, total)

	decrease := node.sse - node.left.sse - node.right.sse
	if decrease > 0 {
		t.importances[best.feature] += decrease / total
	}
	return node
}

// findBestSplitForFeature scans the sorted values of feature f and returns
// the threshold maximizing the squared-error reduction. It only reads shared
// state and is safe to run concurrently.
func (t *DecisionTreeRegressor) findBestSplitForFeature(X [][]float64, y []float64, idx []int, f int) splitResult {
	result := splitResult{feature: f, gain: math.Inf(-1)}
	n := len(idx)
	minLeaf := max(t.MinSamplesLeaf, 1)

	vals := make([]pair, n)
	sum := 0.0
	for k, i := range idx {
		vals[k] = pair{X[i][f], i}
		sum += y[i]
	}
	sort.Slice(vals, func(a, b int) bool { return vals[a].v < vals[b].v })
	if vals[0].v == vals[n-1].v {
		return result
	}

	// maximizing sumL²/nL + sumR²/nR minimizes the children's squared error
	base := sum * sum / float64(n)
	leftSum := 0.0
	for s := 1; s < n; s++ {
		leftSum += y[vals[s-1].i]
		if vals[s].v == vals[s-1].v {
			continue
		}
		nl, nr := s, n-s
		if nl < minLeaf || nr < minLeaf {
			continue
		}
		rightSum := sum - leftSum
		proxy := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr)
		gain := proxy - base
		if !result.found || gain > result.gain {
			thr := (vals[s-1].v + vals[s].v) / 2.0
			if thr >= vals[s].v || math.IsInf(thr, 0) {
				thr = vals[s-1].v
			}
			result = splitResult{gain: gain, feature: f, threshold: thr, found: true}
		}
	}
	return result
}

// meanSSE returns the mean of y over idx and the sum of squared deviations.
func meanSSE(y []float64, idx []int) (float64, float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, i := range idx {
		mean += y[i]
	}
	mean /= float64(len(idx))
	sse := 0.0
	for _, i := range idx {
		d := y[i] - mean
		sse += d * d
	}
	return mean, sse
}

func (t *DecisionTreeRegressor) predictRows(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		node := t.root
		for !node.isLeaf {
			if x[node.feature] <= node.threshold {
				node = node.left
			} else {
				node = node.right
			}
		}
		out[i] = node.value
	}
	return out
}

func nodeDepth(n *dtNode) int {
	if n == nil || n.isLeaf {
		return 0
	}
	return 1 + max(nodeDepth(n.left), nodeDepth(n.right))
}
