package loader

import (
	"fmt"
	"math/rand"
)

// KFoldSplit partitions n row indices into k folds. Without a random source
// the folds are contiguous blocks in row order; the first n%k folds hold one
// extra row. With rnd the indices are permuted first.
func KFoldSplit(n, k int, rnd *rand.Rand) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("loader: k must be at least 2, got %d", k)
	}
	if n < k {
		return nil, fmt.Errorf("loader: cannot split %d rows into %d folds", n, k)
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if rnd != nil {
		rnd.Shuffle(n, func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
	}
	folds := make([][]int, k)
	start := 0
	for f := range k {
		size := n / k
		if f < n%k {
			size++
		}
		folds[f] = indices[start : start+size]
		start += size
	}
	return folds, nil
}

// Complement returns the indices in [0, n) that are not in fold, in order.
func Complement(n int, fold []int) []int {
	skip := make(map[int]struct{}, len(fold))
	for _, i := range fold {
		skip[i] = struct{}{}
	}
	out := make([]int, 0, n-len(fold))
	for i := range n {
		if _, ok := skip[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}

// Take gathers the rows of X and y at the given indices.
func Take(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	Xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		Xs[i] = X[j]
		ys[i] = y[j]
	}
	return Xs, ys
}
