package ml

import (
	"context"
	"math"
	"math/rand"
	"sort"
)

// DecisionTreeRegressor is a CART regression tree that splits on the
// threshold maximising the reduction in squared error.
type DecisionTreeRegressor struct {
	MaxDepth        int // 0 => no limit
	MinSamplesSplit int
	MinSamplesLeaf  int
	RandomState     int64 // orders the feature scan, which decides ties

	root *treeNode
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64 // x <= threshold => left
	left      *treeNode
	right     *treeNode
}

// TreeOption configures a DecisionTreeRegressor.
type TreeOption func(*DecisionTreeRegressor)

func WithMaxDepth(d int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MaxDepth = d }
}
func WithMinSamplesSplit(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}
func WithRandomState(seed int64) TreeOption {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

// NewDecisionTreeRegressor returns a fully grown tree by default.
func NewDecisionTreeRegressor(opts ...TreeOption) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{MinSamplesSplit: 2, MinSamplesLeaf: 1}
	for _, o := range opts {
		o(t)
	}
	if t.MinSamplesSplit < 2 {
		t.MinSamplesSplit = 2
	}
	if t.MinSamplesLeaf < 1 {
		t.MinSamplesLeaf = 1
	}
	return t
}

// Fit grows the tree on all rows.
func (t *DecisionTreeRegressor) Fit(_ context.Context, X [][]float64, y []float64) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	t.fitIndices(X, y, idx)
	return nil
}

// fitIndices grows the tree on the given row indices; repeats are allowed,
// which is how bootstrap samples are passed in.
func (t *DecisionTreeRegressor) fitIndices(X [][]float64, y []float64, idx []int) {
	rng := rand.New(rand.NewSource(t.RandomState))
	t.root = t.build(X, y, idx, 0, rng)
}

func (t *DecisionTreeRegressor) build(X [][]float64, y []float64, idx []int, depth int, rng *rand.Rand) *treeNode {
	n := len(idx)
	var sum, sumSq float64
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	mean := sum / float64(n)
	leaf := &treeNode{leaf: true, value: mean}
	if n < t.MinSamplesSplit || n < 2*t.MinSamplesLeaf {
		return leaf
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return leaf
	}
	if sumSq-sum*mean <= 1e-12*(1+sumSq) {
		return leaf
	}

	width := len(X[idx[0]])
	bestFeature, bestThreshold := -1, 0.0
	bestScore := sum * sum / float64(n)
	sorted := make([]int, n)
	for _, f := range rng.Perm(width) {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })
		var left float64
		for k := 1; k < n; k++ {
			left += y[sorted[k-1]]
			lo, hi := X[sorted[k-1]][f], X[sorted[k]][f]
			if lo == hi || k < t.MinSamplesLeaf || n-k < t.MinSamplesLeaf {
				continue
			}
			right := sum - left
			// maximising this proxy minimises the children's squared error
			score := left*left/float64(k) + right*right/float64(n-k)
			if score > bestScore+1e-12*(1+math.Abs(bestScore)) {
				bestScore = score
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold == hi {
					bestThreshold = lo
				}
			}
		}
	}
	if bestFeature < 0 {
		return leaf
	}

	var li, ri []int
	for _, i := range idx {
		if X[i][bestFeature] <= bestThreshold {
			li = append(li, i)
		} else {
			ri = append(ri, i)
		}
	}
	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      t.build(X, y, li, depth+1, rng),
		right:     t.build(X, y, ri, depth+1, rng),
	}
}

// Predict returns one prediction per row.
func (t *DecisionTreeRegressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = t.predictRow(row)
	}
	return out
}

func (t *DecisionTreeRegressor) predictRow(row []float64) float64 {
	n := t.root
	if n == nil {
		return 0
	}
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}
