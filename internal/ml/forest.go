package ml

import (
	"context"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// RandomForestRegressor averages bagged regression trees.
type RandomForestRegressor struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Bootstrap       bool
	RandomState     int64
	// Workers bounds concurrent tree fitting; 0 uses GOMAXPROCS.
	Workers int

	trees []*DecisionTreeRegressor
}

// ForestOption configures a RandomForestRegressor.
type ForestOption func(*RandomForestRegressor)

func WithNEstimators(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.NEstimators = n }
}
func WithForestMaxDepth(d int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxDepth = d }
}
func WithBootstrap(b bool) ForestOption {
	return func(rf *RandomForestRegressor) { rf.Bootstrap = b }
}
func WithSeed(seed int64) ForestOption {
	return func(rf *RandomForestRegressor) { rf.RandomState = seed }
}
func WithWorkers(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.Workers = n }
}

// NewRandomForestRegressor initializes the forest with sensible defaults.
func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(rf)
	}
	if rf.NEstimators < 1 {
		rf.NEstimators = 1
	}
	return rf
}

// Fit trains every tree on its own bootstrap sample. Tree i draws from a
// source seeded with RandomState+i, so results do not depend on scheduling.
func (rf *RandomForestRegressor) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	n := len(X)
	trees := make([]*DecisionTreeRegressor, rf.NEstimators)

	workers := rf.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			seed := rf.RandomState + int64(i)
			rng := rand.New(rand.NewSource(seed))
			sample := make([]int, n)
			for j := range sample {
				if rf.Bootstrap {
					sample[j] = rng.Intn(n)
				} else {
					sample[j] = j
				}
			}
			tree := NewDecisionTreeRegressor(
				WithMaxDepth(rf.MaxDepth),
				WithMinSamplesSplit(rf.MinSamplesSplit),
				WithMinSamplesLeaf(rf.MinSamplesLeaf),
				WithRandomState(seed),
			)
			tree.fitIndices(X, y, sample)
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	rf.trees = trees
	return nil
}

// Predict returns the mean of all tree predictions per row.
func (rf *RandomForestRegressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(rf.trees) == 0 {
		return out
	}
	for i, row := range X {
		var s float64
		for _, t := range rf.trees {
			s += t.predictRow(row)
		}
		out[i] = s / float64(len(rf.trees))
	}
	return out
}
