package ml

import (
	"context"
	"runtime"
	"sort"
	"sync"
)

// KNNRegressor predicts the unweighted mean target of the K nearest
// training rows by Euclidean distance. Equal distances keep training order.
type KNNRegressor struct {
	K int
	X [][]float64
	y []float64
}

// NewKNNRegressor creates and returns a new KNN model.
func NewKNNRegressor(k int) *KNNRegressor {
	if k < 1 {
		k = 1
	}
	return &KNNRegressor{K: k}
}

// Fit stores the training data.
func (m *KNNRegressor) Fit(_ context.Context, X [][]float64, y []float64) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	m.X = X
	m.y = y
	return nil
}

// Predict spreads rows across GOMAXPROCS workers.
func (m *KNNRegressor) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(X) == 0 || len(m.X) == 0 {
		return out
	}
	workers := runtime.GOMAXPROCS(0)
	per := (len(X) + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * per
		end := min(start+per, len(X))
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				out[i] = m.predictRow(X[i])
			}
		}(start, end)
	}
	wg.Wait()
	return out
}

func (m *KNNRegressor) predictRow(xi []float64) float64 {
	type nbr struct {
		d float64
		v float64
	}
	all := make([]nbr, len(m.X))
	for j, xj := range m.X {
		all[j] = nbr{d: euclidSquared(xi, xj), v: m.y[j]}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].d < all[b].d })
	k := min(m.K, len(all))
	var sum float64
	for _, p := range all[:k] {
		sum += p.v
	}
	return sum / float64(k)
}

func euclidSquared(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
