package ml_test

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/salesprep-cli/internal/ml"
)

func TestDecisionTreeLearnsStep(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{0, 0, 10, 10}
	tree := ml.NewDecisionTreeRegressor(ml.WithRandomState(1))
	require.NoError(t, tree.Fit(context.Background(), X, y))
	assert.Equal(t, []float64{0, 10, 10}, tree.Predict([][]float64{{1.5}, {3.5}, {100}}))
}

func TestDecisionTreeMaxDepth(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{0, 2, 4, 6}
	tree := ml.NewDecisionTreeRegressor(ml.WithMaxDepth(1))
	require.NoError(t, tree.Fit(context.Background(), X, y))
	assert.Equal(t, []float64{1, 5}, tree.Predict([][]float64{{1}, {4}}))
}

func TestRandomForestIsReproducible(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	X := make([][]float64, 60)
	y := make([]float64, 60)
	for i := range X {
		a, b := rng.Float64()*10, rng.Float64()*10
		X[i] = []float64{a, b}
		y[i] = 3*a - b
	}
	fit := func() []float64 {
		rf := ml.NewRandomForestRegressor(ml.WithNEstimators(20), ml.WithSeed(42), ml.WithWorkers(4))
		require.NoError(t, rf.Fit(context.Background(), X, y))
		return rf.Predict(X[:10])
	}
	first, second := fit(), fit()
	assert.Equal(t, first, second)
	assert.Less(t, ml.MSE(y[:10], first), 10.0)
}

func TestRandomForestHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rf := ml.NewRandomForestRegressor(ml.WithNEstimators(5), ml.WithSeed(1))
	err := rf.Fit(ctx, [][]float64{{1}, {2}}, []float64{1, 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKNNRegressorAveragesNeighbours(t *testing.T) {
	knn := ml.NewKNNRegressor(2)
	require.NoError(t, knn.Fit(context.Background(), [][]float64{{0}, {1}, {10}}, []float64{0, 2, 100}))
	assert.Equal(t, []float64{1, 51}, knn.Predict([][]float64{{0.2}, {9}}))

	wide := ml.NewKNNRegressor(5)
	require.NoError(t, wide.Fit(context.Background(), [][]float64{{0}, {1}}, []float64{4, 6}))
	assert.Equal(t, []float64{5}, wide.Predict([][]float64{{0}}), "k is capped at the training size")
}

func TestFitRejectsBadShapes(t *testing.T) {
	knn := ml.NewKNNRegressor(1)
	assert.ErrorIs(t, knn.Fit(context.Background(), nil, nil), ml.ErrEmptyTrainingSet)
	assert.ErrorIs(t, knn.Fit(context.Background(), [][]float64{{1}}, []float64{1, 2}), ml.ErrShapeMismatch)
	tree := ml.NewDecisionTreeRegressor()
	assert.ErrorIs(t, tree.Fit(context.Background(), [][]float64{{1}, {1, 2}}, []float64{1, 2}), ml.ErrShapeMismatch)
}

func TestTrainTestSplit(t *testing.T) {
	train, test := ml.TrainTestSplit(10, 0.2, 42)
	assert.Len(t, test, 2)
	assert.Len(t, train, 8)

	all := append(append([]int{}, train...), test...)
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, all)

	train2, test2 := ml.TrainTestSplit(10, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	train, test = ml.TrainTestSplit(3, 0.2, 42)
	assert.Len(t, test, 1, "ceil(0.6) rows go to test")
	assert.Len(t, train, 2)

	train, test = ml.TrainTestSplit(1, 0.2, 42)
	assert.Len(t, train, 1)
	assert.Empty(t, test)
}

func TestMSE(t *testing.T) {
	assert.InDelta(t, 2.5, ml.MSE([]float64{1, 2}, []float64{2, 4}), 1e-12)
	assert.True(t, math.IsNaN(ml.MSE(nil, nil)))
}
