package ml

import (
	"math"
	"math/rand"
)

// TrainTestSplit shuffles row indices 0..n-1 with a seeded source and
// returns ceil(testFraction*n) of them as the test set. At least one row
// stays in the training set whenever n > 0.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int) {
	if n <= 0 {
		return nil, nil
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest < 0 {
		nTest = 0
	}
	if nTest > n-1 {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

// Rows gathers the selected rows of X and y.
func Rows(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}
