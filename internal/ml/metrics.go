package ml

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MSE returns the mean squared error, or NaN for empty or mismatched input.
func MSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return math.NaN()
	}
	d := floats.Distance(yTrue, yPred, 2)
	return d * d / float64(len(yTrue))
}
