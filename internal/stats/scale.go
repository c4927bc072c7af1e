package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ZScore holds the fitted parameters of a standard-score transform.
type ZScore struct {
	Mean float64
	Std  float64
}

// FitZScore fits mean and population standard deviation over the non-NaN
// values. A zero spread is replaced by 1 so constant columns map to 0.
func FitZScore(xs []float64) ZScore {
	p := Present(xs)
	if len(p) == 0 {
		return ZScore{Mean: 0, Std: 1}
	}
	mean, variance := stat.PopMeanVariance(p, nil)
	std := math.Sqrt(variance)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}
	return ZScore{Mean: mean, Std: std}
}

// Transform maps x to (x-mean)/std. NaN stays NaN.
func (z ZScore) Transform(x float64) float64 {
	return (x - z.Mean) / z.Std
}

// MinMax holds the fitted bounds of a [0,1] rescaling.
type MinMax struct {
	Min float64
	Max float64
}

// FitMinMax fits the bounds over the non-NaN values.
func FitMinMax(xs []float64) MinMax {
	p := Present(xs)
	if len(p) == 0 {
		return MinMax{}
	}
	return MinMax{Min: floats.Min(p), Max: floats.Max(p)}
}

// Transform maps x into [0,1]. A zero range uses a scale of 1.
func (m MinMax) Transform(x float64) float64 {
	span := m.Max - m.Min
	if span == 0 {
		span = 1
	}
	return (x - m.Min) / span
}
