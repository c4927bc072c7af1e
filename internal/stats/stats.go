package stats

import (
	"math"
	"sort"
)

// Present returns the non-NaN values of xs in their original order.
func Present(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// Median returns the median of the non-NaN values, averaging the two middle
// values for even counts. NaN when nothing is present.
func Median(xs []float64) float64 {
	cp := Present(xs)
	if len(cp) == 0 {
		return math.NaN()
	}
	sort.Float64s(cp)
	return Quantile(cp, 0.5)
}

// MedianMAD computes median and MAD (median absolute deviation) of values.
func MedianMAD(vals []float64) (median, mad float64) {
	cp := Present(vals)
	if len(cp) == 0 {
		return 0, 0
	}
	sort.Float64s(cp)
	median = Quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = Quantile(dev, 0.5)
	return
}

// Quantile interpolates linearly between the closest ranks of a sorted slice.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
