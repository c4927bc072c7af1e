package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedianIgnoresNaN(t *testing.T) {
	assert.Equal(t, 150.0, Median([]float64{100, math.NaN(), 200}))
	assert.Equal(t, 100.0, Median([]float64{100}))
	assert.True(t, math.IsNaN(Median([]float64{math.NaN()})))
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
}

func TestQuantileInterpolatesBetweenRanks(t *testing.T) {
	sorted := []float64{100, 200}
	assert.Equal(t, 125.0, Quantile(sorted, 0.25))
	assert.Equal(t, 150.0, Quantile(sorted, 0.5))
	assert.Equal(t, 200.0, Quantile(sorted, 1))
}

func TestMedianMAD(t *testing.T) {
	med, mad := MedianMAD([]float64{1, 2, 3, 4, 100})
	assert.Equal(t, 3.0, med)
	assert.Equal(t, 1.0, mad)
}

func TestZScoreUsesPopulationStd(t *testing.T) {
	z := FitZScore([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, z.Mean, 1e-12)
	assert.InDelta(t, 2.0, z.Std, 1e-12)
	assert.InDelta(t, -1.5, z.Transform(2), 1e-12)
}

func TestZScoreConstantColumn(t *testing.T) {
	z := FitZScore([]float64{3, 3, 3})
	assert.Equal(t, 1.0, z.Std)
	assert.Equal(t, 0.0, z.Transform(3))
}

func TestMinMax(t *testing.T) {
	m := FitMinMax([]float64{10, math.NaN(), 20, 15})
	assert.Equal(t, 10.0, m.Min)
	assert.Equal(t, 20.0, m.Max)
	assert.Equal(t, 0.5, m.Transform(15))
	assert.True(t, math.IsNaN(m.Transform(math.NaN())))

	flat := FitMinMax([]float64{4, 4})
	assert.Equal(t, 0.0, flat.Transform(4))
}
