package cleaning

import (
	"math"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
	"github.com/KaramelBytes/salesprep-cli/internal/stats"
)

// ImputePrice repairs the cost column: every cell is reduced to digits and
// '.' (numeric cells lose their sign), every value is rounded to an integer,
// and missing cells are filled with the median cost of their category,
// falling back to the global median. Medians are rounded half to even so the
// column stays integral.
// A missing cost column skips the stage.
func ImputePrice(ds *dataset.Dataset, costCol, categoryCol string) (*dataset.Dataset, StageResult) {
	src, ok := ds.Column(costCol)
	if costCol == "" || !ok {
		return ds, skippedMissing(StageImputePrice, []string{costCol})
	}

	costs := make([]float64, src.Len())
	for i, v := range src.Values {
		costs[i] = math.NaN()
		switch v.Kind() {
		case dataset.KindNumber:
			f, _ := v.Float()
			costs[i] = math.RoundToEven(math.Abs(f))
		case dataset.KindText:
			s, _ := v.Str()
			if f, ok := parseStripped(s); ok {
				costs[i] = math.RoundToEven(f)
			}
		}
	}

	byGroup, byGlobal := 0, 0
	if cat, ok := ds.Column(categoryCol); categoryCol != "" && ok && hasNaN(costs) {
		groups := make(map[dataset.Value][]float64)
		for i, v := range cat.Values {
			if v.IsMissing() || math.IsNaN(costs[i]) {
				continue
			}
			groups[v] = append(groups[v], costs[i])
		}
		medians := make(map[dataset.Value]float64, len(groups))
		for k, vals := range groups {
			medians[k] = math.RoundToEven(stats.Median(vals))
		}
		for i, v := range cat.Values {
			if !math.IsNaN(costs[i]) || v.IsMissing() {
				continue
			}
			if m, ok := medians[v]; ok {
				costs[i] = m
				byGroup++
			}
		}
	}
	if hasNaN(costs) {
		if global := stats.Median(costs); !math.IsNaN(global) {
			global = math.RoundToEven(global)
			for i := range costs {
				if math.IsNaN(costs[i]) {
					costs[i] = global
					byGlobal++
				}
			}
		}
	}

	col := dataset.NewFloatColumn(costCol, costs)
	col.Type = dataset.TypeInt
	out := ds.Clone()
	_ = out.Set(col)

	res := applied(StageImputePrice, byGroup+byGlobal,
		"repaired %s: filled %d missing values (%d by %s median, %d by global median)",
		costCol, byGroup+byGlobal, byGroup, categoryLabel(categoryCol), byGlobal)
	res.Columns = []string{costCol}
	return out, res
}

func categoryLabel(name string) string {
	if name == "" {
		return "category"
	}
	return name
}

func hasNaN(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}
