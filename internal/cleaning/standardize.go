package cleaning

import (
	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
	"github.com/KaramelBytes/salesprep-cli/internal/stats"
)

// StandardizationParameters are the per-column values fitted for one run.
type StandardizationParameters struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Standardized holds the two independent outputs of Standardize.
type Standardized struct {
	MinMax *dataset.Dataset
	ZScore *dataset.Dataset
	Params []StandardizationParameters
}

// StandardizeCandidates lists the role columns that are present and stored
// as numbers: cost, sale price, quantity, profit, and sales amount.
func StandardizeCandidates(ds *dataset.Dataset, roles Roles) []string {
	var out []string
	for _, name := range []string{roles.Cost, roles.SalePrice, roles.Quantity, roles.Profit, roles.SalesAmount} {
		if name == "" {
			continue
		}
		if col, ok := ds.Column(name); ok && col.Type.IsNumeric() {
			out = append(out, name)
		}
	}
	return out
}

// Standardize produces a min-max and a z-score copy of ds over the
// candidate columns. Both transforms are fitted on the same input and share
// nothing. Missing cells stay missing. With no candidates both outputs are
// plain copies of the input.
func Standardize(ds *dataset.Dataset, roles Roles) (Standardized, StageResult) {
	names := StandardizeCandidates(ds, roles)
	if len(names) == 0 {
		return Standardized{MinMax: ds.Clone(), ZScore: ds.Clone()},
			skipped(StageStandardize, ReasonNoCandidates, "%s skipped: no numeric cost, price, quantity, profit or sales amount column", StageStandardize)
	}

	zs, mm := ds.Clone(), ds.Clone()
	params := make([]StandardizationParameters, 0, len(names))
	for _, name := range names {
		col, _ := ds.Column(name)
		xs := col.Floats()
		z := stats.FitZScore(xs)
		m := stats.FitMinMax(xs)

		zv := make([]float64, len(xs))
		mv := make([]float64, len(xs))
		for i, x := range xs {
			zv[i] = z.Transform(x)
			mv[i] = m.Transform(x)
		}
		_ = zs.Set(dataset.NewFloatColumn(name, zv))
		_ = mm.Set(dataset.NewFloatColumn(name, mv))
		params = append(params, StandardizationParameters{Column: name, Mean: z.Mean, Std: z.Std, Min: m.Min, Max: m.Max})
	}

	res := applied(StageStandardize, ds.Rows(), "standardized %d columns with min-max and z-score", len(names))
	res.Columns = names
	return Standardized{MinMax: mm, ZScore: zs, Params: params}, res
}
