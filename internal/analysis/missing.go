package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
)

// MissingEntry is one row of the missing-value report.
type MissingEntry struct {
	Column  string  `json:"column"`
	DType   string  `json:"dtype"`
	Total   int     `json:"total"`
	NonNull int     `json:"non_null"`
	Null    int     `json:"null"`
	NullPct float64 `json:"null_pct"`
}

// MissingReport lists per-column missing counts in dataset order.
type MissingReport []MissingEntry

// Missing counts missing cells per column. Percentages are rounded half
// away from zero to two decimals; an empty dataset reports 0%.
func Missing(ds *dataset.Dataset) MissingReport {
	rows := ds.Rows()
	out := make(MissingReport, 0, ds.Width())
	for _, col := range ds.Columns() {
		null := col.MissingCount()
		pct := 0.0
		if rows > 0 {
			pct, _ = decimal.NewFromInt(int64(null)).
				Mul(decimal.NewFromInt(100)).
				Div(decimal.NewFromInt(int64(rows))).
				Round(2).
				Float64()
		}
		out = append(out, MissingEntry{
			Column:  col.Name,
			DType:   col.DType(),
			Total:   rows,
			NonNull: rows - null,
			Null:    null,
			NullPct: pct,
		})
	}
	return out
}

// TotalMissing sums the null counts.
func (r MissingReport) TotalMissing() int {
	n := 0
	for _, e := range r {
		n += e.Null
	}
	return n
}

// ToDataset renders the report as a table so it can be exported like any
// other artifact.
func (r MissingReport) ToDataset() *dataset.Dataset {
	n := len(r)
	names := make([]string, n)
	dtypes := make([]string, n)
	total := make([]float64, n)
	nonNull := make([]float64, n)
	null := make([]float64, n)
	pct := make([]float64, n)
	for i, e := range r {
		names[i] = e.Column
		dtypes[i] = e.DType
		total[i] = float64(e.Total)
		nonNull[i] = float64(e.NonNull)
		null[i] = float64(e.Null)
		pct[i] = e.NullPct
	}
	intCol := func(name string, xs []float64) *dataset.Column {
		c := dataset.NewFloatColumn(name, xs)
		c.Type = dataset.TypeInt
		return c
	}
	ds, _ := dataset.New(
		dataset.NewTextColumn("column", names),
		dataset.NewTextColumn("dtype", dtypes),
		intCol("total", total),
		intCol("non_null", nonNull),
		intCol("null", null),
		dataset.NewFloatColumn("null_pct", pct),
	)
	return ds
}
