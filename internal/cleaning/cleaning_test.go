package cleaning_test

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/salesprep-cli/internal/cleaning"
	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
)

var roles = cleaning.DefaultRoles()

func fastModels() cleaning.ModelOptions {
	opt := cleaning.DefaultModelOptions()
	opt.ForestTrees = 20
	return opt
}

// salesRows builds n consistent rows: profit == (sale-cost)*qty.
func salesRows(n int) [][]string {
	ages := []string{"18-25", "26-35", "36-45"}
	cats := []string{"服装", "食品", "数码"}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		cost := 50 + 10*(i%5)
		sale := cost + 20 + 5*(i%3)
		qty := 1 + i%4
		rows[i] = []string{
			fmt.Sprintf("O%03d", i),
			cats[i%3],
			fmt.Sprint(cost),
			fmt.Sprint(sale),
			fmt.Sprint(qty),
			fmt.Sprint((sale - cost) * qty),
			ages[i%3],
		}
	}
	return rows
}

var salesHeader = []string{"订单号", "商品品类", "进货价格", "实际售价", "销售数", "利润", "客户年龄"}

func mustDataset(t *testing.T, header []string, rows [][]string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromRecords(header, rows)
	require.NoError(t, err)
	return ds
}

func cell(t *testing.T, ds *dataset.Dataset, name string, i int) float64 {
	t.Helper()
	col, ok := ds.Column(name)
	require.True(t, ok, "column %s", name)
	f, ok := col.Float(i)
	require.True(t, ok, "row %d of %s is missing", i, name)
	return f
}

func TestClassifyIsTotalAndExclusive(t *testing.T) {
	ds := mustDataset(t, append(salesHeader, "会员等级", "备注"), func() [][]string {
		rows := salesRows(10)
		for i := range rows {
			rows[i] = append(rows[i], []string{"金", "银"}[i%2], "x")
		}
		return rows
	}())
	ct := cleaning.Classify(ds, cleaning.DefaultKeywords())

	seen := map[string]int{}
	for _, r := range cleaning.AllRoles {
		for _, n := range ct.Names(r) {
			seen[n]++
		}
	}
	for _, n := range ds.Names() {
		assert.Equal(t, 1, seen[n], "column %s must have exactly one role", n)
	}
	r, _ := ct.Role("订单号")
	assert.Equal(t, cleaning.RoleIdentifier, r)
	r, _ = ct.Role("会员等级")
	assert.Equal(t, cleaning.RoleOrdinal, r)
	r, _ = ct.Role("备注")
	assert.Equal(t, cleaning.RoleNominal, r)
	r, _ = ct.Role("销售数")
	assert.Equal(t, cleaning.RoleNumeric, r)
}

func TestClassifyIdentifierKeywordBeatsLowUniqueness(t *testing.T) {
	ds := mustDataset(t, []string{"Store_ID", "下单日期"}, [][]string{{"1", "a"}, {"1", "a"}, {"1", "a"}})
	ct := cleaning.Classify(ds, cleaning.DefaultKeywords())
	for _, n := range []string{"Store_ID", "下单日期"} {
		r, _ := ct.Role(n)
		assert.Equal(t, cleaning.RoleIdentifier, r, n)
	}
}

func TestSanitizePercentAndPrice(t *testing.T) {
	ds := mustDataset(t, []string{"转化率", "实际售价", "名称"}, [][]string{
		{"45%", "¥1,299.50", "a"},
		{"abc", "n/a", "b"},
		{"12.5 %", "免费", "c"},
	})
	out, res := cleaning.Sanitize(ds, cleaning.DefaultKeywords())

	rate, _ := out.Column("转化率")
	assert.Equal(t, dataset.TypeFloat, rate.Type)
	f, ok := rate.Values[0].Float()
	require.True(t, ok)
	assert.InDelta(t, 0.45, f, 1e-12)
	assert.True(t, rate.Values[1].IsMissing())
	f, _ = rate.Values[2].Float()
	assert.InDelta(t, 0.125, f, 1e-12)

	price, _ := out.Column("实际售价")
	f, _ = price.Values[0].Float()
	assert.Equal(t, 1299.5, f)
	assert.True(t, price.Values[1].IsMissing())
	assert.True(t, price.Values[2].IsMissing())

	name, _ := out.Column("名称")
	assert.Equal(t, dataset.TypeText, name.Type)
	assert.ElementsMatch(t, []string{"转化率", "实际售价"}, res.Columns)

	orig, _ := ds.Column("转化率")
	assert.Equal(t, dataset.TypeText, orig.Type, "input must not be mutated")
}

func TestImputePriceGroupMedian(t *testing.T) {
	ds := mustDataset(t, []string{"进货价格", "商品品类"}, [][]string{{"100", "A"}, {"", "A"}, {"200", "B"}})
	out, res := cleaning.ImputePrice(ds, roles.Cost, roles.Category)
	assert.Equal(t, 100.0, cell(t, out, "进货价格", 1))
	assert.Equal(t, 1, res.RowsChanged)
	col, _ := out.Column("进货价格")
	assert.Equal(t, dataset.TypeInt, col.Type)
}

func TestImputePriceGlobalMedian(t *testing.T) {
	ds := mustDataset(t, []string{"进货价格"}, [][]string{{"100"}, {""}, {"200"}})
	out, _ := cleaning.ImputePrice(ds, roles.Cost, roles.Category)
	assert.Equal(t, 150.0, cell(t, out, "进货价格", 1))
}

func TestImputePriceStripsTextAndRounds(t *testing.T) {
	ds := mustDataset(t, []string{"进货价格"}, [][]string{{"¥12.5"}, {"13.5元"}, {"未知"}})
	out, _ := cleaning.ImputePrice(ds, roles.Cost, "")
	assert.Equal(t, 12.0, cell(t, out, "进货价格", 0))
	assert.Equal(t, 14.0, cell(t, out, "进货价格", 1))
	assert.Equal(t, 13.0, cell(t, out, "进货价格", 2), "median of 12 and 14")
}

func TestImputePriceDropsSignOfNumericCells(t *testing.T) {
	ds := mustDataset(t, []string{"进货价格"}, [][]string{{"-100"}, {""}, {"200"}})
	out, _ := cleaning.ImputePrice(ds, roles.Cost, "")
	assert.Equal(t, 100.0, cell(t, out, "进货价格", 0))
	assert.Equal(t, 150.0, cell(t, out, "进货价格", 1))
	assert.Equal(t, -100.0, cell(t, ds, "进货价格", 0), "input must not be mutated")
}

func TestImputePriceSkipsWithoutCostColumn(t *testing.T) {
	ds := mustDataset(t, []string{"x"}, [][]string{{"1"}})
	out, res := cleaning.ImputePrice(ds, roles.Cost, roles.Category)
	assert.Same(t, ds, out)
	assert.True(t, res.Skipped())
	assert.Equal(t, cleaning.ReasonMissingColumns, res.Reason)
}

func TestCorrectProfitLeavesConsistentDataAlone(t *testing.T) {
	ds := mustDataset(t, salesHeader, salesRows(12))
	out, res, err := cleaning.CorrectProfit(context.Background(), ds, roles, fastModels())
	require.NoError(t, err)
	assert.Equal(t, cleaning.OutcomeApplied, res.Outcome)
	assert.Zero(t, res.RowsChanged)

	before, _ := ds.Column("利润")
	after, _ := out.Column("利润")
	for i := 0; i < ds.Rows(); i++ {
		assert.Equal(t, before.Format(i), after.Format(i))
	}
}

func TestCorrectProfitFixesOnlyTheWrongRow(t *testing.T) {
	rows := salesRows(12)
	rows[4][5] = "99999"
	ds := mustDataset(t, salesHeader, rows)

	out, res, err := cleaning.CorrectProfit(context.Background(), ds, roles, fastModels())
	require.NoError(t, err)
	require.NotNil(t, res.Models)
	assert.Equal(t, 1, res.RowsChanged)
	assert.Contains(t, []string{cleaning.ModelForest, cleaning.ModelKNN}, res.Models.Chosen)

	assert.NotEqual(t, 99999.0, cell(t, out, "利润", 4))
	for i := 0; i < ds.Rows(); i++ {
		if i == 4 {
			continue
		}
		assert.Equal(t, cell(t, ds, "利润", i), cell(t, out, "利润", i), "row %d", i)
	}
	assert.Equal(t, 99999.0, cell(t, ds, "利润", 4), "input must not be mutated")
}

func TestCorrectProfitUntrainable(t *testing.T) {
	rows := salesRows(3)
	for i := range rows {
		rows[i][5] = "1"
	}
	ds := mustDataset(t, salesHeader, rows)
	out, res, err := cleaning.CorrectProfit(context.Background(), ds, roles, fastModels())
	require.NoError(t, err)
	assert.Same(t, ds, out)
	assert.Equal(t, cleaning.ReasonUntrainable, res.Reason)
}

func TestCorrectProfitTieBreakPrefersForest(t *testing.T) {
	// Every trusted row earns 20, so both models predict it exactly.
	rows := make([][]string, 11)
	for i := range rows {
		cost := 40 + 5*i
		rows[i] = []string{fmt.Sprintf("O%03d", i), "服装", fmt.Sprint(cost), fmt.Sprint(cost + 10), "2", "20", "18-25"}
	}
	rows[10][5] = "500"
	ds := mustDataset(t, salesHeader, rows)

	out, res, err := cleaning.CorrectProfit(context.Background(), ds, roles, fastModels())
	require.NoError(t, err)
	require.NotNil(t, res.Models)
	assert.Equal(t, cleaning.ModelForest, res.Models.Chosen)
	require.NotNil(t, res.Models.ForestMSE)
	require.NotNil(t, res.Models.KNNMSE)
	assert.Zero(t, *res.Models.ForestMSE)
	assert.Zero(t, *res.Models.KNNMSE)
	assert.Equal(t, 20.0, cell(t, out, "利润", 10))
}

func TestCorrectProfitMissingColumns(t *testing.T) {
	ds := mustDataset(t, []string{"实际售价", "进货价格"}, [][]string{{"1", "2"}})
	_, res, err := cleaning.CorrectProfit(context.Background(), ds, roles, fastModels())
	require.NoError(t, err)
	assert.Equal(t, cleaning.ReasonMissingColumns, res.Reason)
	assert.Equal(t, []string{"销售数", "利润"}, res.MissingColumns)
}

func TestCorrectPriceAnomaliesInvariants(t *testing.T) {
	rows := salesRows(15)
	rows[2][3] = "10"  // sale far below cost
	rows[7][3] = "1.5" // float sale price forces float precision
	rows[9][4] = ""    // missing quantity
	ds := mustDataset(t, salesHeader, rows)

	out, res, err := cleaning.CorrectPriceAnomalies(context.Background(), ds, roles, fastModels())
	require.NoError(t, err)
	assert.Equal(t, cleaning.OutcomeApplied, res.Outcome)
	assert.Equal(t, 2, res.RowsChanged)
	require.NotNil(t, res.Models)
	assert.Equal(t, cleaning.ModelBlend, res.Models.Chosen)

	sale, _ := out.Column("实际售价")
	cost, _ := out.Column("进货价格")
	qty, _ := out.Column("销售数")
	profit, _ := out.Column("利润")
	for i := 0; i < out.Rows(); i++ {
		s, _ := sale.Float(i)
		c, _ := cost.Float(i)
		assert.GreaterOrEqual(t, s, c, "row %d", i)
		q, ok := qty.Float(i)
		if !ok {
			assert.True(t, profit.Values[i].IsMissing())
			continue
		}
		p, _ := profit.Float(i)
		assert.Equal(t, (s-c)*q, p, "row %d", i)
	}
}

func TestCorrectPriceAnomaliesWithoutAnomaliesRecomputesProfit(t *testing.T) {
	rows := salesRows(6)
	rows[0][5] = "12345"
	ds := mustDataset(t, salesHeader, rows)
	out, res, err := cleaning.CorrectPriceAnomalies(context.Background(), ds, roles, fastModels())
	require.NoError(t, err)
	assert.Nil(t, res.Models)
	assert.Zero(t, res.RowsChanged)
	s, c, q := cell(t, out, "实际售价", 0), cell(t, out, "进货价格", 0), cell(t, out, "销售数", 0)
	assert.Equal(t, (s-c)*q, cell(t, out, "利润", 0))
}

func TestCorrectPriceAnomaliesUntrainable(t *testing.T) {
	rows := salesRows(6)
	for i := range rows {
		rows[i][3] = "5"
	}
	ds := mustDataset(t, salesHeader, rows)
	out, res, err := cleaning.CorrectPriceAnomalies(context.Background(), ds, roles, fastModels())
	require.NoError(t, err)
	assert.Same(t, ds, out)
	assert.Equal(t, cleaning.ReasonUntrainable, res.Reason)
	assert.Nil(t, res.Models)
	assert.Equal(t, 5.0, cell(t, out, "实际售价", 0))
}

func TestCorrectPriceAnomaliesNeedsAge(t *testing.T) {
	ds := mustDataset(t, salesHeader[:6], func() [][]string {
		rows := salesRows(4)
		for i := range rows {
			rows[i] = rows[i][:6]
		}
		return rows
	}())
	_, res, err := cleaning.CorrectPriceAnomalies(context.Background(), ds, roles, fastModels())
	require.NoError(t, err)
	assert.Equal(t, []string{"客户年龄"}, res.MissingColumns)
}

func columnMoments(t *testing.T, ds *dataset.Dataset, name string) (mean, std, lo, hi float64) {
	t.Helper()
	col, _ := ds.Column(name)
	xs := col.Floats()
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		mean += x
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		std += (x - mean) * (x - mean)
	}
	std = math.Sqrt(std / float64(len(xs)))
	return
}

func TestStandardizeProperties(t *testing.T) {
	ds := mustDataset(t, salesHeader, salesRows(12))
	out, res := cleaning.Standardize(ds, roles)
	assert.Equal(t, []string{"进货价格", "实际售价", "销售数", "利润"}, res.Columns)
	require.Len(t, out.Params, 4)

	for _, name := range res.Columns {
		mean, std, _, _ := columnMoments(t, out.ZScore, name)
		assert.InDelta(t, 0, mean, 1e-9, name)
		assert.InDelta(t, 1, std, 1e-9, name)
		_, _, lo, hi := columnMoments(t, out.MinMax, name)
		assert.InDelta(t, 0, lo, 1e-12, name)
		assert.InDelta(t, 1, hi, 1e-12, name)
	}
	id, _ := out.ZScore.Column("订单号")
	assert.Equal(t, dataset.TypeText, id.Type)
}

func TestStandardizeIsIdempotentOnZScores(t *testing.T) {
	ds := mustDataset(t, salesHeader, salesRows(12))
	first, _ := cleaning.Standardize(ds, roles)
	second, _ := cleaning.Standardize(first.ZScore, roles)
	for _, name := range []string{"进货价格", "实际售价", "销售数", "利润"} {
		a, _ := first.ZScore.Column(name)
		b, _ := second.ZScore.Column(name)
		assert.InDeltaSlice(t, a.Floats(), b.Floats(), 1e-9, name)
	}
}

func TestStandardizeWithoutCandidates(t *testing.T) {
	ds := mustDataset(t, []string{"a"}, [][]string{{"x"}})
	out, res := cleaning.Standardize(ds, roles)
	assert.Equal(t, cleaning.ReasonNoCandidates, res.Reason)
	assert.Equal(t, ds.Names(), out.MinMax.Names())
	assert.NotSame(t, ds, out.ZScore)
}

func TestFillRemaining(t *testing.T) {
	ds := mustDataset(t, []string{"n", "s"}, [][]string{{"1", "a"}, {"", ""}, {"4", "b"}})
	out, filled := cleaning.FillRemaining(ds, "")
	assert.Equal(t, 2, filled)
	assert.Equal(t, 2.5, cell(t, out, "n", 1))
	s, _ := out.Column("s")
	assert.Equal(t, cleaning.DefaultPlaceholder, s.Values[1].String())
}
