package dataset_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
)

func TestFromRecordsInfersTypes(t *testing.T) {
	header := []string{"订单号", "进货价格", "实际售价", "商品品类", "备注"}
	rows := [][]string{
		{"A001", "100", "120.5", "服装", "ok"},
		{"A002", "80", "NaN", "食品", ""},
		{"A003", "90", "99", "服装"},
	}
	ds, err := dataset.FromRecords(header, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Rows())
	assert.Equal(t, header, ds.Names())

	cost, _ := ds.Column("进货价格")
	assert.Equal(t, dataset.TypeInt, cost.Type)
	sale, _ := ds.Column("实际售价")
	assert.Equal(t, dataset.TypeFloat, sale.Type)
	assert.True(t, sale.Values[1].IsMissing())
	cat, _ := ds.Column("商品品类")
	assert.Equal(t, dataset.TypeText, cat.Type)
	note, _ := ds.Column("备注")
	assert.Equal(t, 2, note.MissingCount(), "empty and short-row cells are missing")
}

func TestFromRecordsIntWithMissingBecomesFloat(t *testing.T) {
	ds, err := dataset.FromRecords([]string{"qty"}, [][]string{{"1"}, {""}, {"3"}})
	require.NoError(t, err)
	col, _ := ds.Column("qty")
	assert.Equal(t, dataset.TypeFloat, col.Type)
}

func TestColumnDType(t *testing.T) {
	ds, err := dataset.FromRecords([]string{"qty", "price", "name"}, [][]string{{"1", "2.5", "a"}, {"3", "", "b"}})
	require.NoError(t, err)
	qty, _ := ds.Column("qty")
	price, _ := ds.Column("price")
	name, _ := ds.Column("name")
	assert.Equal(t, "int64", qty.DType())
	assert.Equal(t, "float64", price.DType())
	assert.Equal(t, "object", name.DType())

	qty.Values[1] = dataset.Missing()
	assert.Equal(t, "Int64", qty.DType())
}

func TestFromRecordsDeduplicatesHeader(t *testing.T) {
	ds, err := dataset.FromRecords([]string{"a", "a", "", "a"}, [][]string{{"1", "2", "3", "4"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "a.2"}, ds.Names())
}

func TestCloneIsDeep(t *testing.T) {
	ds, err := dataset.New(dataset.NewFloatColumn("x", []float64{1, 2, 3}))
	require.NoError(t, err)
	cp := ds.Clone()
	col, _ := cp.Column("x")
	col.Values[0] = dataset.Number(99)

	orig, _ := ds.Column("x")
	f, _ := orig.Values[0].Float()
	assert.Equal(t, 1.0, f)
}

func TestSetDropAndAbsent(t *testing.T) {
	ds, err := dataset.New(
		dataset.NewFloatColumn("a", []float64{1, 2}),
		dataset.NewFloatColumn("b", []float64{3, 4}),
	)
	require.NoError(t, err)

	err = ds.Set(dataset.NewFloatColumn("c", []float64{1}))
	assert.ErrorIs(t, err, dataset.ErrLengthMismatch)

	require.NoError(t, ds.Set(dataset.NewFloatColumn("c", []float64{5, 6})))
	assert.Equal(t, []string{"a", "b", "c"}, ds.Names())
	assert.True(t, ds.Drop("b"))
	assert.False(t, ds.Drop("b"))
	assert.Equal(t, []string{"a", "c"}, ds.Names())
	c, ok := ds.Column("c")
	require.True(t, ok)
	assert.Equal(t, "c", c.Name)
	assert.Equal(t, []string{"zz"}, ds.Absent("a", "zz"))
}

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := dataset.New(dataset.NewFloatColumn("a", []float64{1}), dataset.NewFloatColumn("a", []float64{2}))
	assert.ErrorIs(t, err, dataset.ErrDuplicateColumn)
}

func TestValueCoerceAndFormat(t *testing.T) {
	f, ok := dataset.Text(" 12.5 ").Coerce()
	assert.True(t, ok)
	assert.Equal(t, 12.5, f)
	_, ok = dataset.Text("abc").Coerce()
	assert.False(t, ok)
	assert.True(t, dataset.Number(math.NaN()).IsMissing())

	col := dataset.NewColumn("n", dataset.TypeInt, []dataset.Value{dataset.Number(150), dataset.Missing()})
	assert.Equal(t, "150", col.Format(0))
	assert.Equal(t, "", col.Format(1))
	assert.Equal(t, 1, col.Distinct())
}
