package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
	"github.com/KaramelBytes/salesprep-cli/internal/parser"
	"github.com/KaramelBytes/salesprep-cli/internal/utils"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestReadFileCSVWithBOM(t *testing.T) {
	p := writeFile(t, "sales.csv", "\xEF\xBB\xBF 订单号 ,进货价格,实际售价,客户年龄\n"+
		"A1,100,120.5,18-25\n"+
		"A2,N/A,99,\n"+
		"A3,80,¥90\n")
	ds, err := parser.ReadFile(p, parser.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"订单号", "进货价格", "实际售价", "客户年龄"}, ds.Names())
	assert.Equal(t, 3, ds.Rows())

	cost, _ := ds.Column("进货价格")
	assert.Equal(t, dataset.TypeFloat, cost.Type, "int column with a missing cell is float")
	assert.True(t, cost.Values[1].IsMissing())

	sale, _ := ds.Column("实际售价")
	assert.Equal(t, dataset.TypeText, sale.Type)

	age, _ := ds.Column("客户年龄")
	assert.True(t, age.Values[2].IsMissing(), "short rows are padded")
}

func TestReadFileTSVAndMaxRows(t *testing.T) {
	p := writeFile(t, "q.tsv", "a\tb\n1\tx\n2\ty\n3\tz\n")
	ds, err := parser.ReadFile(p, parser.Options{MaxRows: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Rows())
	a, _ := ds.Column("a")
	assert.Equal(t, dataset.TypeInt, a.Type)
}

func TestReadFileEmptyCSV(t *testing.T) {
	ds, err := parser.ReadFile(writeFile(t, "empty.csv", ""), parser.Options{})
	require.NoError(t, err)
	assert.Zero(t, ds.Width())
}

func TestReadFileUnsupported(t *testing.T) {
	for _, name := range []string{"notes.txt", "legacy.xls", "noext"} {
		_, err := parser.ReadFile(writeFile(t, name, "x"), parser.Options{})
		assert.True(t, errors.Is(err, utils.ErrUnsupportedFormat), name)
	}
	assert.False(t, parser.Supported("a.json"))
	assert.True(t, parser.Supported("A.XLSX"))
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"ignored"}))
	_, err := f.NewSheet("Orders")
	require.NoError(t, err)
	rows := [][]any{
		{"商品品类", "销售数", "利润"},
		{"服装", 2, 40.5},
		{"食品", 1, ""},
		{"数码", 3, 12},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Orders", cell, &row))
	}
	p := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(p))
	return p
}

func TestReadFileXLSXSheetSelection(t *testing.T) {
	p := writeWorkbook(t)

	ds, err := parser.ReadFile(p, parser.Options{Sheet: "orders"})
	require.NoError(t, err)
	assert.Equal(t, []string{"商品品类", "销售数", "利润"}, ds.Names())
	assert.Equal(t, 3, ds.Rows())
	qty, _ := ds.Column("销售数")
	assert.Equal(t, dataset.TypeInt, qty.Type)
	profit, _ := ds.Column("利润")
	assert.Equal(t, dataset.TypeFloat, profit.Type)
	assert.True(t, profit.Values[1].IsMissing())

	byIndex, err := parser.ReadFile(p, parser.Options{SheetIndex: 2})
	require.NoError(t, err)
	assert.Equal(t, ds.Names(), byIndex.Names())

	first, err := parser.ReadFile(p, parser.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ignored"}, first.Names())

	_, err = parser.ReadFile(p, parser.Options{Sheet: "Missing"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "Available sheets: Sheet1, Orders"))

	_, err = parser.ReadFile(p, parser.Options{SheetIndex: 5})
	assert.Error(t, err)
}
