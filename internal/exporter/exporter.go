// Package exporter writes datasets as CSV files and XLSX workbooks.
package exporter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
	"github.com/KaramelBytes/salesprep-cli/internal/utils"
)

// Sheet is one named dataset in a workbook.
type Sheet struct {
	Name string
	Data *dataset.Dataset
}

// maxSheetName is the Excel limit on sheet name length.
const maxSheetName = 31

// WriteCSV writes a UTF-8 BOM, the header and every row. Missing cells
// are empty and int columns print without decimals.
func WriteCSV(w io.Writer, ds *dataset.Dataset) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(bw)
	if err := cw.Write(ds.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < ds.Rows(); i++ {
		if err := cw.Write(ds.Record(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return bw.Flush()
}

// WriteXLSX writes each sheet into one workbook at path. Numeric cells are
// stored as numbers; missing cells are left blank.
func WriteXLSX(path string, sheets ...Sheet) error {
	f, err := buildWorkbook(sheets)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

// WriteWorkbook streams the workbook to w.
func WriteWorkbook(w io.Writer, sheets ...Sheet) error {
	f, err := buildWorkbook(sheets)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func buildWorkbook(sheets []Sheet) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook needs at least one sheet")
	}
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)
	for i, s := range sheets {
		name := sheetName(s.Name, i)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("add sheet %q: %w", name, err)
		}
		if err := fillSheet(f, name, s.Data); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func sheetName(name string, i int) string {
	if name == "" {
		return fmt.Sprintf("Sheet%d", i+1)
	}
	r := []rune(name)
	if len(r) > maxSheetName {
		r = r[:maxSheetName]
	}
	return string(r)
}

func fillSheet(f *excelize.File, sheet string, ds *dataset.Dataset) error {
	header := make([]any, ds.Width())
	for j, n := range ds.Names() {
		header[j] = n
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header of %q: %w", sheet, err)
	}
	cols := ds.Columns()
	for i := 0; i < ds.Rows(); i++ {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = cellValue(c, i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d of %q: %w", i+1, sheet, err)
		}
	}
	return nil
}

func cellValue(c *dataset.Column, i int) any {
	v := c.Values[i]
	switch v.Kind() {
	case dataset.KindNumber:
		f, _ := v.Float()
		if c.Type == dataset.TypeInt {
			return int64(f)
		}
		return f
	case dataset.KindText:
		s, _ := v.Str()
		return s
	}
	return nil
}

// SaveFile writes ds to path, choosing the format from the extension.
func SaveFile(path string, ds *dataset.Dataset) error {
	switch utils.Ext(path) {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := WriteCSV(f, ds); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	case ".xlsx":
		return WriteXLSX(path, Sheet{Name: "Sheet1", Data: ds})
	default:
		return utils.UnsupportedFormat(path)
	}
}
