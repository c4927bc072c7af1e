package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
	"github.com/KaramelBytes/salesprep-cli/internal/utils"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(filename string) bool {
	return utils.Ext(filename) == ".xlsx"
}

func (xlsxReader) Read(r io.Reader, filename string, opt Options) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet, err := pickSheet(f.GetSheetList(), filename, opt)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return dataset.New()
	}
	header := rows[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return dataset.FromRecords(header, limitRows(rows[1:], opt.MaxRows))
}

// pickSheet resolves the sheet by name (case-insensitive) or 1-based index.
func pickSheet(sheets []string, filename string, opt Options) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook %s has no sheets", filepath.Base(filename))
	}
	if opt.Sheet != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
			opt.Sheet, filepath.Base(filename), strings.Join(sheets, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range: workbook '%s' has %d sheets",
			idx, filepath.Base(filename), len(sheets))
	}
	return sheets[idx-1], nil
}
