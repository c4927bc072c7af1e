package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
	"github.com/KaramelBytes/salesprep-cli/internal/utils"
)

type csvReader struct{}

func (csvReader) CanRead(filename string) bool {
	ext := utils.Ext(filename)
	return ext == ".csv" || ext == ".tsv"
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func (csvReader) Read(r io.Reader, filename string, opt Options) (*dataset.Dataset, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.Comma = sniffDelimiter(filename, opt.Delimiter)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dataset.New()
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records [][]string
	for opt.MaxRows <= 0 || len(records) < opt.MaxRows {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return dataset.FromRecords(header, records)
}

func sniffDelimiter(filename string, explicit rune) rune {
	if explicit != 0 {
		return explicit
	}
	if utils.Ext(filename) == ".tsv" {
		return '\t'
	}
	return ','
}
