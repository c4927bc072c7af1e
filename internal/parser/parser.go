// Package parser reads delimited text and spreadsheet files into datasets.
package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/KaramelBytes/salesprep-cli/internal/dataset"
	"github.com/KaramelBytes/salesprep-cli/internal/utils"
)

// Options controls how a file is read.
type Options struct {
	// Delimiter for CSV. If 0, ',' is used, or '\t' for .tsv files.
	Delimiter rune
	// Sheet selects an XLSX sheet by name; SheetIndex (1-based) is used when empty.
	Sheet      string
	SheetIndex int
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
}

// Reader decodes one family of file formats.
type Reader interface {
	CanRead(filename string) bool
	Read(r io.Reader, filename string, opt Options) (*dataset.Dataset, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// ForName returns the reader for filename, or ErrUnsupportedFormat.
func ForName(filename string) (Reader, error) {
	for _, r := range registry {
		if r.CanRead(filename) {
			return r, nil
		}
	}
	return nil, utils.UnsupportedFormat(filename)
}

// Supported reports whether some registered reader accepts filename.
func Supported(filename string) bool {
	_, err := ForName(filename)
	return err == nil
}

// ReadFile selects a reader based on the file extension and decodes path.
func ReadFile(path string, opt Options) (*dataset.Dataset, error) {
	rd, err := ForName(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return rd.Read(f, path, opt)
}

// Read decodes r using the reader registered for filename.
func Read(r io.Reader, filename string, opt Options) (*dataset.Dataset, error) {
	rd, err := ForName(filename)
	if err != nil {
		return nil, err
	}
	return rd.Read(r, filename, opt)
}

func limitRows(records [][]string, max int) [][]string {
	if max > 0 && len(records) > max {
		return records[:max]
	}
	return records
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}
