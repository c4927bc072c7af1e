package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	ErrLengthMismatch  = errors.New("dataset: column length does not match row count")
	ErrDuplicateColumn = errors.New("dataset: duplicate column name")
)

// ColumnType is the storage type shared by every cell of a column.
type ColumnType uint8

const (
	TypeText ColumnType = iota
	TypeFloat
	// TypeInt holds integral numbers and tolerates missing cells.
	TypeInt
)

// String returns the dtype label used in reports.
func (t ColumnType) String() string {
	switch t {
	case TypeFloat:
		return "float64"
	case TypeInt:
		return "Int64"
	default:
		return "object"
	}
}

func (t ColumnType) IsNumeric() bool { return t == TypeFloat || t == TypeInt }

// Column is a named, homogeneously typed sequence of cells.
type Column struct {
	Name   string
	Type   ColumnType
	Values []Value
}

// NewColumn builds a column. Values are not copied.
func NewColumn(name string, t ColumnType, values []Value) *Column {
	return &Column{Name: name, Type: t, Values: values}
}

// NewFloatColumn builds a float column from a slice where NaN marks missing cells.
func NewFloatColumn(name string, xs []float64) *Column {
	vals := make([]Value, len(xs))
	for i, x := range xs {
		vals[i] = Number(x)
	}
	return NewColumn(name, TypeFloat, vals)
}

// NewTextColumn builds a text column; empty strings become missing.
func NewTextColumn(name string, xs []string) *Column {
	vals := make([]Value, len(xs))
	for i, x := range xs {
		if x == "" {
			vals[i] = Missing()
			continue
		}
		vals[i] = Text(x)
	}
	return NewColumn(name, TypeText, vals)
}

func (c *Column) Len() int { return len(c.Values) }

// Clone returns a deep copy.
func (c *Column) Clone() *Column {
	vals := make([]Value, len(c.Values))
	copy(vals, c.Values)
	return &Column{Name: c.Name, Type: c.Type, Values: vals}
}

// Float reads row i as a number, parsing text cells.
func (c *Column) Float(i int) (float64, bool) {
	return c.Values[i].Coerce()
}

// Floats returns the column as numbers with NaN for missing or unparsable cells.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		f, ok := v.Coerce()
		if !ok {
			f = math.NaN()
		}
		out[i] = f
	}
	return out
}

// DType is the report label of the column: integral columns read "int64"
// when complete and the nullable "Int64" once a cell is missing.
func (c *Column) DType() string {
	if c.Type == TypeInt && c.MissingCount() == 0 {
		return "int64"
	}
	return c.Type.String()
}

// MissingCount counts missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Distinct counts distinct non-missing cells.
func (c *Column) Distinct() int {
	seen := make(map[Value]struct{}, len(c.Values))
	for _, v := range c.Values {
		if v.IsMissing() {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}

// Format renders row i for export. Int columns print without decimals.
func (c *Column) Format(i int) string {
	v := c.Values[i]
	if c.Type == TypeInt {
		if f, ok := v.Float(); ok {
			return strconv.FormatInt(int64(math.Round(f)), 10)
		}
	}
	return v.String()
}

// Dataset is an ordered set of equally long named columns.
// Stages never mutate a Dataset they did not create; they Clone first.
type Dataset struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New assembles a dataset from columns. Columns are not copied.
func New(cols ...*Column) (*Dataset, error) {
	d := &Dataset{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if i == 0 {
			d.rows = c.Len()
		}
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		if c.Len() != d.rows {
			return nil, fmt.Errorf("%w: %q has %d values, want %d", ErrLengthMismatch, c.Name, c.Len(), d.rows)
		}
		d.index[c.Name] = len(d.cols)
		d.cols = append(d.cols, c)
	}
	return d, nil
}

func (d *Dataset) Rows() int  { return d.rows }
func (d *Dataset) Width() int { return len(d.cols) }

// Names returns column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// Columns returns the columns in order. The slice is fresh; the columns are shared.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.cols))
	copy(out, d.cols)
	return out
}

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.cols[i], true
}

// Has reports whether every named column exists.
func (d *Dataset) Has(names ...string) bool {
	return len(d.Absent(names...)) == 0
}

// Absent lists the names that are not columns of d, in argument order.
func (d *Dataset) Absent(names ...string) []string {
	var out []string
	for _, n := range names {
		if n == "" {
			out = append(out, n)
			continue
		}
		if _, ok := d.index[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{index: make(map[string]int, len(d.cols)), rows: d.rows, cols: make([]*Column, len(d.cols))}
	for i, c := range d.cols {
		out.cols[i] = c.Clone()
		out.index[c.Name] = i
	}
	return out
}

// Set replaces the column with the same name, or appends it.
func (d *Dataset) Set(col *Column) error {
	if len(d.cols) > 0 && col.Len() != d.rows {
		return fmt.Errorf("%w: %q has %d values, want %d", ErrLengthMismatch, col.Name, col.Len(), d.rows)
	}
	if d.index == nil {
		d.index = map[string]int{}
	}
	if len(d.cols) == 0 {
		d.rows = col.Len()
	}
	if i, ok := d.index[col.Name]; ok {
		d.cols[i] = col
		return nil
	}
	d.index[col.Name] = len(d.cols)
	d.cols = append(d.cols, col)
	return nil
}

// Drop removes a column and reports whether it existed.
func (d *Dataset) Drop(name string) bool {
	i, ok := d.index[name]
	if !ok {
		return false
	}
	d.cols = append(d.cols[:i], d.cols[i+1:]...)
	delete(d.index, name)
	for j := i; j < len(d.cols); j++ {
		d.index[d.cols[j].Name] = j
	}
	return true
}

// Record renders row i as strings in column order.
func (d *Dataset) Record(i int) []string {
	out := make([]string, len(d.cols))
	for j, c := range d.cols {
		out[j] = c.Format(i)
	}
	return out
}
