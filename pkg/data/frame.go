package data

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Kind tells how a column's cells are stored.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Column is a single named column of a Frame.
// Numeric columns keep values in Num with NaN marking a missing cell.
// Categorical columns keep raw values in Str and flag missing cells in Missing.
type Column struct {
	Name    string
	Kind    Kind
	Num     []float64
	Str     []string
	Missing []bool
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == Categorical {
		return len(c.Str)
	}
	return len(c.Num)
}

// IsMissing reports whether cell i holds no value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Categorical {
		return c.Missing[i]
	}
	return math.IsNaN(c.Num[i])
}

func (c *Column) clone() *Column {
	n := &Column{Name: c.Name, Kind: c.Kind}
	if c.Num != nil {
		n.Num = append([]float64(nil), c.Num...)
	}
	if c.Str != nil {
		n.Str = append([]string(nil), c.Str...)
	}
	if c.Missing != nil {
		n.Missing = append([]bool(nil), c.Missing...)
	}
	return n
}

var (
	ErrNoColumn    = errors.New("data: no such column")
	ErrDupColumn   = errors.New("data: duplicate column")
	ErrLength      = errors.New("data: column length does not match frame")
	ErrNotNumeric  = errors.New("data: column is not numeric")
	ErrEmptyHeader = errors.New("data: missing header row")
)

// Frame is an in-memory table of equally long, uniquely named columns.
// Column order is preserved and significant.
type Frame struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// NewFrame returns an empty frame with the given row count.
func NewFrame(rows int) *Frame {
	return &Frame{index: map[string]int{}, rows: rows}
}

// Rows returns the number of observations.
func (f *Frame) Rows() int { return f.rows }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.cols) }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Name
	}
	return out
}

// Has reports whether a column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the named column.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// ColumnAt returns the i-th column.
func (f *Frame) ColumnAt(i int) *Column { return f.cols[i] }

// Add appends a column. Its length must match the frame's row count.
func (f *Frame) Add(c *Column) error {
	if _, ok := f.index[c.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDupColumn, c.Name)
	}
	if c.Len() != f.rows {
		return fmt.Errorf("%w: %q has %d rows, want %d", ErrLength, c.Name, c.Len(), f.rows)
	}
	if c.Kind == Categorical && len(c.Missing) != len(c.Str) {
		c.Missing = make([]bool, len(c.Str))
	}
	f.index[c.Name] = len(f.cols)
	f.cols = append(f.cols, c)
	return nil
}

// AddNumeric appends a numeric column.
func (f *Frame) AddNumeric(name string, values []float64) error {
	return f.Add(&Column{Name: name, Kind: Numeric, Num: values})
}

// Drop removes the named columns. Unknown names are an error.
func (f *Frame) Drop(names ...string) error {
	for _, n := range names {
		if !f.Has(n) {
			return fmt.Errorf("%w: %q", ErrNoColumn, n)
		}
	}
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := f.cols[:0]
	for _, c := range f.cols {
		if _, ok := drop[c.Name]; !ok {
			kept = append(kept, c)
		}
	}
	f.cols = kept
	f.reindex()
	return nil
}

// DropIfPresent removes a column when it exists and reports whether it did.
func (f *Frame) DropIfPresent(name string) bool {
	if !f.Has(name) {
		return false
	}
	_ = f.Drop(name)
	return true
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.cols))
	for i, c := range f.cols {
		f.index[c.Name] = i
	}
}

// NumericColumns returns the numeric columns in frame order.
func (f *Frame) NumericColumns() []*Column {
	var out []*Column
	for _, c := range f.cols {
		if c.Kind == Numeric {
			out = append(out, c)
		}
	}
	return out
}

// CategoricalColumns returns the categorical columns in frame order.
func (f *Frame) CategoricalColumns() []*Column {
	var out []*Column
	for _, c := range f.cols {
		if c.Kind == Categorical {
			out = append(out, c)
		}
	}
	return out
}

// Floats returns the values of a numeric column.
func (f *Frame) Floats(name string) ([]float64, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	if c.Kind != Numeric {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, name)
	}
	return c.Num, nil
}

// Select returns a deep copy holding only the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	out := NewFrame(f.rows)
	for _, n := range names {
		c, ok := f.Column(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoColumn, n)
		}
		if err := out.Add(c.clone()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Head returns a copy of the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n > f.rows {
		n = f.rows
	}
	if n < 0 {
		n = 0
	}
	out := NewFrame(n)
	for _, c := range f.cols {
		h := &Column{Name: c.Name, Kind: c.Kind}
		if c.Kind == Categorical {
			h.Str = append([]string(nil), c.Str[:n]...)
			h.Missing = append([]bool(nil), c.Missing[:n]...)
		} else {
			h.Num = append([]float64(nil), c.Num[:n]...)
		}
		_ = out.Add(h)
	}
	return out
}

// FreeName returns base, or base suffixed ".1", ".2", ... when f already
// holds a column of that name.
func (f *Frame) FreeName(base string) string {
	name := base
	for n := 1; f.Has(name); n++ {
		name = base + "." + strconv.Itoa(n)
	}
	return name
}

// Matrix returns the named numeric columns as row-major feature vectors.
func (f *Frame) Matrix(names ...string) ([][]float64, error) {
	cols := make([][]float64, len(names))
	for j, n := range names {
		v, err := f.Floats(n)
		if err != nil {
			return nil, err
		}
		cols[j] = v
	}
	X := make([][]float64, f.rows)
	for i := range X {
		row := make([]float64, len(names))
		for j := range cols {
			row[j] = cols[j][i]
		}
		X[i] = row
	}
	return X, nil
}

// Cell renders cell (i, name) for display. Missing cells render as "NaN".
func (f *Frame) Cell(i int, name string) string {
	c, ok := f.Column(name)
	if !ok {
		return ""
	}
	if c.IsMissing(i) {
		return "NaN"
	}
	if c.Kind == Categorical {
		return c.Str[i]
	}
	return formatFloat(c.Num[i])
}
