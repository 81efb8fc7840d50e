package frame

import (
	"fmt"
)

// Frame is an ordered set of equally long, uniquely named columns.
type Frame struct {
	cols  []*Column
	index map[string]int
	nrows int
}

// New builds a frame from columns. Column names must be unique and all columns must
// have the same length.
func New(cols ...*Column) (*Frame, error) {
	f := &Frame{
		cols:  make([]*Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if _, ok := f.index[c.name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnExists, c.name)
		}
		if i == 0 {
			f.nrows = c.Len()
		} else if c.Len() != f.nrows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrShape, c.name, c.Len(), f.nrows)
		}
		f.index[c.name] = len(f.cols)
		f.cols = append(f.cols, c)
	}
	return f, nil
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int { return f.nrows }

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.cols) }

// Names returns the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.name
	}
	return names
}

// Has reports whether the frame has a column called name.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the named column.
func (f *Frame) Column(name string) (*Column, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return f.cols[i], nil
}

// Columns returns the columns in order.
func (f *Frame) Columns() []*Column {
	return append([]*Column(nil), f.cols...)
}

// Select returns a frame holding only the named columns, in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		c, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		out.nrows = f.nrows
	}
	return out, nil
}

// Drop returns a frame without the named columns.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		if !f.Has(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		drop[name] = struct{}{}
	}
	keep := make([]string, 0, len(f.cols))
	for _, c := range f.cols {
		if _, ok := drop[c.name]; !ok {
			keep = append(keep, c.name)
		}
	}
	return f.Select(keep...)
}

// With returns a frame with col appended.
func (f *Frame) With(col *Column) (*Frame, error) {
	if f.Has(col.name) {
		return nil, fmt.Errorf("%w: %q", ErrColumnExists, col.name)
	}
	if len(f.cols) > 0 && col.Len() != f.nrows {
		return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrShape, col.name, col.Len(), f.nrows)
	}
	return New(append(f.Columns(), col)...)
}

// Replace returns a frame where the column with the same name as col is swapped for col.
func (f *Frame) Replace(col *Column) (*Frame, error) {
	i, ok := f.index[col.name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col.name)
	}
	cols := f.Columns()
	cols[i] = col
	return New(cols...)
}

// Take returns the rows at idx, in that order. A negative index yields an all-missing row.
func (f *Frame) Take(idx []int) *Frame {
	cols := make([]*Column, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.take(idx)
	}
	out := &Frame{cols: cols, index: make(map[string]int, len(cols)), nrows: len(idx)}
	for i, c := range cols {
		out.index[c.name] = i
	}
	return out
}

// Filter returns the rows for which keep returns true.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	idx := make([]int, 0, f.nrows)
	for i := 0; i < f.nrows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return f.Take(idx)
}

// Complete reports whether row has no missing cell.
func (f *Frame) Complete(row int) bool {
	for _, c := range f.cols {
		if c.na[row] {
			return false
		}
	}
	return true
}

// DropNA removes every row with at least one missing cell and returns the number of
// removed rows.
func (f *Frame) DropNA() (*Frame, int) {
	out := f.Filter(f.Complete)
	return out, f.nrows - out.nrows
}

// MissingCounts returns the number of missing cells per column.
func (f *Frame) MissingCounts() map[string]int {
	out := make(map[string]int, len(f.cols))
	for _, c := range f.cols {
		out[c.name] = c.NumNA()
	}
	return out
}

// Records returns every row as cells, in column order.
func (f *Frame) Records() [][]Cell {
	rows := make([][]Cell, f.nrows)
	for i := range rows {
		row := make([]Cell, len(f.cols))
		for j, c := range f.cols {
			row[j] = c.Cell(i)
		}
		rows[i] = row
	}
	return rows
}
