package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/cohort/internal/domain/frame"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NumericSummary describes a numeric column over its present values.
type NumericSummary struct {
	Mean   float64 `yaml:"mean"`
	SD     float64 `yaml:"sd"`
	Min    float64 `yaml:"min"`
	Median float64 `yaml:"median"`
	Max    float64 `yaml:"max"`
}

// LevelCount is the frequency of one categorical level.
type LevelCount struct {
	Level string `yaml:"level"`
	Count int    `yaml:"count"`
}

// ColumnSummary describes one column.
type ColumnSummary struct {
	Name    string          `yaml:"name"`
	Kind    string          `yaml:"kind"`
	N       int             `yaml:"n"`
	Missing int             `yaml:"missing"`
	Numeric *NumericSummary `yaml:"numeric,omitempty"`
	Levels  []LevelCount    `yaml:"levels,omitempty"`
}

// Summary describes a frame column by column.
type Summary struct {
	Rows    int             `yaml:"rows"`
	Columns []ColumnSummary `yaml:"columns"`
}

// GroupSummary is the Summary of the rows sharing one level of a grouping column.
type GroupSummary struct {
	Level   string  `yaml:"level"`
	Summary Summary `yaml:"summary"`
}

// Describe summarizes every column of f. Text columns only report counts.
func Describe(f *frame.Frame) Summary {
	s := Summary{Rows: f.NumRows(), Columns: make([]ColumnSummary, 0, f.NumCols())}
	for _, c := range f.Columns() {
		s.Columns = append(s.Columns, describeColumn(c))
	}
	return s
}

func describeColumn(c *frame.Column) ColumnSummary {
	cs := ColumnSummary{
		Name:    c.Name(),
		Kind:    c.Kind().String(),
		Missing: c.NumNA(),
	}
	cs.N = c.Len() - cs.Missing
	switch c.Kind() {
	case frame.Numeric:
		cs.Numeric = describeNumeric(c)
	case frame.Categorical:
		levels := c.Levels()
		counts := make([]int, len(levels))
		for i := 0; i < c.Len(); i++ {
			if code := c.Code(i); code >= 0 {
				counts[code]++
			}
		}
		cs.Levels = make([]LevelCount, len(levels))
		for i, l := range levels {
			cs.Levels[i] = LevelCount{Level: l, Count: counts[i]}
		}
	}
	return cs
}

func describeNumeric(c *frame.Column) *NumericSummary {
	x := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Float(i); ok {
			x = append(x, v)
		}
	}
	if len(x) == 0 {
		return nil
	}
	sort.Float64s(x)
	ns := &NumericSummary{
		Mean:   stat.Mean(x, nil),
		Min:    floats.Min(x),
		Max:    floats.Max(x),
		Median: stat.Quantile(0.5, stat.Empirical, x, nil),
	}
	if len(x) > 1 {
		ns.SD = stat.StdDev(x, nil)
	}
	if math.IsNaN(ns.SD) {
		ns.SD = 0
	}
	return ns
}

// DescribeBy summarizes f separately for each level of the categorical column by, in
// level order. Rows where by is missing are left out.
func DescribeBy(f *frame.Frame, by string) ([]GroupSummary, error) {
	col, err := f.Column(by)
	if err != nil {
		return nil, err
	}
	if col.Kind() != frame.Categorical {
		return nil, fmt.Errorf("%w: group column %q is %s", ErrTermKind, by, col.Kind())
	}
	levels := col.Levels()
	out := make([]GroupSummary, 0, len(levels))
	for code, level := range levels {
		rows := f.Filter(func(i int) bool { return col.Code(i) == code })
		out = append(out, GroupSummary{Level: level, Summary: Describe(rows)})
	}
	return out, nil
}
