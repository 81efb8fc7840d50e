// Package frame provides the column-oriented in-memory table threaded through the
// cohort pipeline.
//
// Columns are immutable once built: every operation that changes values, kind or
// level order returns a new Column, and every Frame operation returns a new Frame.
// Frames may therefore share Column pointers without aliasing mutable state.
package frame

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind is the declared semantic type of a column.
type Kind int

// Numeric columns hold float64 values, Categorical columns hold codes into an ordered
// level set, and Text columns hold identifier text.
const (
	Numeric Kind = iota
	Categorical
	Text
)

// String returns the configuration spelling of the kind.
func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// ParseKind parses numeric, categorical or text (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "number", "float":
		return Numeric, nil
	case "categorical", "category", "factor":
		return Categorical, nil
	case "text", "string", "id":
		return Text, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// naCode is the categorical code of a missing cell.
const naCode = -1

// Column is a named, typed vector of cells.
type Column struct {
	name   string
	kind   Kind
	raw    []string
	na     []bool
	nums   []float64 // Numeric only; NaN where na
	codes  []int     // Categorical only; naCode where na
	levels []string  // Categorical only
}

func splitCells(cells []Cell) ([]string, []bool) {
	raw := make([]string, len(cells))
	na := make([]bool, len(cells))
	for i, c := range cells {
		na[i] = c.NA
		if !c.NA {
			raw[i] = c.Raw
		}
	}
	return raw, na
}

// NewText builds a Text column.
func NewText(name string, cells []Cell) *Column {
	raw, na := splitCells(cells)
	return &Column{name: name, kind: Text, raw: raw, na: na}
}

// NewNumeric builds a Numeric column from parsed values. Values where na is true are ignored.
// A nil na slice means no value is missing.
func NewNumeric(name string, values []float64, na []bool) *Column {
	c := &Column{
		name: name,
		kind: Numeric,
		raw:  make([]string, len(values)),
		na:   make([]bool, len(values)),
		nums: make([]float64, len(values)),
	}
	for i, v := range values {
		if (na != nil && na[i]) || math.IsNaN(v) {
			c.na[i] = true
			c.nums[i] = math.NaN()
			continue
		}
		c.nums[i] = v
		c.raw[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return c
}

// ParseNumeric builds a Numeric column by parsing every present cell as a finite float.
// NaN and infinite spellings are not numeric.
func ParseNumeric(name string, cells []Cell) (*Column, error) {
	raw, na := splitCells(cells)
	return parseNumeric(name, raw, na)
}

func parseNumeric(name string, raw []string, na []bool) (*Column, error) {
	nums := make([]float64, len(raw))
	for i := range raw {
		if na[i] {
			nums[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw[i]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: column %q row %d value %q", ErrNotNumeric, name, i+1, raw[i])
		}
		nums[i] = v
	}
	return &Column{name: name, kind: Numeric, raw: raw, na: na, nums: nums}, nil
}

// NewCategorical builds a Categorical column. When levels is nil the level set is the
// DefaultLevels of the present values; otherwise every present value must be a level.
func NewCategorical(name string, cells []Cell, levels []string) (*Column, error) {
	raw, na := splitCells(cells)
	return categorical(name, raw, na, levels)
}

func categorical(name string, raw []string, na []bool, levels []string) (*Column, error) {
	if levels == nil {
		present := make([]string, 0, len(raw))
		for i, v := range raw {
			if !na[i] {
				present = append(present, v)
			}
		}
		levels = DefaultLevels(present)
	} else {
		levels = append([]string(nil), levels...)
	}
	pos := make(map[string]int, len(levels))
	for i, l := range levels {
		if _, dup := pos[l]; dup {
			return nil, fmt.Errorf("%w: column %q lists level %q twice", ErrUnknownLevel, name, l)
		}
		pos[l] = i
	}
	codes := make([]int, len(raw))
	for i, v := range raw {
		if na[i] {
			codes[i] = naCode
			continue
		}
		code, ok := pos[v]
		if !ok {
			return nil, fmt.Errorf("%w: column %q value %q", ErrUnknownLevel, name, v)
		}
		codes[i] = code
	}
	return &Column{name: name, kind: Categorical, raw: raw, na: na, codes: codes, levels: levels}, nil
}

// Infer builds a Numeric column when every present cell parses as a float and a
// Categorical column otherwise.
func Infer(name string, cells []Cell) *Column {
	raw, na := splitCells(cells)
	if c, err := parseNumeric(name, raw, na); err == nil {
		return c
	}
	// Deriving levels from the values cannot fail.
	c, _ := categorical(name, raw, na, nil)
	return c
}

// DefaultLevels returns the distinct values in deterministic order: numeric order when
// every value parses as a number, lexical order otherwise.
func DefaultLevels(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	nums := make(map[string]float64, len(out))
	numeric := true
	for _, v := range out {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			numeric = false
			break
		}
		nums[v] = f
	}
	if numeric {
		sort.Slice(out, func(i, j int) bool {
			if nums[out[i]] != nums[out[j]] {
				return nums[out[i]] < nums[out[j]]
			}
			return out[i] < out[j]
		})
	} else {
		sort.Strings(out)
	}
	return out
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the column kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.raw) }

// IsNA reports whether row i is missing.
func (c *Column) IsNA(i int) bool { return c.na[i] }

// Raw returns the canonical text of row i, empty when missing.
func (c *Column) Raw(i int) string { return c.raw[i] }

// Cell returns row i.
func (c *Column) Cell(i int) Cell {
	if c.na[i] {
		return Missing()
	}
	return Value(c.raw[i])
}

// Cells returns a copy of every cell.
func (c *Column) Cells() []Cell {
	out := make([]Cell, len(c.raw))
	for i := range c.raw {
		out[i] = c.Cell(i)
	}
	return out
}

// Float returns the value of row i of a Numeric column. ok is false when the row is
// missing or the column is not numeric.
func (c *Column) Float(i int) (float64, bool) {
	if c.kind != Numeric || c.na[i] {
		return math.NaN(), false
	}
	return c.nums[i], true
}

// Floats returns a copy of the numeric values, NaN where missing.
func (c *Column) Floats() []float64 {
	if c.kind != Numeric {
		return nil
	}
	return append([]float64(nil), c.nums...)
}

// Code returns the level index of row i of a Categorical column, -1 when missing.
func (c *Column) Code(i int) int {
	if c.kind != Categorical {
		return naCode
	}
	return c.codes[i]
}

// Levels returns a copy of the ordered level set of a Categorical column.
func (c *Column) Levels() []string {
	return append([]string(nil), c.levels...)
}

// NumNA returns the number of missing cells.
func (c *Column) NumNA() int {
	n := 0
	for _, m := range c.na {
		if m {
			n++
		}
	}
	return n
}

// Renamed returns the column under a new name.
func (c *Column) Renamed(name string) *Column {
	out := c.clone()
	out.name = name
	return out
}

// AsText returns the column as Text, keeping the raw text of every cell.
func (c *Column) AsText() *Column {
	return &Column{
		name: c.name,
		kind: Text,
		raw:  append([]string(nil), c.raw...),
		na:   append([]bool(nil), c.na...),
	}
}

// AsNumeric returns the column as Numeric, parsing the raw text of every present cell.
func (c *Column) AsNumeric() (*Column, error) {
	if c.kind == Numeric {
		return c.clone(), nil
	}
	return parseNumeric(c.name, append([]string(nil), c.raw...), append([]bool(nil), c.na...))
}

// AsCategorical returns the column as Categorical. A nil levels argument keeps the
// existing level order of a Categorical column and uses DefaultLevels otherwise.
func (c *Column) AsCategorical(levels []string) (*Column, error) {
	if levels == nil && c.kind == Categorical {
		return c.clone(), nil
	}
	return categorical(c.name, append([]string(nil), c.raw...), append([]bool(nil), c.na...), levels)
}

// WithFirstLevel returns a Categorical column whose level set starts with level, the
// remaining levels keeping their prior relative order.
func (c *Column) WithFirstLevel(level string) (*Column, error) {
	if c.kind != Categorical {
		return nil, fmt.Errorf("%w: column %q is %s", ErrUnknownLevel, c.name, c.kind)
	}
	first := -1
	for i, l := range c.levels {
		if l == level {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, fmt.Errorf("%w: column %q has no level %q", ErrUnknownLevel, c.name, level)
	}
	levels := make([]string, 0, len(c.levels))
	levels = append(levels, level)
	levels = append(levels, c.levels[:first]...)
	levels = append(levels, c.levels[first+1:]...)
	return categorical(c.name, append([]string(nil), c.raw...), append([]bool(nil), c.na...), levels)
}

// take gathers rows by index; a negative index yields a missing cell.
func (c *Column) take(idx []int) *Column {
	out := &Column{
		name:   c.name,
		kind:   c.kind,
		raw:    make([]string, len(idx)),
		na:     make([]bool, len(idx)),
		levels: append([]string(nil), c.levels...),
	}
	if c.kind == Numeric {
		out.nums = make([]float64, len(idx))
	}
	if c.kind == Categorical {
		out.codes = make([]int, len(idx))
	}
	for j, i := range idx {
		if i < 0 || c.na[i] {
			out.na[j] = true
			if out.nums != nil {
				out.nums[j] = math.NaN()
			}
			if out.codes != nil {
				out.codes[j] = naCode
			}
			continue
		}
		out.raw[j] = c.raw[i]
		if out.nums != nil {
			out.nums[j] = c.nums[i]
		}
		if out.codes != nil {
			out.codes[j] = c.codes[i]
		}
	}
	return out
}

func (c *Column) clone() *Column {
	out := &Column{
		name:   c.name,
		kind:   c.kind,
		raw:    append([]string(nil), c.raw...),
		na:     append([]bool(nil), c.na...),
		levels: append([]string(nil), c.levels...),
	}
	if c.nums != nil {
		out.nums = append([]float64(nil), c.nums...)
	}
	if c.codes != nil {
		out.codes = append([]int(nil), c.codes...)
	}
	return out
}
