package report

import (
	"fmt"

	"github.com/okian/cohort/internal/domain/frame"
	"gonum.org/v1/gonum/mat"
)

// Intercept is the term name of the constant column.
const Intercept = "(Intercept)"

// ModelSpec names the response, fixed-effect and grouping columns of a regression.
type ModelSpec struct {
	Response string   `yaml:"response"`
	Fixed    []string `yaml:"fixed"`
	Groups   []string `yaml:"groups,omitempty"`
}

// Grouping is the integer coding of one random-effect grouping column.
type Grouping struct {
	Name   string
	Levels []string
	Index  []int
}

// Design is the numeric input of a regression engine built from a cohort frame.
type Design struct {
	Response string
	Y        []float64
	X        *mat.Dense
	Terms    []string
	Groups   []Grouping
}

// NewDesign builds the design for spec. Numeric columns enter as-is; a categorical
// column with k levels enters as k-1 indicators against level 0. A categorical response
// must have two levels and is coded 0/1. The frame must be complete.
func NewDesign(f *frame.Frame, spec ModelSpec) (*Design, error) {
	n := f.NumRows()
	if n == 0 {
		return nil, ErrEmptyCohort
	}
	d := &Design{Response: spec.Response, Terms: []string{Intercept}}

	resp, err := f.Column(spec.Response)
	if err != nil {
		return nil, fmt.Errorf("response: %w", err)
	}
	if err := complete(resp); err != nil {
		return nil, err
	}
	switch {
	case resp.Kind() == frame.Numeric:
		d.Y = resp.Floats()
	case resp.Kind() == frame.Categorical && len(resp.Levels()) == 2:
		d.Y = make([]float64, n)
		for i := range d.Y {
			d.Y[i] = float64(resp.Code(i))
		}
	default:
		return nil, fmt.Errorf("%w: response %q is %s with %d levels", ErrTermKind, spec.Response, resp.Kind(), len(resp.Levels()))
	}

	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	columns := [][]float64{ones}
	for _, name := range spec.Fixed {
		c, err := f.Column(name)
		if err != nil {
			return nil, fmt.Errorf("fixed effect: %w", err)
		}
		if err := complete(c); err != nil {
			return nil, err
		}
		switch c.Kind() {
		case frame.Numeric:
			columns = append(columns, c.Floats())
			d.Terms = append(d.Terms, name)
		case frame.Categorical:
			levels := c.Levels()
			for code := 1; code < len(levels); code++ {
				ind := make([]float64, n)
				for i := range ind {
					if c.Code(i) == code {
						ind[i] = 1
					}
				}
				columns = append(columns, ind)
				d.Terms = append(d.Terms, fmt.Sprintf("%s[%s]", name, levels[code]))
			}
		default:
			return nil, fmt.Errorf("%w: fixed effect %q is %s", ErrTermKind, name, c.Kind())
		}
	}

	d.X = mat.NewDense(n, len(columns), nil)
	for j, col := range columns {
		d.X.SetCol(j, col)
	}

	for _, name := range spec.Groups {
		c, err := f.Column(name)
		if err != nil {
			return nil, fmt.Errorf("grouping: %w", err)
		}
		if err := complete(c); err != nil {
			return nil, err
		}
		d.Groups = append(d.Groups, grouping(c))
	}
	return d, nil
}

func complete(c *frame.Column) error {
	if n := c.NumNA(); n > 0 {
		return fmt.Errorf("%w: column %q has %d missing", ErrIncomplete, c.Name(), n)
	}
	return nil
}

func grouping(c *frame.Column) Grouping {
	g := Grouping{Name: c.Name(), Index: make([]int, c.Len())}
	if c.Kind() == frame.Categorical {
		g.Levels = c.Levels()
		for i := range g.Index {
			g.Index[i] = c.Code(i)
		}
		return g
	}
	raw := make([]string, c.Len())
	for i := range raw {
		raw[i] = c.Raw(i)
	}
	g.Levels = frame.DefaultLevels(raw)
	pos := make(map[string]int, len(g.Levels))
	for i, l := range g.Levels {
		pos[l] = i
	}
	for i, v := range raw {
		g.Index[i] = pos[v]
	}
	return g
}
