// Package cohort turns a normalized subject × event frame into the analysis-ready
// cohort frame: one row per subject with baseline covariates, a follow-up outcome,
// derived pubertal status and income band, and no missing values.
package cohort

import (
	"fmt"

	"github.com/okian/cohort/internal/domain/frame"
)

// Derivation names the columns feeding and produced by the derived covariates.
type Derivation struct {
	Sex        string
	Codes      SexCodes
	PDSMale    string
	PDSFemale  string
	PDS        string
	Income     string
	IncomeBand string
	Policy     Policy
}

// Spec describes how the cohort is extracted.
type Spec struct {
	Subject    string
	Event      string
	Baseline   string
	Followup   string
	Covariates []string // baseline projection, subject first
	Outcome    string
	Derivation Derivation
}

// Completion is the outcome of derivation and listwise deletion.
type Completion struct {
	Frame           *frame.Frame
	JoinedRows      int
	DroppedRows     int
	MissingByColumn map[string]int
}

// Builder builds cohort frames for one Spec.
type Builder struct {
	spec Spec
}

// New creates a Builder for spec.
func New(spec Spec) *Builder {
	spec.Covariates = append([]string(nil), spec.Covariates...)
	return &Builder{spec: spec}
}

// Spec returns the builder's spec.
func (b *Builder) Spec() Spec { return b.spec }

// covariates returns the baseline projection with the subject column first.
func (b *Builder) covariates() []string {
	out := []string{b.spec.Subject}
	for _, c := range b.spec.Covariates {
		if c != b.spec.Subject {
			out = append(out, c)
		}
	}
	return out
}

func (b *Builder) slice(f *frame.Frame, label string, columns []string) (*frame.Frame, error) {
	event, err := f.Column(b.spec.Event)
	if err != nil {
		return nil, err
	}
	rows := f.Filter(func(i int) bool {
		return !event.IsNA(i) && event.Raw(i) == label
	})
	out, err := rows.Select(columns...)
	if err != nil {
		return nil, err
	}
	if err := out.CheckUnique(b.spec.Subject); err != nil {
		return nil, err
	}
	return out, nil
}

// ExtractJoin projects the baseline rows to the covariate set and the follow-up rows to
// the outcome, then left-joins outcome onto covariates by subject. The result has one
// row per baseline subject; subjects without a follow-up row get a missing outcome.
func (b *Builder) ExtractJoin(f *frame.Frame) (*frame.Frame, error) {
	base, err := b.slice(f, b.spec.Baseline, b.covariates())
	if err != nil {
		return nil, fmt.Errorf("baseline slice %q: %w", b.spec.Baseline, err)
	}
	follow, err := b.slice(f, b.spec.Followup, []string{b.spec.Subject, b.spec.Outcome})
	if err != nil {
		return nil, fmt.Errorf("follow-up slice %q: %w", b.spec.Followup, err)
	}
	out, err := base.LeftJoin(follow, b.spec.Subject)
	if err != nil {
		return nil, fmt.Errorf("join follow-up outcome: %w", err)
	}
	return out, nil
}

// DeriveComplete adds the derived pubertal status and income band, drops the raw columns
// they supersede and removes every row that still has a missing value.
func (b *Builder) DeriveComplete(joined *frame.Frame) (Completion, error) {
	d := b.spec.Derivation
	cols := make(map[string]*frame.Column, 5)
	for _, name := range []string{b.spec.Subject, d.Sex, d.PDSMale, d.PDSFemale, d.Income} {
		c, err := joined.Column(name)
		if err != nil {
			return Completion{}, fmt.Errorf("derive: %w", err)
		}
		cols[name] = c
	}

	n := joined.NumRows()
	status := make([]frame.Cell, n)
	bands := make([]frame.Cell, n)
	for i := 0; i < n; i++ {
		s, err := DeriveStatus(d.Policy, d.Codes, cols[d.Sex].Cell(i), cols[d.PDSMale].Cell(i), cols[d.PDSFemale].Cell(i))
		if err != nil {
			return Completion{}, fmt.Errorf("derive %s for %s %q: %w", d.PDS, b.spec.Subject, cols[b.spec.Subject].Raw(i), err)
		}
		status[i] = s
		bands[i] = IncomeBand(cols[d.Income].Cell(i))
	}

	pds, err := frame.NewCategorical(d.PDS, status, nil)
	if err != nil {
		return Completion{}, fmt.Errorf("derive %s: %w", d.PDS, err)
	}
	band, err := frame.NewCategorical(d.IncomeBand, bands, IncomeBands)
	if err != nil {
		return Completion{}, fmt.Errorf("derive %s: %w", d.IncomeBand, err)
	}

	out, err := joined.With(pds)
	if err != nil {
		return Completion{}, fmt.Errorf("derive: %w", err)
	}
	if out, err = out.With(band); err != nil {
		return Completion{}, fmt.Errorf("derive: %w", err)
	}
	if out, err = out.Drop(d.PDSMale, d.PDSFemale, d.Income); err != nil {
		return Completion{}, fmt.Errorf("derive: %w", err)
	}

	missing := out.MissingCounts()
	complete, dropped := out.DropNA()
	return Completion{
		Frame:           complete,
		JoinedRows:      n,
		DroppedRows:     dropped,
		MissingByColumn: missing,
	}, nil
}
