// Package report summarizes a finished cohort frame and fits the baseline regression.
// It only reads the frame it is given.
package report

import (
	"github.com/okian/cohort/internal/domain/frame"
)

// Report is the serializable outcome of a pipeline run.
type Report struct {
	RunID   string         `yaml:"run_id"`
	Joined  int            `yaml:"joined_rows"`
	Dropped int            `yaml:"dropped_rows"`
	Missing map[string]int `yaml:"missing_before_deletion,omitempty"`
	Cohort  Summary        `yaml:"cohort"`
	GroupBy string         `yaml:"group_by,omitempty"`
	Groups  []GroupSummary `yaml:"groups,omitempty"`
	Model   *ModelSpec     `yaml:"model,omitempty"`
	Fit     *Fit           `yaml:"fit,omitempty"`
}

// Build describes f, optionally by the levels of groupBy, and fits model when it names
// a response.
func Build(f *frame.Frame, model ModelSpec, groupBy string) (*Report, error) {
	r := &Report{Cohort: Describe(f)}
	if groupBy != "" {
		groups, err := DescribeBy(f, groupBy)
		if err != nil {
			return nil, err
		}
		r.GroupBy = groupBy
		r.Groups = groups
	}
	if model.Response == "" {
		return r, nil
	}
	d, err := NewDesign(f, model)
	if err != nil {
		return nil, err
	}
	fit, err := FitOLS(d)
	if err != nil {
		return nil, err
	}
	r.Model = &model
	r.Fit = fit
	return r, nil
}
