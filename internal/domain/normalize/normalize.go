// Package normalize recasts column kinds once all variables are joined.
package normalize

import (
	"fmt"

	"github.com/okian/cohort/internal/domain/frame"
)

// Normalizer forces the subject column to text, casts the configured columns to
// categorical and puts the baseline event label first in the event level set.
type Normalizer struct {
	subject     string
	event       string
	baseline    string
	categorical []string
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithKeys sets the subject and event column names.
func WithKeys(subject, event string) Option {
	return func(n *Normalizer) {
		if subject != "" {
			n.subject = subject
		}
		if event != "" {
			n.event = event
		}
	}
}

// WithCategorical sets the columns cast to categorical.
func WithCategorical(columns ...string) Option {
	return func(n *Normalizer) {
		n.categorical = append([]string(nil), columns...)
	}
}

// New creates a Normalizer whose event levels start with baseline.
func New(baseline string, opts ...Option) *Normalizer {
	n := &Normalizer{
		subject:  "subject_id",
		event:    "event_name",
		baseline: baseline,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns a new frame with normalized column kinds. Every configured
// categorical column must exist.
func (n *Normalizer) Normalize(f *frame.Frame) (*frame.Frame, error) {
	for _, name := range n.categorical {
		if !f.Has(name) {
			return nil, fmt.Errorf("normalize: categorical column: %w: %q", frame.ErrUnknownColumn, name)
		}
	}

	subject, err := f.Column(n.subject)
	if err != nil {
		return nil, fmt.Errorf("normalize: subject column: %w", err)
	}
	out, err := f.Replace(subject.AsText())
	if err != nil {
		return nil, err
	}

	for _, name := range n.categorical {
		if name == n.subject || name == n.event {
			continue
		}
		col, _ := out.Column(name)
		cat, err := col.AsCategorical(nil)
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", name, err)
		}
		if out, err = out.Replace(cat); err != nil {
			return nil, err
		}
	}

	event, err := out.Column(n.event)
	if err != nil {
		return nil, fmt.Errorf("normalize: event column: %w", err)
	}
	// Levels are rebuilt from the values so the order never depends on how the
	// column was assembled by earlier joins.
	cat, err := event.AsText().AsCategorical(nil)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", n.event, err)
	}
	if cat, err = cat.WithFirstLevel(n.baseline); err != nil {
		return nil, fmt.Errorf("normalize %s: %w", n.event, err)
	}
	return out.Replace(cat)
}
