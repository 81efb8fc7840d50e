// Package augment left-joins single variables from external files onto a frame by the
// composite subject/event key.
package augment

import (
	"context"
	"fmt"

	"github.com/okian/cohort/internal/domain/frame"
)

// ColumnReader reads only the named columns of a delimited file.
type ColumnReader interface {
	ReadColumns(ctx context.Context, path string, columns []string) (*frame.Frame, error)
}

// Source names one variable to pull from one file. Reader, when set, replaces the
// augmenter's reader for this source (e.g. a different sentinel policy).
type Source struct {
	Path     string
	Variable string
	Reader   ColumnReader
}

// Augmenter joins variables onto a base frame.
type Augmenter struct {
	reader  ColumnReader
	subject string
	event   string
	onJoin  func(variable string, matched int)
}

// Option applies a configuration option to the Augmenter.
type Option func(*Augmenter)

// WithKeys sets the subject and event key column names.
func WithKeys(subject, event string) Option {
	return func(a *Augmenter) {
		if subject != "" {
			a.subject = subject
		}
		if event != "" {
			a.event = event
		}
	}
}

// WithJoinObserver registers a callback receiving the number of matched rows per variable.
func WithJoinObserver(fn func(variable string, matched int)) Option {
	return func(a *Augmenter) {
		a.onJoin = fn
	}
}

// New creates an Augmenter reading through reader.
func New(reader ColumnReader, opts ...Option) *Augmenter {
	a := &Augmenter{
		reader:  reader,
		subject: "subject_id",
		event:   "event_name",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Augment reads {subject, event, variable} from path and left-joins it onto base.
// The result has exactly the rows of base, in order; base is not modified.
func (a *Augmenter) Augment(ctx context.Context, base *frame.Frame, path, variable string) (*frame.Frame, error) {
	return a.augment(ctx, base, Source{Path: path, Variable: variable})
}

// AugmentAll applies sources in order.
func (a *Augmenter) AugmentAll(ctx context.Context, base *frame.Frame, sources []Source) (*frame.Frame, error) {
	out := base
	for _, src := range sources {
		next, err := a.augment(ctx, out, src)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

func (a *Augmenter) augment(ctx context.Context, base *frame.Frame, src Source) (*frame.Frame, error) {
	if base.Has(src.Variable) {
		return nil, fmt.Errorf("augment %s from %s: %w: %q", src.Variable, src.Path, frame.ErrColumnExists, src.Variable)
	}
	reader := a.reader
	if src.Reader != nil {
		reader = src.Reader
	}
	right, err := reader.ReadColumns(ctx, src.Path, []string{a.subject, a.event, src.Variable})
	if err != nil {
		return nil, fmt.Errorf("augment %s from %s: %w", src.Variable, src.Path, err)
	}
	out, err := base.LeftJoin(right, a.subject, a.event)
	if err != nil {
		return nil, fmt.Errorf("augment %s from %s: %w", src.Variable, src.Path, err)
	}
	if a.onJoin != nil {
		col, _ := out.Column(src.Variable)
		a.onJoin(src.Variable, col.Len()-col.NumNA())
	}
	return out, nil
}
