// Package csvsource reads delimited text files with a header row into frames.
package csvsource

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/cohort/internal/domain/frame"
)

// Default reader configuration constants.
const (
	defaultDelimiter = ','
	ctxCheckEvery    = 4096
	utf8BOM          = "\ufeff"
)

// Reader loads delimited files, applying a sentinel policy and column type declarations.
type Reader struct {
	delimiter   rune
	sentinels   frame.Sentinels
	types       map[string]frame.Kind
	key         []string
	onSentinels func(path string, hits int)
}

// New creates a Reader. Without options it splits on commas and treats
// frame.DefaultSentinels as missing.
func New(opts ...Option) *Reader {
	r := &Reader{
		delimiter: defaultDelimiter,
		sentinels: frame.NewSentinels(frame.DefaultSentinels...),
		types:     map[string]frame.Kind{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// With returns a copy of the reader with extra options applied.
func (r *Reader) With(opts ...Option) *Reader {
	cp := *r
	cp.key = append([]string(nil), r.key...)
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Load reads every column of the file at path. When a unique key was configured and
// all of its columns are present, duplicated keys fail with frame.ErrJoinCardinality.
func (r *Reader) Load(ctx context.Context, path string) (*frame.Frame, error) {
	f, err := r.read(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	if len(r.key) > 0 && hasAll(f, r.key) {
		if err := f.CheckUnique(r.key...); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return f, nil
}

// ReadColumns reads only the named columns of the file at path, in the given order.
func (r *Reader) ReadColumns(ctx context.Context, path string, columns []string) (*frame.Frame, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s: no columns requested", ErrFormat, path)
	}
	return r.read(ctx, path, columns)
}

func hasAll(f *frame.Frame, names []string) bool {
	for _, n := range names {
		if !f.Has(n) {
			return false
		}
	}
	return true
}

func (r *Reader) read(ctx context.Context, path string, want []string) (*frame.Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer fh.Close()

	cr := csv.NewReader(bufio.NewReader(fh))
	cr.Comma = r.delimiter
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: no header row", ErrFormat, path)
		}
		return nil, r.classify(path, err)
	}
	header = append([]string(nil), header...)
	header[0] = strings.TrimPrefix(header[0], utf8BOM)

	pos := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := pos[name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicated header %q", ErrFormat, path, name)
		}
		pos[name] = i
	}

	names := want
	if names == nil {
		names = header
	}
	idx := make([]int, len(names))
	for i, name := range names {
		p, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("%s: %w: %q", path, frame.ErrUnknownColumn, name)
		}
		idx[i] = p
	}

	data := make([][]frame.Cell, len(names))
	hits := 0
	for line := 2; ; line++ {
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, r.classify(path, err)
		}
		for j, p := range idx {
			c := r.sentinels.Cell(rec[p])
			if c.NA {
				hits++
			}
			data[j] = append(data[j], c)
		}
	}
	if r.onSentinels != nil {
		r.onSentinels(path, hits)
	}

	cols := make([]*frame.Column, len(names))
	for j, name := range names {
		c, err := r.column(name, data[j])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFormat, path, err)
		}
		cols[j] = c
	}
	return frame.New(cols...)
}

func (r *Reader) column(name string, cells []frame.Cell) (*frame.Column, error) {
	kind, declared := r.types[name]
	if !declared {
		return frame.Infer(name, cells), nil
	}
	switch kind {
	case frame.Numeric:
		return frame.ParseNumeric(name, cells)
	case frame.Categorical:
		return frame.NewCategorical(name, cells, nil)
	default:
		return frame.NewText(name, cells), nil
	}
}

// classify maps a csv parse failure to ErrFormat and anything else to ErrIO.
func (r *Reader) classify(path string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %s: %w", ErrFormat, path, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrIO, path, err)
}
