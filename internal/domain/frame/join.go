package frame

import (
	"fmt"
	"strings"
)

// keySep separates key components; it cannot appear in delimited text fields.
const keySep = "\x1f"

func (f *Frame) keyColumns(keys []string) ([]*Column, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no join key", ErrUnknownColumn)
	}
	cols := make([]*Column, len(keys))
	for i, k := range keys {
		c, err := f.Column(k)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return cols, nil
}

// rowKey returns the encoded key of row. ok is false when any component is missing.
func rowKey(cols []*Column, row int) (string, bool) {
	if len(cols) == 1 {
		return cols[0].raw[row], !cols[0].na[row]
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		if c.na[row] {
			return "", false
		}
		parts[i] = c.raw[row]
	}
	return strings.Join(parts, keySep), true
}

func describeKey(keys []string, key string) string {
	parts := strings.Split(key, keySep)
	pairs := make([]string, len(parts))
	for i, p := range parts {
		name := "?"
		if i < len(keys) {
			name = keys[i]
		}
		pairs[i] = name + "=" + p
	}
	return strings.Join(pairs, ",")
}

// keyIndex maps every complete key to its row, failing on the first duplicated key.
func (f *Frame) keyIndex(keys []string) (map[string]int, error) {
	cols, err := f.keyColumns(keys)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, f.nrows)
	for row := 0; row < f.nrows; row++ {
		k, ok := rowKey(cols, row)
		if !ok {
			continue
		}
		if prev, dup := idx[k]; dup {
			return nil, fmt.Errorf("%w: key %s appears in rows %d and %d",
				ErrJoinCardinality, describeKey(keys, k), prev+1, row+1)
		}
		idx[k] = row
	}
	return idx, nil
}

// CheckUnique fails with ErrJoinCardinality when two rows share the same complete key.
func (f *Frame) CheckUnique(keys ...string) error {
	_, err := f.keyIndex(keys)
	return err
}

// LeftJoin keeps every row of f exactly once, in order, and appends the non-key
// columns of right matched on keys. Unmatched rows get missing cells. right must hold
// each key at most once; rows with a missing key component never match.
func (f *Frame) LeftJoin(right *Frame, keys ...string) (*Frame, error) {
	leftKeys, err := f.keyColumns(keys)
	if err != nil {
		return nil, err
	}
	idx, err := right.keyIndex(keys)
	if err != nil {
		return nil, err
	}

	isKey := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		isKey[k] = struct{}{}
	}
	for _, c := range right.cols {
		if _, ok := isKey[c.name]; ok {
			continue
		}
		if f.Has(c.name) {
			return nil, fmt.Errorf("%w: %q on both sides of join", ErrColumnExists, c.name)
		}
	}

	rows := make([]int, f.nrows)
	for row := range rows {
		rows[row] = -1
		if k, ok := rowKey(leftKeys, row); ok {
			if r, hit := idx[k]; hit {
				rows[row] = r
			}
		}
	}

	cols := f.Columns()
	for _, c := range right.cols {
		if _, ok := isKey[c.name]; ok {
			continue
		}
		cols = append(cols, c.take(rows))
	}
	return New(cols...)
}
