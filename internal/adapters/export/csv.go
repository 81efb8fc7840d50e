// Package export writes finished frames and run reports to disk.
//
// Every file is written to a temporary sibling and renamed into place, so a failed
// run never leaves a truncated output behind.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/okian/cohort/internal/domain/frame"
)

const dirPerms = 0o750

// WriteCSV writes f to path with a header row. Missing cells are written as empty fields.
func WriteCSV(path string, f *frame.Frame) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(f.Names()); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	record := make([]string, f.NumCols())
	for _, row := range f.Records() {
		for j, c := range row {
			if c.NA {
				record[j] = ""
				continue
			}
			record[j] = c.Raw
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return writeFile(path, &buf)
}

func writeFile(path string, buf *bytes.Buffer) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerms); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := atomic.WriteFile(path, buf); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}
	return nil
}
