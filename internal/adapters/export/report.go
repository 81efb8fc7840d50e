package export

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/okian/cohort/internal/domain/report"
)

// WriteReport writes r to path as YAML.
func WriteReport(path string, r *report.Report) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("%w: encode report: %w", ErrIO, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: encode report: %w", ErrIO, err)
	}
	return writeFile(path, &buf)
}
