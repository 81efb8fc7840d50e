package service

import (
	"errors"
	"fmt"
)

// ErrStageOrder is returned when a stage runs before its predecessor or runs twice.
var ErrStageOrder = errors.New("pipeline stage out of order")

// Stage names one step of the pipeline.
type Stage string

// Pipeline stages, in execution order.
const (
	StageLoad           Stage = "load"
	StageAugment        Stage = "augment"
	StageNormalize      Stage = "normalize"
	StageExtractJoin    Stage = "extract_join"
	StageDeriveComplete Stage = "derive_complete"
	StageReport         Stage = "report"
)

// StageError reports the stage that failed and what it was working on: a file, a
// variable or a column.
type StageError struct {
	Stage   Stage
	Subject string
	Err     error
}

func (e *StageError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Subject, e.Err)
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e *StageError) Unwrap() error { return e.Err }
