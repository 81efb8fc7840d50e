package report

import "errors"

// Sentinel error kinds for model frames and fits.
var (
	ErrTermKind    = errors.New("column kind cannot enter the model")
	ErrIncomplete  = errors.New("model frame has missing values")
	ErrTooFewRows  = errors.New("not enough rows for the model")
	ErrSingular    = errors.New("design matrix is singular")
	ErrEmptyCohort = errors.New("cohort frame is empty")
)
