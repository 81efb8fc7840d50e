package cohort

import "errors"

// Sentinel error kinds for cohort construction.
var (
	ErrInconsistentDerivation = errors.New("inconsistent derivation input")
	ErrUnknownPolicy          = errors.New("unknown derivation policy")
)
