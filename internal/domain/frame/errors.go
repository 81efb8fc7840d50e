package frame

import "errors"

// Sentinel error kinds for frame operations. These allow errors.Is from callers.
var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrColumnExists    = errors.New("column already exists")
	ErrJoinCardinality = errors.New("join cardinality violated")
	ErrUnknownLevel    = errors.New("unknown categorical level")
	ErrNotNumeric      = errors.New("value is not numeric")
	ErrUnknownKind     = errors.New("unknown column kind")
	ErrShape           = errors.New("column length mismatch")
)
