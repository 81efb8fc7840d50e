package export

import "errors"

// Export errors.
var (
	ErrIO         = errors.New("export io error")
	ErrEmptyTable = errors.New("export table name is empty")
)
