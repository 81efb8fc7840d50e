package csvsource

import "errors"

// Sentinel error kinds for reading delimited files.
var (
	ErrIO     = errors.New("read file failed")
	ErrFormat = errors.New("malformed delimited file")
)
