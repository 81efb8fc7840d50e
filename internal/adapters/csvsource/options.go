package csvsource

import "github.com/okian/cohort/internal/domain/frame"

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithDelimiter sets the field delimiter.
func WithDelimiter(delim rune) Option {
	return func(r *Reader) {
		if delim != 0 {
			r.delimiter = delim
		}
	}
}

// WithSentinels sets the raw literals read as missing.
func WithSentinels(values ...string) Option {
	return func(r *Reader) {
		r.sentinels = frame.NewSentinels(values...)
	}
}

// WithColumnTypes declares the kind of named columns. Undeclared columns are inferred.
func WithColumnTypes(types map[string]frame.Kind) Option {
	return func(r *Reader) {
		r.types = make(map[string]frame.Kind, len(types))
		for name, kind := range types {
			r.types[name] = kind
		}
	}
}

// WithUniqueKey names the composite key checked for uniqueness on Load.
func WithUniqueKey(columns ...string) Option {
	return func(r *Reader) {
		r.key = append([]string(nil), columns...)
	}
}

// WithSentinelObserver registers a callback receiving the number of sentinel hits per read.
func WithSentinelObserver(fn func(path string, hits int)) Option {
	return func(r *Reader) {
		r.onSentinels = fn
	}
}
