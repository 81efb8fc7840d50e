package frame

// Cell is a single raw value together with its missing flag.
type Cell struct {
	Raw string
	NA  bool
}

// Value returns a present cell holding raw.
func Value(raw string) Cell { return Cell{Raw: raw} }

// Missing returns a missing cell.
func Missing() Cell { return Cell{NA: true} }

// DefaultSentinels are the raw literals treated as missing when nothing else is configured.
// 999 and 777 are the refused / don't know codes of the source instruments.
var DefaultSentinels = []string{"", " ", "999", "777"} //nolint:gochecknoglobals // read-only default list

// Sentinels is a set of raw literals that are read as missing values.
// The zero value recognises nothing.
type Sentinels struct {
	set map[string]struct{}
}

// NewSentinels builds a sentinel set. Matching is exact on the raw field.
func NewSentinels(values ...string) Sentinels {
	s := Sentinels{set: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.set[v] = struct{}{}
	}
	return s
}

// IsMissing reports whether field is one of the sentinels.
func (s Sentinels) IsMissing(field string) bool {
	_, ok := s.set[field]
	return ok
}

// Cell converts a raw field into a Cell, applying the sentinel set.
func (s Sentinels) Cell(field string) Cell {
	if s.IsMissing(field) {
		return Missing()
	}
	return Value(field)
}

// Len returns the number of sentinel values.
func (s Sentinels) Len() int { return len(s.set) }
