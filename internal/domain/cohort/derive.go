package cohort

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/cohort/internal/domain/frame"
)

// Income band labels, in level order.
const (
	BandLow    = "<50k"
	BandMiddle = ">50k<200k"
	BandHigh   = ">=200k"
)

// IncomeBands is the ordered level set of the derived income band.
var IncomeBands = []string{BandLow, BandMiddle, BandHigh} //nolint:gochecknoglobals // fixed level order

// Policy decides what happens when the sex conditioning value of the pubertal status
// derivation is missing or unrecognised.
type Policy int

// Propagate yields a missing status; Strict fails the run.
const (
	Propagate Policy = iota
	Strict
)

// String returns the configuration spelling of the policy.
func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "propagate"
}

// ParsePolicy parses propagate or strict; the empty string means propagate.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "propagate":
		return Propagate, nil
	case "strict":
		return Strict, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// SexCodes are the raw sex values selecting the male or female source column.
type SexCodes struct {
	Male   string
	Female string
}

// DeriveStatus picks the male or female pubertal status by sex. With Propagate a
// missing or unrecognised sex gives a missing status; with Strict it is an error.
func DeriveStatus(policy Policy, codes SexCodes, sex, male, female frame.Cell) (frame.Cell, error) {
	switch {
	case sex.NA:
		if policy == Strict {
			return frame.Missing(), fmt.Errorf("%w: sex is missing", ErrInconsistentDerivation)
		}
		return frame.Missing(), nil
	case sex.Raw == codes.Male:
		return male, nil
	case sex.Raw == codes.Female:
		return female, nil
	default:
		if policy == Strict {
			return frame.Missing(), fmt.Errorf("%w: unrecognised sex %q", ErrInconsistentDerivation, sex.Raw)
		}
		return frame.Missing(), nil
	}
}

// IncomeBand maps a raw combined income code to its band: 1-6 low, 7-9 middle,
// 10 high. Anything else, including a missing code, is missing.
func IncomeBand(code frame.Cell) frame.Cell {
	if code.NA {
		return frame.Missing()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(code.Raw), 64)
	if err != nil || v != math.Trunc(v) {
		return frame.Missing()
	}
	switch {
	case v >= 1 && v <= 6:
		return frame.Value(BandLow)
	case v >= 7 && v <= 9:
		return frame.Value(BandMiddle)
	case v == 10:
		return frame.Value(BandHigh)
	default:
		return frame.Missing()
	}
}
