package cohort_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/cohort/internal/domain/cohort"
	"github.com/okian/cohort/internal/domain/frame"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIncomeBand(t *testing.T) {
	Convey("Given every raw income code", t, func() {
		Convey("Then 1 through 6 are low", func() {
			for code := 1; code <= 6; code++ {
				So(cohort.IncomeBand(frame.Value(fmt.Sprint(code))), ShouldResemble, frame.Value("<50k"))
			}
		})

		Convey("And 7 through 9 are middle", func() {
			for code := 7; code <= 9; code++ {
				So(cohort.IncomeBand(frame.Value(fmt.Sprint(code))), ShouldResemble, frame.Value(">50k<200k"))
			}
		})

		Convey("And 10 is high", func() {
			So(cohort.IncomeBand(frame.Value("10")), ShouldResemble, frame.Value(">=200k"))
			So(cohort.IncomeBand(frame.Value("10.0")), ShouldResemble, frame.Value(">=200k"))
		})

		Convey("And everything else is missing", func() {
			for _, raw := range []string{"0", "11", "5.5", "-1", "abc", "777"} {
				So(cohort.IncomeBand(frame.Value(raw)).NA, ShouldBeTrue)
			}
			So(cohort.IncomeBand(frame.Missing()).NA, ShouldBeTrue)
		})
	})
}

func TestDeriveStatus(t *testing.T) {
	codes := cohort.SexCodes{Male: "M", Female: "F"}
	male, female := frame.Value("2"), frame.Value("4")

	Convey("Given male and female status values", t, func() {
		Convey("When sex is male or female", func() {
			m, err := cohort.DeriveStatus(cohort.Propagate, codes, frame.Value("M"), male, female)
			So(err, ShouldBeNil)
			f, err := cohort.DeriveStatus(cohort.Propagate, codes, frame.Value("F"), male, female)
			So(err, ShouldBeNil)

			Convey("Then the matching column is selected", func() {
				So(m, ShouldResemble, male)
				So(f, ShouldResemble, female)
			})
		})

		Convey("When sex is male but the male status is missing", func() {
			s, err := cohort.DeriveStatus(cohort.Strict, codes, frame.Value("M"), frame.Missing(), female)

			Convey("Then the status is missing without an error", func() {
				So(err, ShouldBeNil)
				So(s.NA, ShouldBeTrue)
			})
		})

		Convey("When sex is missing under the propagate policy", func() {
			s, err := cohort.DeriveStatus(cohort.Propagate, codes, frame.Missing(), male, female)

			Convey("Then the status is missing", func() {
				So(err, ShouldBeNil)
				So(s.NA, ShouldBeTrue)
			})
		})

		Convey("When sex is missing or unknown under the strict policy", func() {
			_, errMissing := cohort.DeriveStatus(cohort.Strict, codes, frame.Missing(), male, female)
			_, errUnknown := cohort.DeriveStatus(cohort.Strict, codes, frame.Value("X"), male, female)

			Convey("Then ErrInconsistentDerivation is returned", func() {
				So(errors.Is(errMissing, cohort.ErrInconsistentDerivation), ShouldBeTrue)
				So(errors.Is(errUnknown, cohort.ErrInconsistentDerivation), ShouldBeTrue)
			})
		})
	})
}

func TestParsePolicy(t *testing.T) {
	Convey("Given policy spellings", t, func() {
		p, err := cohort.ParsePolicy("")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, cohort.Propagate)

		p, err = cohort.ParsePolicy("Strict")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, cohort.Strict)
		So(p.String(), ShouldEqual, "strict")

		_, err = cohort.ParsePolicy("guess")
		So(errors.Is(err, cohort.ErrUnknownPolicy), ShouldBeTrue)
	})
}
