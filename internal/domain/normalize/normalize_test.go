package normalize_test

import (
	"errors"
	"testing"

	"github.com/okian/cohort/internal/domain/frame"
	"github.com/okian/cohort/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	baseline = "baseline_year_1_arm_1"
	followup = "3_year_follow_up_y_arm_1"
)

func values(vs ...string) []frame.Cell {
	out := make([]frame.Cell, len(vs))
	for i, v := range vs {
		out[i] = frame.Value(v)
	}
	return out
}

func input(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.New(
		frame.Infer("subject_id", values("101", "101", "102")),
		frame.NewText("event_name", values(followup, baseline, followup)),
		frame.Infer("site_id", values("3", "3", "12")),
		frame.Infer("sex", values("M", "M", "F")),
		frame.Infer("age", values("9", "12", "10")),
	)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestNormalize(t *testing.T) {
	Convey("Given a frame with numeric-looking ids and follow-up rows first", t, func() {
		f := input(t)
		n := normalize.New(baseline, normalize.WithCategorical("site_id", "sex", "event_name"))

		Convey("When normalizing", func() {
			out, err := n.Normalize(f)
			So(err, ShouldBeNil)

			Convey("Then the subject id is text", func() {
				c, _ := out.Column("subject_id")
				So(c.Kind(), ShouldEqual, frame.Text)
				So(c.Raw(0), ShouldEqual, "101")
			})

			Convey("And listed columns are categorical", func() {
				c, _ := out.Column("site_id")
				So(c.Kind(), ShouldEqual, frame.Categorical)
				So(c.Levels(), ShouldResemble, []string{"3", "12"})
				age, _ := out.Column("age")
				So(age.Kind(), ShouldEqual, frame.Numeric)
			})

			Convey("And the baseline label is the first event level", func() {
				c, _ := out.Column("event_name")
				So(c.Levels(), ShouldResemble, []string{baseline, followup})
				So(c.Code(1), ShouldEqual, 0)
			})

			Convey("And the input frame is untouched", func() {
				c, _ := f.Column("subject_id")
				So(c.Kind(), ShouldEqual, frame.Numeric)
			})
		})

		Convey("When a configured column is absent", func() {
			n := normalize.New(baseline, normalize.WithCategorical("site_id", "device_id"))
			_, err := n.Normalize(f)

			Convey("Then ErrUnknownColumn names it", func() {
				So(errors.Is(err, frame.ErrUnknownColumn), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "device_id")
			})
		})

		Convey("When the baseline label never occurs", func() {
			n := normalize.New("baseline_year_0")
			_, err := n.Normalize(f)

			Convey("Then ErrUnknownLevel is returned", func() {
				So(errors.Is(err, frame.ErrUnknownLevel), ShouldBeTrue)
			})
		})
	})
}
