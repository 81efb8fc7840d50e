package frame_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/cohort/internal/domain/frame"
	. "github.com/smartystreets/goconvey/convey"
)

func cells(values ...string) []frame.Cell {
	out := make([]frame.Cell, len(values))
	for i, v := range values {
		if v == "NA" {
			out[i] = frame.Missing()
			continue
		}
		out[i] = frame.Value(v)
	}
	return out
}

func mustFrame(t *testing.T, cols ...*frame.Column) *frame.Frame {
	t.Helper()
	f, err := frame.New(cols...)
	if err != nil {
		t.Fatalf("build frame: %v", err)
	}
	return f
}

func rawColumn(f *frame.Frame, name string) []string {
	c, err := f.Column(name)
	if err != nil {
		return nil
	}
	out := make([]string, c.Len())
	for i := range out {
		if c.IsNA(i) {
			out[i] = "NA"
			continue
		}
		out[i] = c.Raw(i)
	}
	return out
}

func TestFrameConstruction(t *testing.T) {
	Convey("Given columns for a frame", t, func() {
		id := frame.NewText("subject_id", cells("A", "B", "C"))
		age := frame.Infer("age", cells("10", "11", "NA"))

		Convey("When the columns have equal length and distinct names", func() {
			f, err := frame.New(id, age)

			Convey("Then the frame exposes them in order", func() {
				So(err, ShouldBeNil)
				So(f.NumRows(), ShouldEqual, 3)
				So(f.Names(), ShouldResemble, []string{"subject_id", "age"})
				So(f.Has("age"), ShouldBeTrue)
				So(f.Has("sex"), ShouldBeFalse)
			})
		})

		Convey("When two columns share a name", func() {
			_, err := frame.New(id, id)

			Convey("Then construction fails", func() {
				So(errors.Is(err, frame.ErrColumnExists), ShouldBeTrue)
			})
		})

		Convey("When the lengths differ", func() {
			_, err := frame.New(id, frame.NewText("x", cells("1")))

			Convey("Then construction fails", func() {
				So(errors.Is(err, frame.ErrShape), ShouldBeTrue)
			})
		})
	})
}

func TestFrameProjection(t *testing.T) {
	Convey("Given a three-column frame", t, func() {
		f := mustFrame(t,
			frame.NewText("subject_id", cells("A", "B")),
			frame.Infer("age", cells("10", "11")),
			frame.Infer("sex", cells("M", "F")),
		)

		Convey("When selecting a subset", func() {
			out, err := f.Select("sex", "subject_id")

			Convey("Then only those columns remain in the requested order", func() {
				So(err, ShouldBeNil)
				So(out.Names(), ShouldResemble, []string{"sex", "subject_id"})
				So(f.NumCols(), ShouldEqual, 3)
			})
		})

		Convey("When selecting an absent column", func() {
			_, err := f.Select("income")

			Convey("Then ErrUnknownColumn is returned", func() {
				So(errors.Is(err, frame.ErrUnknownColumn), ShouldBeTrue)
			})
		})

		Convey("When dropping a column", func() {
			out, err := f.Drop("age")

			Convey("Then the rest are kept", func() {
				So(err, ShouldBeNil)
				So(out.Names(), ShouldResemble, []string{"subject_id", "sex"})
			})
		})

		Convey("When replacing a column", func() {
			out, err := f.Replace(frame.NewText("age", cells("x", "y")))

			Convey("Then the new frame has the new column and the old frame is untouched", func() {
				So(err, ShouldBeNil)
				So(rawColumn(out, "age"), ShouldResemble, []string{"x", "y"})
				So(rawColumn(f, "age"), ShouldResemble, []string{"10", "11"})
			})
		})
	})
}

func TestDropNA(t *testing.T) {
	Convey("Given 100 rows of which 12 have a missing field", t, func() {
		ids := make([]string, 100)
		values := make([]string, 100)
		other := make([]string, 100)
		for i := range ids {
			ids[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
			values[i] = "1"
			other[i] = "x"
		}
		for i := 0; i < 12; i++ {
			if i%2 == 0 {
				values[i*7] = "NA"
			} else {
				other[i*7] = "NA"
			}
		}
		f := mustFrame(t,
			frame.NewText("id", cells(ids...)),
			frame.Infer("v", cells(values...)),
			frame.Infer("w", cells(other...)),
		)

		Convey("When applying listwise deletion", func() {
			out, dropped := f.DropNA()

			Convey("Then exactly the 12 incomplete rows are removed", func() {
				So(out.NumRows(), ShouldEqual, 88)
				So(dropped, ShouldEqual, 12)
				for i := 0; i < out.NumRows(); i++ {
					So(out.Complete(i), ShouldBeTrue)
				}
			})
		})
	})
}

func TestLeftJoin(t *testing.T) {
	Convey("Given a base frame keyed by subject and event", t, func() {
		base := mustFrame(t,
			frame.NewText("subject_id", cells("A", "A", "B", "C")),
			frame.NewText("event_name", cells("base", "y3", "base", "base")),
		)

		Convey("When the source has unique keys covering some rows", func() {
			src := mustFrame(t,
				frame.NewText("subject_id", cells("C", "A")),
				frame.NewText("event_name", cells("base", "base")),
				frame.Infer("score", cells("7", "5")),
			)
			out, err := base.LeftJoin(src, "subject_id", "event_name")

			Convey("Then every base row is kept once with matched values", func() {
				So(err, ShouldBeNil)
				So(out.NumRows(), ShouldEqual, base.NumRows())
				want := []string{"5", "NA", "NA", "7"}
				if diff := cmp.Diff(want, rawColumn(out, "score")); diff != "" {
					t.Errorf("score mismatch (-want +got):\n%s", diff)
				}
				So(base.Has("score"), ShouldBeFalse)
			})
		})

		Convey("When the source repeats a composite key", func() {
			src := mustFrame(t,
				frame.NewText("subject_id", cells("A", "A")),
				frame.NewText("event_name", cells("base", "base")),
				frame.Infer("score", cells("1", "2")),
			)
			_, err := base.LeftJoin(src, "subject_id", "event_name")

			Convey("Then ErrJoinCardinality is returned", func() {
				So(errors.Is(err, frame.ErrJoinCardinality), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "subject_id=A")
			})
		})

		Convey("When a source key component is missing", func() {
			src := mustFrame(t,
				frame.NewText("subject_id", cells("NA", "NA")),
				frame.NewText("event_name", cells("base", "base")),
				frame.Infer("score", cells("1", "2")),
			)
			out, err := base.LeftJoin(src, "subject_id", "event_name")

			Convey("Then those rows neither match nor count as duplicates", func() {
				So(err, ShouldBeNil)
				So(out.MissingCounts()["score"], ShouldEqual, 4)
			})
		})

		Convey("When the source carries a column that already exists", func() {
			src := mustFrame(t,
				frame.NewText("subject_id", cells("A")),
				frame.NewText("event_name", cells("base")),
			)
			withExtra, err := base.With(frame.NewText("site", cells("s1", "s1", "s2", "s2")))
			So(err, ShouldBeNil)
			src, err = src.With(frame.NewText("site", cells("s9")))
			So(err, ShouldBeNil)
			_, err = withExtra.LeftJoin(src, "subject_id", "event_name")

			Convey("Then ErrColumnExists is returned", func() {
				So(errors.Is(err, frame.ErrColumnExists), ShouldBeTrue)
			})
		})
	})
}

func TestCheckUnique(t *testing.T) {
	Convey("Given a frame with a repeated composite key", t, func() {
		f := mustFrame(t,
			frame.NewText("subject_id", cells("A", "B", "A")),
			frame.NewText("event_name", cells("base", "base", "base")),
		)

		Convey("Then uniqueness on both keys fails", func() {
			So(errors.Is(f.CheckUnique("subject_id", "event_name"), frame.ErrJoinCardinality), ShouldBeTrue)
		})

		Convey("And uniqueness on an unknown key reports the column", func() {
			So(errors.Is(f.CheckUnique("visit"), frame.ErrUnknownColumn), ShouldBeTrue)
		})
	})
}
