package csvsource_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/cohort/internal/adapters/csvsource"
	"github.com/okian/cohort/internal/domain/frame"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given a base file with sentinel codes", t, func() {
		path := writeFile(t, "base.csv", "subject_id,event_name,age,income,sex\n"+
			"A,baseline_year_1_arm_1,10,999,M\n"+
			"B,baseline_year_1_arm_1,777,5,F\n"+
			"C,baseline_year_1_arm_1, ,,M\n")

		var hits int
		r := csvsource.New(csvsource.WithSentinelObserver(func(_ string, n int) { hits = n }))

		Convey("When loading it", func() {
			f, err := r.Load(ctx, path)
			So(err, ShouldBeNil)

			Convey("Then sentinel fields are missing rather than literal values", func() {
				income, _ := f.Column("income")
				So(income.Kind(), ShouldEqual, frame.Numeric)
				So(income.IsNA(0), ShouldBeTrue)
				v, ok := income.Float(1)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 5)
				So(income.IsNA(2), ShouldBeTrue)

				age, _ := f.Column("age")
				So(age.IsNA(1), ShouldBeTrue)
				So(age.IsNA(2), ShouldBeTrue)
				So(hits, ShouldEqual, 4)
			})

			Convey("And text columns are inferred categorical", func() {
				sex, _ := f.Column("sex")
				So(sex.Kind(), ShouldEqual, frame.Categorical)
				So(sex.Levels(), ShouldResemble, []string{"F", "M"})
			})
		})

		Convey("When a column type is declared", func() {
			r := csvsource.New(csvsource.WithColumnTypes(map[string]frame.Kind{"age": frame.Text}))
			f, err := r.Load(ctx, path)

			Convey("Then the declaration wins over inference", func() {
				So(err, ShouldBeNil)
				age, _ := f.Column("age")
				So(age.Kind(), ShouldEqual, frame.Text)
			})
		})

		Convey("When a numeric declaration meets text", func() {
			r := csvsource.New(csvsource.WithColumnTypes(map[string]frame.Kind{"sex": frame.Numeric}))
			_, err := r.Load(ctx, path)

			Convey("Then ErrFormat is returned", func() {
				So(errors.Is(err, csvsource.ErrFormat), ShouldBeTrue)
				So(errors.Is(err, frame.ErrNotNumeric), ShouldBeTrue)
			})
		})
	})

	Convey("Given a numeric-looking column with NaN and infinite spellings", t, func() {
		path := writeFile(t, "nonfinite.csv", "subject_id,event_name,x\nA,b,NaN\nB,b,1\nC,b,Inf\n")

		Convey("When the column is inferred", func() {
			f, err := csvsource.New().Load(ctx, path)
			So(err, ShouldBeNil)

			Convey("Then it is categorical and complete rows carry no NaN", func() {
				x, _ := f.Column("x")
				So(x.Kind(), ShouldEqual, frame.Categorical)
				_, ok := x.Float(0)
				So(ok, ShouldBeFalse)
				out, dropped := f.DropNA()
				So(dropped, ShouldEqual, 0)
				So(out.NumRows(), ShouldEqual, 3)
			})
		})

		Convey("When the column is declared numeric", func() {
			r := csvsource.New(csvsource.WithColumnTypes(map[string]frame.Kind{"x": frame.Numeric}))
			_, err := r.Load(ctx, path)

			Convey("Then ErrFormat is returned", func() {
				So(errors.Is(err, csvsource.ErrFormat), ShouldBeTrue)
				So(errors.Is(err, frame.ErrNotNumeric), ShouldBeTrue)
			})
		})
	})

	Convey("Given duplicated composite keys", t, func() {
		path := writeFile(t, "dup.csv", "subject_id,event_name,age\nA,b,1\nA,b,2\n")
		r := csvsource.New(csvsource.WithUniqueKey("subject_id", "event_name"))

		Convey("Then loading fails with ErrJoinCardinality", func() {
			_, err := r.Load(ctx, path)
			So(errors.Is(err, frame.ErrJoinCardinality), ShouldBeTrue)
		})
	})

	Convey("Given broken inputs", t, func() {
		r := csvsource.New()

		Convey("A missing file is an IO error", func() {
			_, err := r.Load(ctx, filepath.Join(t.TempDir(), "nope.csv"))
			So(errors.Is(err, csvsource.ErrIO), ShouldBeTrue)
		})

		Convey("An empty file has no header", func() {
			_, err := r.Load(ctx, writeFile(t, "empty.csv", ""))
			So(errors.Is(err, csvsource.ErrFormat), ShouldBeTrue)
		})

		Convey("A ragged row is a format error", func() {
			_, err := r.Load(ctx, writeFile(t, "ragged.csv", "a,b\n1,2\n3\n"))
			So(errors.Is(err, csvsource.ErrFormat), ShouldBeTrue)
		})

		Convey("A duplicated header is a format error", func() {
			_, err := r.Load(ctx, writeFile(t, "hdr.csv", "a,a\n1,2\n"))
			So(errors.Is(err, csvsource.ErrFormat), ShouldBeTrue)
		})
	})
}

func TestReadColumns(t *testing.T) {
	ctx := context.Background()

	Convey("Given a wide tab-separated source", t, func() {
		path := writeFile(t, "wide.tsv", "\ufeffextra1\tsubject_id\tevent_name\textra2\tnihtbx\n"+
			"x\tA\tbase\ty\t99\n"+
			"x\tB\tbase\ty\t999\n")
		r := csvsource.New(csvsource.WithDelimiter('\t'))

		Convey("When reading three columns", func() {
			f, err := r.ReadColumns(ctx, path, []string{"subject_id", "event_name", "nihtbx"})

			Convey("Then only those are kept and sentinels apply", func() {
				So(err, ShouldBeNil)
				So(f.Names(), ShouldResemble, []string{"subject_id", "event_name", "nihtbx"})
				c, _ := f.Column("nihtbx")
				So(c.IsNA(1), ShouldBeTrue)
				So(c.IsNA(0), ShouldBeFalse)
			})
		})

		Convey("When a requested column is absent", func() {
			_, err := r.ReadColumns(ctx, path, []string{"subject_id", "missing"})

			Convey("Then ErrUnknownColumn is returned", func() {
				So(errors.Is(err, frame.ErrUnknownColumn), ShouldBeTrue)
			})
		})

		Convey("When a reader copy drops the sentinel set", func() {
			raw := r.With(csvsource.WithSentinels())
			f, err := raw.ReadColumns(ctx, path, []string{"nihtbx"})

			Convey("Then 999 stays a value", func() {
				So(err, ShouldBeNil)
				c, _ := f.Column("nihtbx")
				v, ok := c.Float(1)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 999)
			})
		})
	})
}
