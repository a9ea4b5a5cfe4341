package matrix_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/timefold/internal/domain/matrix"
)

func TestReadLabelsCSV(t *testing.T) {
	Convey("Given a well-formed labels file", t, func() {
		input := strings.Join([]string{
			"entity_id,as_of_date,label",
			"e1,2014-01-01,1",
			"e2,2014-01-01,0",
			"e3,2014-01-01,",
			"e1,2014-07-01,true",
		}, "\n")

		Convey("When reading it", func() {
			labels, err := matrix.ReadLabelsCSV(strings.NewReader(input))

			Convey("Then every record becomes a label entry", func() {
				So(err, ShouldBeNil)
				So(labels, ShouldHaveLength, 4)

				jan := time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)
				So(*labels[matrix.LabelKey{EntityID: "e1", AsOf: jan}], ShouldBeTrue)
				So(*labels[matrix.LabelKey{EntityID: "e2", AsOf: jan}], ShouldBeFalse)
				So(labels[matrix.LabelKey{EntityID: "e3", AsOf: jan}], ShouldBeNil)
			})
		})
	})

	Convey("Given a file with a wrong header", t, func() {
		input := "id,date,outcome\ne1,2014-01-01,1"

		Convey("When reading it", func() {
			_, err := matrix.ReadLabelsCSV(strings.NewReader(input))

			Convey("Then reading fails", func() {
				So(errors.Is(err, matrix.ErrRead), ShouldBeTrue)
			})
		})
	})

	Convey("Given a file with an unparseable label", t, func() {
		input := "entity_id,as_of_date,label\ne1,2014-01-01,maybe"

		Convey("When reading it", func() {
			_, err := matrix.ReadLabelsCSV(strings.NewReader(input))

			Convey("Then the bad value is reported", func() {
				So(errors.Is(err, matrix.ErrRead), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "maybe")
			})
		})
	})
}
