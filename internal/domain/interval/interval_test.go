package interval_test

import (
	"errors"
	"testing"
	"time"

	interval "github.com/okian/timefold/internal/domain/interval"
	. "github.com/smartystreets/goconvey/convey"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	Convey("Given duration strings", t, func() {
		Convey("When parsing compact forms", func() {
			d, err := interval.Parse("6month")

			Convey("Then the magnitude and unit are recognized", func() {
				So(err, ShouldBeNil)
				So(d.Months, ShouldEqual, 6)
			})
		})

		Convey("When parsing spaced and plural forms", func() {
			cases := map[string]interval.Duration{
				"3 days":  {Days: 3},
				"1y":      {Years: 1},
				"2 weeks": {Weeks: 2},
				"12hours": {Hours: 12},
				"10 mons": {Months: 10},
			}
			for in, want := range cases {
				d, err := interval.Parse(in)
				So(err, ShouldBeNil)
				So(d, ShouldResemble, want)
			}
		})

		Convey("When parsing an unknown unit", func() {
			_, err := interval.Parse("5 fortnights")

			Convey("Then it should fail with ErrParse", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, interval.ErrParse), ShouldBeTrue)
			})
		})

		Convey("When parsing malformed magnitudes", func() {
			for _, in := range []string{"", "month", "-3 days", "3.5 days", "days 3"} {
				_, err := interval.Parse(in)
				So(errors.Is(err, interval.ErrParse), ShouldBeTrue)
			}
		})
	})
}

func TestCalendarArithmetic(t *testing.T) {
	Convey("Given calendar-aware duration application", t, func() {
		Convey("When adding one month to January 31", func() {
			got := interval.MustParse("1month").AddTo(date(2015, time.January, 31))

			Convey("Then it clamps to the last valid day of February", func() {
				So(got, ShouldEqual, date(2015, time.February, 28))
			})
		})

		Convey("When adding one month to January 31 of a leap year", func() {
			got := interval.MustParse("1month").AddTo(date(2016, time.January, 31))

			So(got, ShouldEqual, date(2016, time.February, 29))
		})

		Convey("When adding a year to February 29", func() {
			got := interval.MustParse("1year").AddTo(date(2016, time.February, 29))

			So(got, ShouldEqual, date(2017, time.February, 28))
		})

		Convey("When crossing a year boundary backward", func() {
			got := interval.MustParse("3month").SubFrom(date(2013, time.January, 1))

			So(got, ShouldEqual, date(2012, time.October, 1))
		})

		Convey("When subtracting months lands on a short month", func() {
			got := interval.MustParse("1month").SubFrom(date(2015, time.March, 31))

			So(got, ShouldEqual, date(2015, time.February, 28))
		})

		Convey("When applying days and weeks", func() {
			So(interval.MustParse("2weeks").AddTo(date(2015, time.January, 1)), ShouldEqual, date(2015, time.January, 15))
			So(interval.MustParse("10 days").SubFrom(date(2015, time.January, 11)), ShouldEqual, date(2015, time.January, 1))
		})
	})
}

func TestCompare(t *testing.T) {
	Convey("Given duration comparison by reference-date effect", t, func() {
		Convey("Then one month exceeds 30 days only through their effects", func() {
			month := interval.MustParse("1month")
			thirtyDays := interval.MustParse("30days")

			// January has 31 days, so from the reference date a month is longer.
			So(thirtyDays.Less(month), ShouldBeTrue)
			So(month.Less(thirtyDays), ShouldBeFalse)
		})

		Convey("Then strictly larger calendar durations always compare larger", func() {
			pairs := [][2]string{
				{"1day", "2days"},
				{"1week", "1month"},
				{"6month", "1year"},
				{"1hour", "1day"},
			}
			for _, p := range pairs {
				So(interval.MustParse(p[0]).Less(interval.MustParse(p[1])), ShouldBeTrue)
			}
		})

		Convey("Then equal-effect durations compare equal", func() {
			So(interval.MustParse("1week").Compare(interval.MustParse("7days")), ShouldEqual, 0)
		})
	})
}

func TestLookback(t *testing.T) {
	Convey("Given lookback parsing", t, func() {
		floor := date(1995, time.January, 1)
		asOf := date(2014, time.June, 1)

		Convey("When parsing the all sentinel", func() {
			lb, err := interval.ParseLookback("all")

			Convey("Then it is unbounded and starts at the floor", func() {
				So(err, ShouldBeNil)
				So(lb.IsBounded(), ShouldBeFalse)
				So(lb.Start(asOf, floor), ShouldEqual, floor)
				So(lb.String(), ShouldEqual, "all")
			})
		})

		Convey("When parsing a bounded lookback", func() {
			lb, err := interval.ParseLookback("6month")

			Convey("Then it starts the duration before the as-of date", func() {
				So(err, ShouldBeNil)
				So(lb.IsBounded(), ShouldBeTrue)
				So(lb.Start(asOf, floor), ShouldEqual, date(2013, time.December, 1))
			})
		})

		Convey("When parsing garbage", func() {
			_, err := interval.ParseLookback("sometimes")
			So(errors.Is(err, interval.ErrParse), ShouldBeTrue)
		})

		Convey("When round-tripping through text marshaling", func() {
			for _, s := range []string{"all", "3months", "2weeks"} {
				lb, err := interval.ParseLookback(s)
				So(err, ShouldBeNil)

				b, err := lb.MarshalText()
				So(err, ShouldBeNil)

				var back interval.Lookback
				So(back.UnmarshalText(b), ShouldBeNil)
				So(back.String(), ShouldEqual, lb.String())
			}
		})
	})
}
