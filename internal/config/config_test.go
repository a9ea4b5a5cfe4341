package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/timefold/internal/config"
	"github.com/okian/timefold/internal/domain/combine"
)

func experimentConfig() *config.Config {
	cfg := config.New()
	cfg.Temporal = config.Temporal{
		BeginningOfTime:       "2010-01-01",
		ModelingStart:         "2012-01-01",
		ModelingEnd:           "2015-01-01",
		UpdateWindow:          "6months",
		TrainExampleFrequency: "1month",
		TestExampleFrequency:  "1month",
		TrainDurations:        []string{"1year", "2years"},
		TestDurations:         []string{"6months"},
		TrainLabelWindows:     []string{"6months"},
		TestLabelWindows:      []string{"6months"},
	}
	cfg.Features = []config.Feature{{
		Prefix:              "events",
		From:                "events",
		KnowledgeDateColumn: "knowledge_date",
		Intervals:           []string{"3months", "all"},
		Groups:              []string{"entity_id"},
		Aggregates:          []config.Aggregate{{Quantity: "amount", Metrics: []string{"count", "sum"}}},
	}}
	cfg.FeatureGroups = []config.FeatureGroup{{Name: "core", Tables: []string{"events"}}}
	cfg.Scoring = config.Scoring{
		SortSeed: 5,
		MetricGroups: []config.MetricGroup{
			{Metrics: []string{"precision", "recall"}, Percentiles: []float64{5, 10}},
		},
	}
	return cfg
}

func TestConfigNew(t *testing.T) {
	Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		Convey("Then it should have sensible defaults", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.MetricsAddr, ShouldEqual, ":9090")
			So(cfg.WorkerCount, ShouldEqual, runtime.NumCPU()*2)
			So(cfg.QueueSize, ShouldEqual, 4096)
			So(cfg.FeatureGroupStrategy, ShouldEqual, "all")
		})
	})
}

func TestTemporalConversion(t *testing.T) {
	Convey("Given a config with a valid temporal section", t, func() {
		cfg := experimentConfig()

		Convey("When converting to the domain configuration", func() {
			tc, err := cfg.TemporalConfig()

			Convey("Then the dates and intervals are parsed", func() {
				So(err, ShouldBeNil)
				So(tc.ModelingStart, ShouldEqual, time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC))
				So(tc.UpdateWindow.String(), ShouldEqual, "6months")
				So(tc.TrainDurations, ShouldHaveLength, 2)
				So(tc.Validate(), ShouldBeNil)
			})
		})
	})

	Convey("Given a temporal section with a malformed date", t, func() {
		cfg := experimentConfig()
		cfg.Temporal.ModelingStart = "01/01/2012"

		Convey("When converting", func() {
			_, err := cfg.TemporalConfig()

			Convey("Then the field is named in the error", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "modeling_start")
			})
		})
	})

	Convey("Given a temporal section with a malformed interval", t, func() {
		cfg := experimentConfig()
		cfg.Temporal.UpdateWindow = "6 fortnights"

		Convey("When converting", func() {
			_, err := cfg.TemporalConfig()

			Convey("Then conversion fails", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})

	Convey("Given a temporal section missing a date", t, func() {
		cfg := experimentConfig()
		cfg.Temporal.BeginningOfTime = ""

		Convey("When converting", func() {
			_, err := cfg.TemporalConfig()

			Convey("Then the missing field is reported", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "beginning_of_time")
			})
		})
	})
}

func TestFeatureConversion(t *testing.T) {
	Convey("Given a config with feature declarations", t, func() {
		cfg := experimentConfig()

		Convey("When converting to aggregation specs", func() {
			specs, err := cfg.FeatureSpecs()

			Convey("Then lookbacks keep the all sentinel distinct", func() {
				So(err, ShouldBeNil)
				So(specs, ShouldHaveLength, 1)
				So(specs[0].Lookbacks, ShouldHaveLength, 2)
				So(specs[0].Lookbacks[0].IsBounded(), ShouldBeTrue)
				So(specs[0].Lookbacks[1].IsBounded(), ShouldBeFalse)
			})
		})

		Convey("When an interval string is malformed", func() {
			cfg.Features[0].Intervals = []string{"nonsense"}
			_, err := cfg.FeatureSpecs()

			Convey("Then conversion fails naming the feature", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "events")
			})
		})
	})
}

func TestGroupAndScoringConversion(t *testing.T) {
	Convey("Given a config with groups and scoring", t, func() {
		cfg := experimentConfig()

		Convey("When converting the feature groups", func() {
			groups, strategy, err := cfg.CombineGroups()

			Convey("Then the strategy and groups carry over", func() {
				So(err, ShouldBeNil)
				So(strategy, ShouldEqual, combine.StrategyAll)
				So(groups, ShouldHaveLength, 1)
				So(groups[0].Name, ShouldEqual, "core")
			})
		})

		Convey("When the strategy is unknown", func() {
			cfg.FeatureGroupStrategy = "every-other"
			_, _, err := cfg.CombineGroups()

			Convey("Then conversion fails", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When converting a grid with a classifier list", func() {
			cfg.Grid = map[string]map[string][]interface{}{
				"sklearn.tree.DecisionTreeClassifier": {"max_depth": {1, 5}},
			}
			cfg.Classifiers = []string{"sklearn.tree.DecisionTreeClassifier"}
			gridCfg, known, err := cfg.GridConfig()

			Convey("Then the grid and registry carry over", func() {
				So(err, ShouldBeNil)
				So(gridCfg, ShouldHaveLength, 1)
				So(known, ShouldNotBeNil)
			})
		})

		Convey("When a grid is configured without classifiers", func() {
			cfg.Grid = map[string]map[string][]interface{}{
				"sklearn.tree.DecisionTreeClassifier": {"max_depth": {1, 5}},
			}
			_, _, err := cfg.GridConfig()

			Convey("Then conversion fails", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When converting the scoring section", func() {
			groups := cfg.MetricGroups()

			Convey("Then metric groups carry over", func() {
				So(groups, ShouldHaveLength, 1)
				So(groups[0].Metrics, ShouldResemble, []string{"precision", "recall"})
				So(groups[0].Percentiles, ShouldResemble, []float64{5, 10})
			})
		})
	})
}
