package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/timefold/internal/app"
	"github.com/okian/timefold/internal/adapters/source"
	"github.com/okian/timefold/internal/domain/aggregate"
	"github.com/okian/timefold/internal/domain/interval"
	"github.com/okian/timefold/internal/domain/split"
	"github.com/okian/timefold/pkg/logger"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func validTemporal() split.TemporalConfig {
	return split.TemporalConfig{
		BeginningOfTime:       time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		ModelingStart:         time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC),
		ModelingEnd:           time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdateWindow:          interval.MustParse("6months"),
		TrainExampleFrequency: interval.MustParse("6months"),
		TestExampleFrequency:  interval.MustParse("3months"),
		TrainDurations:        []interval.Duration{interval.MustParse("1year")},
		TestDurations:         []interval.Duration{interval.MustParse("6months")},
		TrainLabelWindows:     []interval.Duration{interval.MustParse("6months")},
		TestLabelWindows:      []interval.Duration{interval.MustParse("3months")},
	}
}

func TestServiceValidation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service without a source", t, func() {
		svc := service.New(service.WithTemporalConfig(validTemporal()))

		Convey("When the run starts", func() {
			_, err := svc.Run(ctx)

			Convey("Then it fails before doing any work", func() {
				So(errors.Is(err, service.ErrNoSource), ShouldBeTrue)
			})
		})
	})

	Convey("Given a service with inverted modeling bounds", t, func() {
		cfg := validTemporal()
		cfg.ModelingEnd = cfg.ModelingStart
		svc := service.New(
			service.WithSource(source.NewMemory()),
			service.WithTemporalConfig(cfg),
		)

		Convey("When the run starts", func() {
			_, err := svc.Run(ctx)

			Convey("Then the temporal config is rejected", func() {
				So(errors.Is(err, split.ErrInvalidBounds), ShouldBeTrue)
			})
		})
	})

	Convey("Given a feature spec naming an unknown reducer", t, func() {
		svc := service.New(
			service.WithSource(source.NewMemory()),
			service.WithTemporalConfig(validTemporal()),
			service.WithFeatureSpecs([]aggregate.Spec{{
				Prefix:              "events",
				From:                "events",
				KnowledgeDateColumn: "knowledge_date",
				Aggregates:          []aggregate.Aggregate{{Quantity: "amount", Metrics: []string{"median"}}},
				Lookbacks:           []interval.Lookback{interval.Unbounded()},
				Groups:              []string{"entity_id"},
			}}),
		)

		Convey("When the run starts", func() {
			_, err := svc.Run(ctx)

			Convey("Then validation fails fast", func() {
				So(errors.Is(err, aggregate.ErrUnknownMetric), ShouldBeTrue)
			})
		})
	})
}
