package source_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/timefold/internal/adapters/source"
	"github.com/okian/timefold/internal/domain/model"
)

type flakySource struct {
	mu       sync.Mutex
	failures int
	calls    int
	err      error
}

func (f *flakySource) Rows(context.Context, source.Request) ([]model.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []model.Row{{EntityID: "e1"}}, nil
}

func (f *flakySource) Choices(context.Context, string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []string{"red"}, nil
}

func TestMemorySource(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory source", t, func() {
		mem := source.NewMemory()
		rows := []model.Row{
			{EntityID: "e1", KnowledgeDate: time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC)},
			{EntityID: "e2", KnowledgeDate: time.Date(2014, 2, 1, 0, 0, 0, 0, time.UTC)},
		}
		mem.Load("events", rows)
		mem.SetChoices("select distinct color from events", []string{"blue", "red"})

		Convey("When reading a loaded table", func() {
			got, err := mem.Rows(ctx, source.Request{From: "events", KnowledgeDateColumn: "knowledge_date"})

			Convey("Then all rows come back", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].EntityID, ShouldEqual, "e1")
			})

			Convey("And mutating the result does not affect the store", func() {
				got[0].EntityID = "mutated"
				again, err := mem.Rows(ctx, source.Request{From: "events"})
				So(err, ShouldBeNil)
				So(again[0].EntityID, ShouldEqual, "e1")
			})
		})

		Convey("When reading an unknown table", func() {
			_, err := mem.Rows(ctx, source.Request{From: "missing"})

			Convey("Then the error identifies the table", func() {
				So(errors.Is(err, source.ErrUnknownTable), ShouldBeTrue)
			})
		})

		Convey("When running a registered discovery query", func() {
			choices, err := mem.Choices(ctx, "select distinct color from events")

			Convey("Then the registered choices come back", func() {
				So(err, ShouldBeNil)
				So(choices, ShouldResemble, []string{"blue", "red"})
			})
		})

		Convey("When running an unregistered discovery query", func() {
			_, err := mem.Choices(ctx, "select distinct size from events")

			Convey("Then a query error surfaces", func() {
				So(errors.Is(err, source.ErrQuery), ShouldBeTrue)
			})
		})
	})
}

func TestRetryingSource(t *testing.T) {
	ctx := context.Background()

	Convey("Given a source that fails transiently", t, func() {
		inner := &flakySource{
			failures: 2,
			err:      fmt.Errorf("%w: connection reset", source.ErrTransient),
		}
		retrying := source.NewRetrying(inner,
			source.WithMaxAttempts(4),
			source.WithBaseBackoff(time.Millisecond),
		)

		Convey("When reading rows", func() {
			rows, err := retrying.Rows(ctx, source.Request{From: "events"})

			Convey("Then the read eventually succeeds", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1)
				So(inner.calls, ShouldEqual, 3)
			})
		})
	})

	Convey("Given a source that always fails transiently", t, func() {
		inner := &flakySource{
			failures: 100,
			err:      fmt.Errorf("%w: connection reset", source.ErrTransient),
		}
		retrying := source.NewRetrying(inner,
			source.WithMaxAttempts(3),
			source.WithBaseBackoff(time.Millisecond),
		)

		Convey("When reading rows", func() {
			_, err := retrying.Rows(ctx, source.Request{From: "events"})

			Convey("Then the attempts are bounded", func() {
				So(errors.Is(err, source.ErrTransient), ShouldBeTrue)
				So(inner.calls, ShouldEqual, 3)
			})
		})
	})

	Convey("Given a source with a permanent failure", t, func() {
		inner := &flakySource{
			failures: 100,
			err:      fmt.Errorf("%w: relation does not exist", source.ErrQuery),
		}
		retrying := source.NewRetrying(inner,
			source.WithMaxAttempts(5),
			source.WithBaseBackoff(time.Millisecond),
		)

		Convey("When running a discovery query", func() {
			_, err := retrying.Choices(ctx, "select 1")

			Convey("Then there is no retry", func() {
				So(errors.Is(err, source.ErrQuery), ShouldBeTrue)
				So(inner.calls, ShouldEqual, 1)
			})
		})
	})
}
