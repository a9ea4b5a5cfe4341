package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/timefold/internal/adapters/cache"
)

func TestGetOrCompute(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty cache", t, func() {
		c := cache.New()

		Convey("When computing a key twice", func() {
			var calls int32
			compute := func(context.Context) (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				return 42, nil
			}

			first, err1 := c.GetOrCompute(ctx, "k1", compute)
			second, err2 := c.GetOrCompute(ctx, "k1", compute)

			Convey("Then the compute runs once and both callers see the value", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldEqual, 42)
				So(second, ShouldEqual, 42)
				So(atomic.LoadInt32(&calls), ShouldEqual, 1)
				So(c.Len(), ShouldEqual, 1)
			})
		})

		Convey("When a compute fails", func() {
			boom := errors.New("boom")
			_, err := c.GetOrCompute(ctx, "k1", func(context.Context) (interface{}, error) {
				return nil, boom
			})

			Convey("Then nothing is published", func() {
				So(err, ShouldEqual, boom)
				So(c.Len(), ShouldEqual, 0)

				_, ok := c.Get("k1")
				So(ok, ShouldBeFalse)
			})

			Convey("And a later caller recomputes successfully", func() {
				value, err := c.GetOrCompute(ctx, "k1", func(context.Context) (interface{}, error) {
					return "recovered", nil
				})
				So(err, ShouldBeNil)
				So(value, ShouldEqual, "recovered")
				So(c.Len(), ShouldEqual, 1)
			})
		})

		Convey("When many goroutines race on the same key", func() {
			var calls int32
			compute := func(context.Context) (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				return "shared", nil
			}

			const workers = 32
			results := make([]interface{}, workers)
			var wg sync.WaitGroup
			wg.Add(workers)
			for i := 0; i < workers; i++ {
				go func(i int) {
					defer wg.Done()
					v, err := c.GetOrCompute(ctx, "k1", compute)
					if err == nil {
						results[i] = v
					}
				}(i)
			}
			wg.Wait()

			Convey("Then every caller sees the same value", func() {
				for i := 0; i < workers; i++ {
					So(results[i], ShouldEqual, "shared")
				}
				So(c.Len(), ShouldEqual, 1)
			})
		})

		Convey("When computing distinct keys", func() {
			_, err1 := c.GetOrCompute(ctx, "a", func(context.Context) (interface{}, error) { return 1, nil })
			_, err2 := c.GetOrCompute(ctx, "b", func(context.Context) (interface{}, error) { return 2, nil })

			Convey("Then the cache holds both", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(c.Len(), ShouldEqual, 2)
			})
		})
	})
}
