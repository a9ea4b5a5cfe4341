package grid_test

import (
	"errors"
	"testing"

	grid "github.com/okian/timefold/internal/domain/grid"
	. "github.com/smartystreets/goconvey/convey"
)

func TestExpand(t *testing.T) {
	Convey("Given a grid configuration", t, func() {
		reg := grid.NewRegistry("forest", "logit")

		Convey("When expanding two parameters with two values each", func() {
			specs, err := grid.Expand(grid.Config{
				"forest": {
					"a": {1, 2},
					"b": {"x", "y"},
				},
			}, reg)

			Convey("Then exactly four specs cover all pairs", func() {
				So(err, ShouldBeNil)
				So(len(specs), ShouldEqual, 4)

				seen := make(map[[2]interface{}]bool)
				for _, s := range specs {
					So(s.Classifier, ShouldEqual, "forest")
					seen[[2]interface{}{s.Params["a"], s.Params["b"]}] = true
				}
				So(len(seen), ShouldEqual, 4)
			})
		})

		Convey("When expanding multiple classifiers", func() {
			specs, err := grid.Expand(grid.Config{
				"logit":  {"c": {0.1, 1.0}},
				"forest": {"n_estimators": {100}},
			}, reg)

			Convey("Then specs are ordered by sorted classifier name", func() {
				So(err, ShouldBeNil)
				So(len(specs), ShouldEqual, 3)
				So(specs[0].Classifier, ShouldEqual, "forest")
				So(specs[1].Classifier, ShouldEqual, "logit")
				So(specs[2].Classifier, ShouldEqual, "logit")
			})
		})

		Convey("When a value list contains duplicates", func() {
			specs, err := grid.Expand(grid.Config{
				"forest": {"n_estimators": {100, 100}},
			}, reg)

			Convey("Then the redundant specs are preserved, not collapsed", func() {
				So(err, ShouldBeNil)
				So(len(specs), ShouldEqual, 2)
				So(specs[0].Params, ShouldResemble, specs[1].Params)
			})
		})

		Convey("When expansion repeats on the same config", func() {
			cfg := grid.Config{
				"forest": {"a": {1, 2}, "b": {"x", "y"}},
				"logit":  {"c": {0.1}},
			}
			first, err := grid.Expand(cfg, reg)
			So(err, ShouldBeNil)
			second, err := grid.Expand(cfg, reg)
			So(err, ShouldBeNil)

			Convey("Then ordering is identical for reproducible numbering", func() {
				So(second, ShouldResemble, first)
			})
		})

		Convey("When the classifier is not registered", func() {
			_, err := grid.Expand(grid.Config{"svm": {"c": {1}}}, reg)

			So(errors.Is(err, grid.ErrUnknownClassifier), ShouldBeTrue)
		})

		Convey("When a parameter has an empty candidate list", func() {
			_, err := grid.Expand(grid.Config{"forest": {"a": {}}}, reg)

			So(errors.Is(err, grid.ErrEmptyGrid), ShouldBeTrue)
		})

		Convey("When a classifier declares no parameters", func() {
			specs, err := grid.Expand(grid.Config{"forest": {}}, reg)

			Convey("Then it yields its default configuration", func() {
				So(err, ShouldBeNil)
				So(len(specs), ShouldEqual, 1)
				So(len(specs[0].Params), ShouldEqual, 0)
			})
		})
	})
}

func TestGroupKey(t *testing.T) {
	Convey("Given a model spec", t, func() {
		spec := grid.ModelSpec{
			Classifier: "forest",
			Params:     map[string]interface{}{"n_estimators": 100, "max_depth": 5},
		}
		features := []string{"txn_entity_id_all_amount_sum"}
		extra := map[string]string{"train_duration": "1year"}

		Convey("Then equal attributes produce equal keys", func() {
			a, err := spec.GroupKey(features, extra)
			So(err, ShouldBeNil)

			same := grid.ModelSpec{
				Classifier: "forest",
				Params:     map[string]interface{}{"max_depth": 5, "n_estimators": 100},
			}
			b, err := same.GroupKey(features, extra)
			So(err, ShouldBeNil)
			So(b, ShouldEqual, a)
		})

		Convey("Then changed features or extra keys change the key", func() {
			a, _ := spec.GroupKey(features, extra)
			b, _ := spec.GroupKey([]string{"other_column"}, extra)
			c, _ := spec.GroupKey(features, map[string]string{"train_duration": "2year"})

			So(b, ShouldNotEqual, a)
			So(c, ShouldNotEqual, a)
		})
	})
}
