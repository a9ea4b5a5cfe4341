package config

import (
	"fmt"
	"time"

	"github.com/okian/timefold/internal/domain/aggregate"
	"github.com/okian/timefold/internal/domain/combine"
	"github.com/okian/timefold/internal/domain/grid"
	"github.com/okian/timefold/internal/domain/interval"
	"github.com/okian/timefold/internal/domain/score"
	"github.com/okian/timefold/internal/domain/split"
)

const dateLayout = "2006-01-02"

// TemporalConfig parses the string-typed temporal section into the
// splitter's configuration. Every parse failure surfaces here, before
// any computation begins.
func (c *Config) TemporalConfig() (split.TemporalConfig, error) {
	var out split.TemporalConfig
	var err error

	if out.BeginningOfTime, err = parseDate("temporal.beginning_of_time", c.Temporal.BeginningOfTime); err != nil {
		return out, err
	}
	if out.ModelingStart, err = parseDate("temporal.modeling_start", c.Temporal.ModelingStart); err != nil {
		return out, err
	}
	if out.ModelingEnd, err = parseDate("temporal.modeling_end", c.Temporal.ModelingEnd); err != nil {
		return out, err
	}
	if out.UpdateWindow, err = parseInterval("temporal.update_window", c.Temporal.UpdateWindow); err != nil {
		return out, err
	}
	if out.TrainExampleFrequency, err = parseInterval("temporal.train_example_frequency", c.Temporal.TrainExampleFrequency); err != nil {
		return out, err
	}
	if out.TestExampleFrequency, err = parseInterval("temporal.test_example_frequency", c.Temporal.TestExampleFrequency); err != nil {
		return out, err
	}
	if out.TrainDurations, err = parseIntervals("temporal.train_durations", c.Temporal.TrainDurations); err != nil {
		return out, err
	}
	if out.TestDurations, err = parseIntervals("temporal.test_durations", c.Temporal.TestDurations); err != nil {
		return out, err
	}
	if out.TrainLabelWindows, err = parseIntervals("temporal.train_label_windows", c.Temporal.TrainLabelWindows); err != nil {
		return out, err
	}
	if out.TestLabelWindows, err = parseIntervals("temporal.test_label_windows", c.Temporal.TestLabelWindows); err != nil {
		return out, err
	}

	return out, nil
}

// FeatureSpecs converts the feature declarations into aggregation specs.
func (c *Config) FeatureSpecs() ([]aggregate.Spec, error) {
	specs := make([]aggregate.Spec, 0, len(c.Features))
	for _, f := range c.Features {
		spec := aggregate.Spec{
			Prefix:                 f.Prefix,
			From:                   f.From,
			KnowledgeDateColumn:    f.KnowledgeDateColumn,
			KnowledgeDateInclusive: f.KnowledgeDateInclusive,
			Groups:                 append([]string(nil), f.Groups...),
		}
		for _, raw := range f.Intervals {
			lb, err := interval.ParseLookback(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: feature %q interval %q: %v", ErrInvalidConfig, f.Prefix, raw, err)
			}
			spec.Lookbacks = append(spec.Lookbacks, lb)
		}
		for _, agg := range f.Aggregates {
			spec.Aggregates = append(spec.Aggregates, aggregate.Aggregate{
				Quantity: agg.Quantity,
				Metrics:  append([]string(nil), agg.Metrics...),
			})
		}
		for _, cat := range f.Categoricals {
			spec.Categoricals = append(spec.Categoricals, aggregate.Categorical{
				Column:      cat.Column,
				Choices:     append([]string(nil), cat.Choices...),
				ChoiceQuery: cat.ChoiceQuery,
				Metrics:     append([]string(nil), cat.Metrics...),
			})
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// CombineGroups converts the feature-group section.
func (c *Config) CombineGroups() ([]combine.Group, combine.Strategy, error) {
	strategy := combine.Strategy(c.FeatureGroupStrategy)
	switch strategy {
	case combine.StrategyAll, combine.StrategyLeaveOneOut, combine.StrategyLeaveOneIn:
	default:
		return nil, "", fmt.Errorf("%w: unknown feature group strategy %q", ErrInvalidConfig, c.FeatureGroupStrategy)
	}

	groups := make([]combine.Group, 0, len(c.FeatureGroups))
	for _, g := range c.FeatureGroups {
		groups = append(groups, combine.Group{
			Name:   g.Name,
			Tables: append([]string(nil), g.Tables...),
		})
	}
	return groups, strategy, nil
}

// GridConfig converts the grid section and the classifier registry. A
// grid without a classifier list is rejected: without the registry every
// identifier would pass unvalidated.
func (c *Config) GridConfig() (grid.Config, *grid.Registry, error) {
	if len(c.Grid) > 0 && len(c.Classifiers) == 0 {
		return nil, nil, fmt.Errorf("%w: grid requires a classifiers list", ErrInvalidConfig)
	}

	cfg := make(grid.Config, len(c.Grid))
	for classifier, params := range c.Grid {
		cfg[classifier] = params
	}

	var known *grid.Registry
	if len(c.Classifiers) > 0 {
		known = grid.NewRegistry(c.Classifiers...)
	}
	return cfg, known, nil
}

// MetricGroups converts the scoring section.
func (c *Config) MetricGroups() []score.MetricGroup {
	groups := make([]score.MetricGroup, 0, len(c.Scoring.MetricGroups))
	for _, g := range c.Scoring.MetricGroups {
		groups = append(groups, score.MetricGroup{
			Metrics:     append([]string(nil), g.Metrics...),
			Percentiles: append([]float64(nil), g.Percentiles...),
			TopN:        append([]int(nil), g.TopN...),
			Params:      g.Params,
		})
	}
	return groups
}

func parseDate(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", ErrInvalidConfig, field)
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, field, err)
	}
	return t, nil
}

func parseInterval(field, raw string) (interval.Duration, error) {
	d, err := interval.Parse(raw)
	if err != nil {
		return interval.Duration{}, fmt.Errorf("%w: %s %q: %v", ErrInvalidConfig, field, raw, err)
	}
	return d, nil
}

func parseIntervals(field string, raws []string) ([]interval.Duration, error) {
	out := make([]interval.Duration, 0, len(raws))
	for _, raw := range raws {
		d, err := parseInterval(field, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
