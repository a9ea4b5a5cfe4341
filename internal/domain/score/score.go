// Package score evaluates ranked model predictions against held-out
// labels, with reproducible tie-breaking.
package score

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/okian/timefold/pkg/metrics"
)

// Prediction pairs one entity's predicted score with its true label.
// A nil label means the outcome was unknown at labeling time; such
// entities rank normally but are excluded from metric numerators and
// denominators.
type Prediction struct {
	EntityID string
	Score    float64
	Label    *bool
}

// Result is one labeled score record: (model, metric, threshold or
// parameters) -> value.
type Result struct {
	ModelID   string
	Metric    string
	Threshold string // e.g. "5_pct" or "100_abs"; empty for full-ranking metrics
	Params    map[string]float64
	Value     float64
}

// Name renders the triage-style qualified metric name, e.g. "precision@5_pct".
func (r Result) Name() string {
	if r.Threshold == "" {
		return r.Metric
	}
	return r.Metric + "@" + r.Threshold
}

// MetricGroup declares which metrics to compute and at which cutoffs.
// Percentiles select the top share of the ranking, TopN an absolute
// prefix. Groups with neither are computed once over the full ranking,
// as are parameterized metrics.
type MetricGroup struct {
	Metrics     []string
	Percentiles []float64
	TopN        []int
	Params      map[string]float64
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithRegistry replaces the metric registry.
func WithRegistry(r *Registry) Option {
	return func(s *Scorer) {
		if r != nil {
			s.registry = r
		}
	}
}

// Scorer computes metric values over ranked predictions. The sort seed
// fixes tie resolution so results are reproducible across runs and
// machines.
type Scorer struct {
	registry *Registry
	sortSeed int64
}

// New creates a Scorer with the built-in metric registry.
func New(sortSeed int64, opts ...Option) *Scorer {
	s := &Scorer{
		registry: NewRegistry(),
		sortSeed: sortSeed,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate fails on any unknown metric name, before any model has been
// trained, so a typo cannot waste a whole run.
func (s *Scorer) Validate(groups []MetricGroup) error {
	for _, g := range groups {
		if len(g.Metrics) == 0 {
			return fmt.Errorf("%w: metric group with no metrics", ErrUnknownMetric)
		}
		for _, name := range g.Metrics {
			if _, ok := s.registry.Get(name); !ok {
				return fmt.Errorf("%w: %q", ErrUnknownMetric, name)
			}
		}
	}
	return nil
}

// Score evaluates every metric group against one model's predictions.
func (s *Scorer) Score(_ context.Context, modelID string, preds []Prediction, groups []MetricGroup) ([]Result, error) {
	if err := s.Validate(groups); err != nil {
		metrics.RecordScoringError()
		return nil, err
	}

	ranked := Rank(preds, s.sortSeed)

	var results []Result
	for _, g := range groups {
		for _, name := range g.Metrics {
			fn, _ := s.registry.Get(name)

			thresholded := false
			for _, pct := range g.Percentiles {
				k := cutoffForPercentile(pct, len(ranked))
				results = append(results, Result{
					ModelID:   modelID,
					Metric:    name,
					Threshold: fmt.Sprintf("%g_pct", pct),
					Params:    g.Params,
					Value:     fn(ranked, k, g.Params),
				})
				thresholded = true
			}
			for _, n := range g.TopN {
				k := n
				if k > len(ranked) {
					k = len(ranked)
				}
				results = append(results, Result{
					ModelID:   modelID,
					Metric:    name,
					Threshold: fmt.Sprintf("%d_abs", n),
					Params:    g.Params,
					Value:     fn(ranked, k, g.Params),
				})
				thresholded = true
			}
			if !thresholded {
				results = append(results, Result{
					ModelID: modelID,
					Metric:  name,
					Params:  g.Params,
					Value:   fn(ranked, len(ranked), g.Params),
				})
			}
		}
	}
	return results, nil
}

// Rank orders predictions by score descending. Entities with tied
// scores are ordered by a secondary key drawn from a seeded permutation,
// so the same seed and input always yield the same ranking.
func Rank(preds []Prediction, seed int64) []Prediction {
	out := append([]Prediction(nil), preds...)
	tiebreak := rand.New(rand.NewSource(seed)).Perm(len(out)) //nolint:gosec // deterministic seed is the point: reproducible tie resolution

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if out[idx[a]].Score != out[idx[b]].Score {
			return out[idx[a]].Score > out[idx[b]].Score
		}
		return tiebreak[idx[a]] < tiebreak[idx[b]]
	})

	ranked := make([]Prediction, len(out))
	for i, j := range idx {
		ranked[i] = out[j]
	}
	return ranked
}

// cutoffForPercentile converts a top-percentile threshold into a prefix
// length, rounding up so a non-zero percentile selects at least one entity.
func cutoffForPercentile(pct float64, total int) int {
	if pct <= 0 || total == 0 {
		return 0
	}
	k := int(math.Ceil(pct / 100 * float64(total)))
	if k > total {
		k = total
	}
	return k
}
