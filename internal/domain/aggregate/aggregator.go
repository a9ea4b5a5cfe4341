package aggregate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/timefold/internal/domain/interval"
	"github.com/okian/timefold/internal/domain/model"
	"github.com/okian/timefold/pkg/metrics"
)

// FeatureRow is one immutable output row: every quantity and categorical
// column of the spec, for one (entity, as-of date, group, lookback).
// Rows for a non-entity group carry the values of the entity's group key,
// so group-level features join onto entities without a separate lookup.
type FeatureRow struct {
	Group    string
	GroupKey string
	EntityID string
	AsOf     time.Time
	Lookback interval.Lookback
	// Values is keyed by the deterministic column names of the table.
	Values map[string]float64
}

// Table is the aggregation output for one (spec, as-of date) pair.
// Column order and naming are a pure function of the spec, so repeated
// runs over identical inputs produce byte-identical schemas.
type Table struct {
	Name    string
	AsOf    time.Time
	Columns []string
	Rows    []FeatureRow
}

// ChoiceResolver discovers categorical choices at runtime. Implementations
// typically run the configured query against the backing store.
type ChoiceResolver interface {
	Choices(ctx context.Context, query string) ([]string, error)
}

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithChoiceResolver sets the resolver used for choice-discovery queries.
func WithChoiceResolver(r ChoiceResolver) Option {
	return func(a *Aggregator) {
		if r != nil {
			a.resolver = r
		}
	}
}

// Aggregator computes feature tables. It is safe for concurrent use:
// aggregation reads are side-effect-free and the choice cache is the only
// shared state.
type Aggregator struct {
	registry *Registry
	resolver ChoiceResolver

	// choice-discovery results are resolved once per run and reused
	mu      sync.Mutex
	choices map[string][]string
}

// New creates an Aggregator backed by the given metric registry.
func New(registry *Registry, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry: registry,
		choices:  make(map[string][]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate builds the feature table for one spec at one as-of date.
// floor is the experiment's beginning of time, bounding unbounded
// lookbacks. rows must all come from the spec's source; order is
// irrelevant.
func (a *Aggregator) Aggregate(ctx context.Context, spec Spec, rows []model.Row, asOf, floor time.Time) (Table, error) {
	start := time.Now()
	defer func() {
		metrics.RecordAggregationLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := spec.Validate(a.registry); err != nil {
		return Table{}, err
	}

	choices, err := a.resolveChoices(ctx, spec)
	if err != nil {
		return Table{}, err
	}

	table := Table{Name: spec.Prefix, AsOf: asOf}

	// Knowable rows define the entity universe: an entity with any
	// knowable row gets a feature row per (group, lookback), zero-valued
	// when nothing falls inside that lookback. Non-entity groups resolve
	// each entity to its group key, so the group's values land on every
	// member entity.
	knowable := selectKnowable(spec, rows, asOf)
	entities := groupUniverse(knowable, model.EntityIDColumn)

	for _, group := range spec.Groups {
		members := membership(knowable, group)
		for _, lb := range spec.Lookbacks {
			cols := columnNames(spec, group, lb, choices)
			table.Columns = append(table.Columns, cols...)

			windowStart := lb.Start(asOf, floor)
			byKey := partition(knowable, group, windowStart)

			for _, entity := range entities {
				key, ok := members[entity]
				if !ok {
					continue
				}
				row := FeatureRow{
					Group:    group,
					GroupKey: key,
					EntityID: entity,
					AsOf:     asOf,
					Lookback: lb,
					Values:   make(map[string]float64, len(cols)),
				}
				a.fill(&row, spec, group, lb, byKey[key], choices)
				table.Rows = append(table.Rows, row)
			}
		}
	}

	metrics.RecordFeatureRows(len(table.Rows))
	return table, nil
}

// resolveChoices returns the choice list per categorical column, running
// each discovery query at most once per Aggregator lifetime.
func (a *Aggregator) resolveChoices(ctx context.Context, spec Spec) (map[string][]string, error) {
	out := make(map[string][]string, len(spec.Categoricals))
	for _, cat := range spec.Categoricals {
		if len(cat.Choices) > 0 {
			out[cat.Column] = cat.Choices
			continue
		}

		a.mu.Lock()
		cached, ok := a.choices[cat.ChoiceQuery]
		a.mu.Unlock()
		if ok {
			out[cat.Column] = cached
			continue
		}

		if a.resolver == nil {
			return nil, fmt.Errorf("%w: no resolver for query %q", ErrChoiceQuery, cat.ChoiceQuery)
		}
		discovered, err := a.resolver.Choices(ctx, cat.ChoiceQuery)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrChoiceQuery, cat.ChoiceQuery, err)
		}
		sort.Strings(discovered)

		a.mu.Lock()
		a.choices[cat.ChoiceQuery] = discovered
		a.mu.Unlock()
		out[cat.Column] = discovered
	}
	return out, nil
}

// fill computes every column of one feature row from the rows selected
// for its group key and lookback. Missing data reduces to zero, never an
// error: unseen choices and empty windows are expected.
func (a *Aggregator) fill(row *FeatureRow, spec Spec, group string, lb interval.Lookback, selected []model.Row, choices map[string][]string) {
	for _, agg := range spec.Aggregates {
		values := make([]float64, 0, len(selected))
		for _, r := range selected {
			if v, ok := r.Quantities[agg.Quantity]; ok {
				values = append(values, v)
			}
		}
		for _, metricName := range agg.Metrics {
			fn, _ := a.registry.Get(metricName)
			row.Values[quantityColumn(spec.Prefix, group, lb, agg.Quantity, metricName)] = fn(values)
		}
	}

	for _, cat := range spec.Categoricals {
		for _, choice := range choices[cat.Column] {
			indicators := make([]float64, 0, len(selected))
			for _, r := range selected {
				v, ok := r.Attribute(cat.Column)
				if !ok {
					continue
				}
				if v == choice {
					indicators = append(indicators, 1)
				} else {
					indicators = append(indicators, 0)
				}
			}
			for _, metricName := range cat.Metrics {
				fn, _ := a.registry.Get(metricName)
				row.Values[choiceColumn(spec.Prefix, group, lb, cat.Column, choice, metricName)] = fn(indicators)
			}
		}
	}
}

// selectKnowable filters rows by the knowledge-date boundary: strictly
// before the as-of date unless the spec declares same-day knowledge
// available.
func selectKnowable(spec Spec, rows []model.Row, asOf time.Time) []model.Row {
	out := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if spec.KnowledgeDateInclusive {
			if r.KnowledgeDate.After(asOf) {
				continue
			}
		} else if !r.KnowledgeDate.Before(asOf) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// groupUniverse returns the sorted distinct group keys among knowable rows.
func groupUniverse(rows []model.Row, group string) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		if key, ok := r.Attribute(group); ok {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// membership resolves each entity to its group key, taken from the row
// with the latest knowledge date. Equal dates resolve to the smaller key
// so the result is independent of input order.
func membership(rows []model.Row, group string) map[string]string {
	keys := make(map[string]string)
	latest := make(map[string]time.Time)
	for _, r := range rows {
		key, ok := r.Attribute(group)
		if !ok {
			continue
		}
		when, seen := latest[r.EntityID]
		switch {
		case !seen, r.KnowledgeDate.After(when):
			keys[r.EntityID] = key
			latest[r.EntityID] = r.KnowledgeDate
		case r.KnowledgeDate.Equal(when) && key < keys[r.EntityID]:
			keys[r.EntityID] = key
		}
	}
	return keys
}

// partition buckets rows by group key, keeping only rows at or after the
// window start.
func partition(rows []model.Row, group string, windowStart time.Time) map[string][]model.Row {
	out := make(map[string][]model.Row)
	for _, r := range rows {
		if r.KnowledgeDate.Before(windowStart) {
			continue
		}
		if key, ok := r.Attribute(group); ok {
			out[key] = append(out[key], r)
		}
	}
	return out
}
