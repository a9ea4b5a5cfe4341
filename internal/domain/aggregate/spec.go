package aggregate

import (
	"fmt"

	"github.com/okian/timefold/internal/domain/interval"
)

// Aggregate pairs a numeric quantity with the metrics to reduce it by.
type Aggregate struct {
	// Quantity names a numeric field on the source rows.
	Quantity string
	// Metrics are registry names applied to the selected values.
	Metrics []string
}

// Categorical expands a string column into one indicator per choice,
// crossed with each metric. Choices may be declared inline or discovered
// once per run by ChoiceQuery.
type Categorical struct {
	Column string
	// Choices is the fixed choice list; empty means use ChoiceQuery.
	Choices []string
	// ChoiceQuery is executed once per run and cached. Mutually
	// exclusive with Choices.
	ChoiceQuery string
	Metrics     []string
}

// Spec declares one family of spacetime features. Specs are read-only
// inputs fixed for an experiment run; every derived feature table is
// keyed by the spec's content.
type Spec struct {
	// Prefix namespaces every generated column and names the feature table.
	Prefix string

	// From references the source table or expression to read rows from.
	From string

	// KnowledgeDateColumn names the column carrying each row's knowledge
	// date in the backing store.
	KnowledgeDateColumn string

	// KnowledgeDateInclusive widens the selection boundary from
	// knowledge < as-of to knowledge <= as-of. This is the single most
	// consequential leakage decision in the system, so it is an explicit
	// field rather than an implicit convention.
	KnowledgeDateInclusive bool

	Aggregates   []Aggregate
	Categoricals []Categorical

	// Lookbacks are the time intervals to aggregate over; the unbounded
	// variant covers everything back to the beginning of time.
	Lookbacks []interval.Lookback

	// Groups are the grouping columns, e.g. entity_id or a district
	// column. Each group yields its own feature rows.
	Groups []string
}

// Validate checks the spec against a metric registry before any
// computation begins, so misconfiguration fails fast.
func (s Spec) Validate(reg *Registry) error {
	if s.Prefix == "" {
		return fmt.Errorf("%w: spec has no prefix", ErrEmptySpec)
	}
	if len(s.Aggregates) == 0 && len(s.Categoricals) == 0 {
		return fmt.Errorf("%w: prefix %q", ErrEmptySpec, s.Prefix)
	}
	if len(s.Lookbacks) == 0 {
		return fmt.Errorf("%w: prefix %q declares no intervals", ErrEmptySpec, s.Prefix)
	}
	if len(s.Groups) == 0 {
		return fmt.Errorf("%w: prefix %q declares no groups", ErrEmptySpec, s.Prefix)
	}
	for _, agg := range s.Aggregates {
		if agg.Quantity == "" {
			return fmt.Errorf("%w: aggregate under prefix %q has no quantity", ErrEmptySpec, s.Prefix)
		}
		if err := checkMetrics(reg, agg.Metrics, s.Prefix); err != nil {
			return err
		}
	}
	for _, cat := range s.Categoricals {
		if cat.Column == "" {
			return fmt.Errorf("%w: categorical under prefix %q has no column", ErrEmptySpec, s.Prefix)
		}
		if len(cat.Choices) == 0 && cat.ChoiceQuery == "" {
			return fmt.Errorf("%w: column %q under prefix %q", ErrNoChoices, cat.Column, s.Prefix)
		}
		if err := checkMetrics(reg, cat.Metrics, s.Prefix); err != nil {
			return err
		}
	}
	return nil
}

func checkMetrics(reg *Registry, names []string, prefix string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: empty metric list under prefix %q", ErrEmptySpec, prefix)
	}
	for _, name := range names {
		if _, ok := reg.Get(name); !ok {
			return fmt.Errorf("%w: %q under prefix %q", ErrUnknownMetric, name, prefix)
		}
	}
	return nil
}
