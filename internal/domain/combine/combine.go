// Package combine selects which subsets of the generated feature tables
// become distinct matrices.
package combine

import (
	"fmt"
)

// Strategy names a feature-group combination rule.
type Strategy string

const (
	// StrategyAll emits one combination containing every table.
	StrategyAll Strategy = "all"
	// StrategyLeaveOneOut emits one combination per table, holding that
	// table out.
	StrategyLeaveOneOut Strategy = "leave-one-out"
	// StrategyLeaveOneIn emits one combination per table, containing
	// only that table.
	StrategyLeaveOneIn Strategy = "leave-one-in"
)

// Group is a named subset of feature tables.
type Group struct {
	Name   string
	Tables []string
}

// Combination is one feature subset to materialize as a matrix.
type Combination struct {
	// Name describes the combination for reporting, derived from the
	// strategy and the group it varies.
	Name   string
	Tables []string
}

// Combinations expands the groups under the given strategy. Every table
// a group references must exist in available, the set of tables the
// aggregation specs actually produce; an unknown reference fails before
// any matrix is built.
func Combinations(strategy Strategy, groups []Group, available []string) ([]Combination, error) {
	known := make(map[string]struct{}, len(available))
	for _, name := range available {
		known[name] = struct{}{}
	}
	for _, g := range groups {
		for _, table := range g.Tables {
			if _, ok := known[table]; !ok {
				return nil, fmt.Errorf("%w: group %q references table %q", ErrUnknownTable, g.Name, table)
			}
		}
	}

	switch strategy {
	case StrategyAll:
		return []Combination{{Name: string(StrategyAll), Tables: allTables(groups)}}, nil
	case StrategyLeaveOneOut:
		out := make([]Combination, 0, len(groups))
		for i, g := range groups {
			var tables []string
			for j, other := range groups {
				if j == i {
					continue
				}
				tables = append(tables, other.Tables...)
			}
			out = append(out, Combination{Name: "without-" + g.Name, Tables: tables})
		}
		return out, nil
	case StrategyLeaveOneIn:
		out := make([]Combination, 0, len(groups))
		for _, g := range groups {
			out = append(out, Combination{Name: "only-" + g.Name, Tables: append([]string(nil), g.Tables...)})
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

func allTables(groups []Group) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g.Tables...)
	}
	return out
}
