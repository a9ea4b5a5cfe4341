package aggregate

import (
	"fmt"

	"github.com/okian/timefold/internal/domain/interval"
)

// Column naming is a pure function of the spec so that repeated runs on
// identical inputs produce byte-identical schemas. The shapes are
//
//	{prefix}_{group}_{interval}_{quantity}_{metric}
//	{prefix}_{group}_{interval}_{column}_{choice}_{metric}
//
// in spec declaration order (choices in declared or discovered-sorted order).

func quantityColumn(prefix, group string, lb interval.Lookback, quantity, metric string) string {
	return fmt.Sprintf("%s_%s_%s_%s_%s", prefix, group, lb.ColumnToken(), quantity, metric)
}

func choiceColumn(prefix, group string, lb interval.Lookback, column, choice, metric string) string {
	return fmt.Sprintf("%s_%s_%s_%s_%s_%s", prefix, group, lb.ColumnToken(), column, choice, metric)
}

// columnNames lists every column of one (group, lookback) block in
// deterministic order.
func columnNames(spec Spec, group string, lb interval.Lookback, choices map[string][]string) []string {
	var cols []string
	for _, agg := range spec.Aggregates {
		for _, metric := range agg.Metrics {
			cols = append(cols, quantityColumn(spec.Prefix, group, lb, agg.Quantity, metric))
		}
	}
	for _, cat := range spec.Categoricals {
		for _, choice := range choices[cat.Column] {
			for _, metric := range cat.Metrics {
				cols = append(cols, choiceColumn(spec.Prefix, group, lb, cat.Column, choice, metric))
			}
		}
	}
	return cols
}
