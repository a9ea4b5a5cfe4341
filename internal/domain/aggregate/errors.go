package aggregate

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEmptySpec       = errors.New("aggregation spec has no aggregates or categoricals")
	ErrUnknownMetric   = errors.New("unknown metric")
	ErrDuplicateMetric = errors.New("duplicate metric")
	ErrNoChoices       = errors.New("categorical has neither choices nor a choice query")
	ErrChoiceQuery     = errors.New("choice query failed")
)
