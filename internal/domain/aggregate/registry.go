// Package aggregate computes point-in-time-correct spacetime features:
// per-group, per-lookback aggregates over source rows whose knowledge
// date precedes an as-of date.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Reducer folds the selected quantity values into one feature value.
// Reducers must return a zero value for an empty input, never NaN.
type Reducer func(values []float64) float64

// Registry maps metric names to reducers. The built-in set can be
// extended with Register before an experiment run starts.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Reducer
}

// NewRegistry returns a registry pre-loaded with the built-in metrics:
// count, sum, avg, min, max, stddev.
func NewRegistry() *Registry {
	return &Registry{
		funcs: map[string]Reducer{
			"count":  func(vs []float64) float64 { return float64(len(vs)) },
			"sum":    sum,
			"avg":    avg,
			"min":    minOf,
			"max":    maxOf,
			"stddev": stddev,
		},
	}
}

// Register adds a named reducer. Re-registering a name fails so that a
// spec cannot silently change the meaning of an existing column.
func (r *Registry) Register(name string, fn Reducer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[name]; exists {
		return fmt.Errorf("%w: metric %q already registered", ErrDuplicateMetric, name)
	}
	if fn == nil {
		return fmt.Errorf("%w: metric %q has no reducer", ErrUnknownMetric, name)
	}
	r.funcs[name] = fn
	return nil
}

// Get returns the reducer registered under name.
func (r *Registry) Get(name string) (Reducer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered metric names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sum(vs []float64) float64 {
	var total float64
	for _, v := range vs {
		total += v
	}
	return total
}

func avg(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	return sum(vs) / float64(len(vs))
}

func minOf(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// stddev is the population standard deviation; zero for fewer than two values.
func stddev(vs []float64) float64 {
	if len(vs) < 2 {
		return 0
	}
	mean := avg(vs)
	var ss float64
	for _, v := range vs {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vs)))
}
