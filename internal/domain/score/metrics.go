package score

import (
	"sort"
	"sync"
)

// Metric computes a value from a ranking and a cutoff: entities before
// the cutoff are the predicted positives. Parameterized metrics read
// their hyperparameters from params. Unlabeled entities are skipped.
type Metric func(ranked []Prediction, cutoff int, params map[string]float64) float64

// Registry maps metric names to implementations.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Metric
}

// NewRegistry returns a registry pre-loaded with the built-in metrics:
// precision, recall, false_positive_rate, accuracy, fbeta.
func NewRegistry() *Registry {
	return &Registry{
		funcs: map[string]Metric{
			"precision":           precision,
			"recall":              recall,
			"false_positive_rate": falsePositiveRate,
			"accuracy":            accuracy,
			"fbeta":               fbeta,
		},
	}
}

// Register adds a named metric, replacing any existing registration.
func (r *Registry) Register(name string, fn Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Get returns the metric registered under name.
func (r *Registry) Get(name string) (Metric, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered metric names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// counts tallies labeled outcomes inside and outside the cutoff.
type counts struct {
	tp, fp, fn, tn int
}

func tally(ranked []Prediction, cutoff int) counts {
	var c counts
	for i, p := range ranked {
		if p.Label == nil {
			continue
		}
		predicted := i < cutoff
		switch {
		case predicted && *p.Label:
			c.tp++
		case predicted && !*p.Label:
			c.fp++
		case !predicted && *p.Label:
			c.fn++
		default:
			c.tn++
		}
	}
	return c
}

func precision(ranked []Prediction, cutoff int, _ map[string]float64) float64 {
	c := tally(ranked, cutoff)
	if c.tp+c.fp == 0 {
		return 0
	}
	return float64(c.tp) / float64(c.tp+c.fp)
}

func recall(ranked []Prediction, cutoff int, _ map[string]float64) float64 {
	c := tally(ranked, cutoff)
	if c.tp+c.fn == 0 {
		return 0
	}
	return float64(c.tp) / float64(c.tp+c.fn)
}

func falsePositiveRate(ranked []Prediction, cutoff int, _ map[string]float64) float64 {
	c := tally(ranked, cutoff)
	if c.fp+c.tn == 0 {
		return 0
	}
	return float64(c.fp) / float64(c.fp+c.tn)
}

func accuracy(ranked []Prediction, cutoff int, _ map[string]float64) float64 {
	c := tally(ranked, cutoff)
	total := c.tp + c.fp + c.fn + c.tn
	if total == 0 {
		return 0
	}
	return float64(c.tp+c.tn) / float64(total)
}

// fbeta reads "beta" from params, defaulting to 1.
func fbeta(ranked []Prediction, cutoff int, params map[string]float64) float64 {
	beta := 1.0
	if b, ok := params["beta"]; ok && b > 0 {
		beta = b
	}
	p := precision(ranked, cutoff, nil)
	r := recall(ranked, cutoff, nil)
	if p == 0 && r == 0 {
		return 0
	}
	b2 := beta * beta
	return (1 + b2) * p * r / (b2*p + r)
}
