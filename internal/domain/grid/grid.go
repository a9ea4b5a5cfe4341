// Package grid expands declarative hyperparameter grids into concrete,
// reproducibly ordered model specifications.
package grid

import (
	"fmt"
	"sort"

	"github.com/okian/timefold/internal/domain/matrix"
	"github.com/okian/timefold/pkg/metrics"
)

// Config maps classifier identifiers to hyperparameter candidate lists.
// Identifiers are opaque strings validated against a classifier registry;
// values stay dynamic because classifiers are external plugins.
type Config map[string]map[string][]interface{}

// ModelSpec is one fully-resolved model: a classifier plus a single
// hyperparameter assignment.
type ModelSpec struct {
	Classifier string
	Params     map[string]interface{}
}

// GroupKey identifies the model group this spec belongs to: models with
// the same classifier, hyperparameters, feature names and extra matrix
// metadata are comparable across time splits. The key is a stable
// content hash.
func (s ModelSpec) GroupKey(featureNames []string, extra map[string]string) (string, error) {
	h, err := matrix.ContentHash(struct {
		Classifier string                 `json:"classifier"`
		Params     map[string]interface{} `json:"params"`
		Features   []string               `json:"features"`
		Extra      map[string]string      `json:"extra"`
	}{
		Classifier: s.Classifier,
		Params:     s.Params,
		Features:   featureNames,
		Extra:      extra,
	})
	if err != nil {
		return "", fmt.Errorf("model group key: %w", err)
	}
	return h, nil
}

// Expand produces the full cross product of hyperparameter values for
// each classifier. Ordering is deterministic: classifiers sorted,
// then parameter names sorted, values in declared order. Duplicate
// entries in a value list are preserved as distinct, logically redundant
// specs; deduplication is the caller's decision, not an accident of
// iteration.
func Expand(cfg Config, known *Registry) ([]ModelSpec, error) {
	classifiers := make([]string, 0, len(cfg))
	for name := range cfg {
		if known != nil && !known.Has(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownClassifier, name)
		}
		classifiers = append(classifiers, name)
	}
	sort.Strings(classifiers)

	var specs []ModelSpec
	for _, classifier := range classifiers {
		params := cfg[classifier]
		names := make([]string, 0, len(params))
		for name := range params {
			if len(params[name]) == 0 {
				return nil, fmt.Errorf("%w: classifier %q parameter %q has no candidates", ErrEmptyGrid, classifier, name)
			}
			names = append(names, name)
		}
		sort.Strings(names)

		if len(names) == 0 {
			// A classifier with no grid still yields its default configuration.
			specs = append(specs, ModelSpec{Classifier: classifier, Params: map[string]interface{}{}})
			continue
		}

		assignment := make([]int, len(names))
		for {
			spec := ModelSpec{Classifier: classifier, Params: make(map[string]interface{}, len(names))}
			for i, name := range names {
				spec.Params[name] = params[name][assignment[i]]
			}
			specs = append(specs, spec)

			// Odometer increment over the candidate lists, last name fastest.
			i := len(names) - 1
			for ; i >= 0; i-- {
				assignment[i]++
				if assignment[i] < len(params[names[i]]) {
					break
				}
				assignment[i] = 0
			}
			if i < 0 {
				break
			}
		}
	}

	metrics.RecordModelSpecs(len(specs))
	return specs, nil
}
