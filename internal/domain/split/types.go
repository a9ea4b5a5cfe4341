// Package split turns a temporal configuration into leakage-free
// train/test splits over the modeling window.
package split

import (
	"fmt"
	"time"

	"github.com/okian/timefold/internal/domain/interval"
)

// TemporalConfig fixes the time window and cadences for one experiment.
// It is read-only once an experiment run starts.
type TemporalConfig struct {
	// BeginningOfTime is the earliest date any feature may draw on.
	BeginningOfTime time.Time

	// ModelingStart and ModelingEnd bound the as-of dates of all splits.
	ModelingStart time.Time
	ModelingEnd   time.Time

	// UpdateWindow is the gap between consecutive split as-of dates.
	UpdateWindow interval.Duration

	// Example frequencies space the as-of dates inside one matrix.
	TrainExampleFrequency interval.Duration
	TestExampleFrequency  interval.Duration

	// Duration and label-window candidate sets. The splitter emits the
	// full cross product per side.
	TrainDurations    []interval.Duration
	TestDurations     []interval.Duration
	TrainLabelWindows []interval.Duration
	TestLabelWindows  []interval.Duration
}

// Validate checks the invariants the rest of the pipeline relies on:
// beginning_of_time <= modeling_start < modeling_end, a non-zero update
// window, and non-empty candidate sets.
func (c TemporalConfig) Validate() error {
	if c.ModelingStart.Before(c.BeginningOfTime) {
		return fmt.Errorf("%w: modeling start %s precedes beginning of time %s",
			ErrInvalidBounds, c.ModelingStart.Format(dateLayout), c.BeginningOfTime.Format(dateLayout))
	}
	if !c.ModelingStart.Before(c.ModelingEnd) {
		return fmt.Errorf("%w: modeling start %s is not before modeling end %s",
			ErrInvalidBounds, c.ModelingStart.Format(dateLayout), c.ModelingEnd.Format(dateLayout))
	}
	if c.UpdateWindow.IsZero() {
		return fmt.Errorf("%w: update window must be non-zero", ErrInvalidBounds)
	}
	if c.TrainExampleFrequency.IsZero() || c.TestExampleFrequency.IsZero() {
		return fmt.Errorf("%w: example frequencies must be non-zero", ErrInvalidBounds)
	}
	if len(c.TrainDurations) == 0 || len(c.TestDurations) == 0 ||
		len(c.TrainLabelWindows) == 0 || len(c.TestLabelWindows) == 0 {
		return fmt.Errorf("%w: duration and label window sets must be non-empty", ErrInvalidBounds)
	}
	return nil
}

const dateLayout = "2006-01-02"

// MatrixDefinition describes one train or test matrix: the as-of dates it
// covers and the parameters that generated them. Definitions are immutable
// derived artifacts keyed by their content.
type MatrixDefinition struct {
	// AsOfDates is ascending and spaced by ExampleFrequency.
	AsOfDates []time.Time

	Duration         interval.Duration
	LabelWindow      interval.Duration
	ExampleFrequency interval.Duration
}

// FirstAsOf returns the earliest as-of date.
func (m MatrixDefinition) FirstAsOf() time.Time {
	return m.AsOfDates[0]
}

// LastAsOf returns the latest as-of date.
func (m MatrixDefinition) LastAsOf() time.Time {
	return m.AsOfDates[len(m.AsOfDates)-1]
}

// LabelEnd is the date by which every label in the matrix is resolved.
func (m MatrixDefinition) LabelEnd() time.Time {
	return m.LabelWindow.AddTo(m.LastAsOf())
}

// Split bundles the matrices that share one as-of boundary. Splits are
// independent of each other and safe to process in parallel.
type Split struct {
	// AsOf is the "now" of this split: training history ends at it and
	// test predictions start at it.
	AsOf time.Time

	// TrainMatrices holds one definition per (duration, label window)
	// pair, in the order the pairs were configured.
	TrainMatrices []MatrixDefinition

	// TestMatrices is ordered the same way using the test parameters.
	TestMatrices []MatrixDefinition
}

// CheckLeakage verifies that no training label window reaches past any
// test as-of date. A violation is a correctness bug and must abort the
// run; it is never silently corrected.
func (s Split) CheckLeakage() error {
	if len(s.TestMatrices) == 0 {
		return nil
	}
	earliestTest := s.TestMatrices[0].FirstAsOf()
	for _, tm := range s.TestMatrices {
		if f := tm.FirstAsOf(); f.Before(earliestTest) {
			earliestTest = f
		}
	}
	for _, tr := range s.TrainMatrices {
		if tr.LabelEnd().After(earliestTest) {
			return fmt.Errorf("%w: train labels resolve at %s, after first test as-of %s",
				ErrLeakage, tr.LabelEnd().Format(dateLayout), earliestTest.Format(dateLayout))
		}
	}
	return nil
}
