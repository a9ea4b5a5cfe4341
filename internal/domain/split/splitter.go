package split

import (
	"context"
	"time"

	"github.com/okian/timefold/internal/domain/interval"
	"github.com/okian/timefold/pkg/logger"
	"github.com/okian/timefold/pkg/metrics"
)

// State tracks the splitter's position in the modeling window.
type State int

const (
	// StateBeforeStart means Next has not been called yet.
	StateBeforeStart State = iota
	// StateSplitting means the cursor is inside the modeling window.
	StateSplitting
	// StateExhausted means no further splits exist.
	StateExhausted
)

// Option applies a configuration option to the Splitter.
type Option func(*Splitter)

// WithLogger sets a custom logger for the splitter.
func WithLogger(l logger.Logger) Option {
	return func(s *Splitter) {
		if l != nil {
			s.logger = l
		}
	}
}

// Splitter walks the modeling window forward by the update window,
// emitting one Split per step in chronological order so downstream
// numbering is reproducible.
type Splitter struct {
	cfg    TemporalConfig
	state  State
	cursor time.Time
	logger logger.Logger
}

// NewSplitter validates the configuration and returns a splitter
// positioned before the first split.
func NewSplitter(cfg TemporalConfig, opts ...Option) (*Splitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Splitter{
		cfg:    cfg,
		state:  StateBeforeStart,
		logger: nil, // resolved lazily so tests need not Init the global logger
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// State returns the splitter's current state.
func (s *Splitter) State() State { return s.state }

// Next emits the next split, or false when the window is exhausted.
func (s *Splitter) Next(ctx context.Context) (Split, bool) {
	switch s.state {
	case StateBeforeStart:
		s.cursor = s.cfg.ModelingStart
		s.state = StateSplitting
	case StateSplitting:
		s.cursor = s.cfg.UpdateWindow.AddTo(s.cursor)
	case StateExhausted:
		return Split{}, false
	}

	if !s.cursor.Before(s.cfg.ModelingEnd) {
		s.state = StateExhausted
		return Split{}, false
	}

	sp := s.buildSplit(ctx, s.cursor)
	metrics.RecordSplitGenerated()
	return sp, true
}

// All drains the splitter and returns every remaining split in order.
func (s *Splitter) All(ctx context.Context) []Split {
	var out []Split
	for {
		sp, ok := s.Next(ctx)
		if !ok {
			return out
		}
		out = append(out, sp)
	}
}

func (s *Splitter) buildSplit(ctx context.Context, asOf time.Time) Split {
	sp := Split{AsOf: asOf}

	// Full cross product on each side: one matrix definition per
	// (duration, label window) combination.
	for _, dur := range s.cfg.TrainDurations {
		for _, lw := range s.cfg.TrainLabelWindows {
			if def, ok := s.trainDefinition(asOf, dur, lw); ok {
				sp.TrainMatrices = append(sp.TrainMatrices, def)
			} else {
				metrics.RecordMatrixDiscarded()
				if s.logger != nil {
					s.logger.Debug(ctx, "train matrix truncated by beginning of time",
						logger.String("asOf", asOf.Format(dateLayout)),
						logger.String("duration", dur.String()),
						logger.String("labelWindow", lw.String()),
					)
				}
			}
		}
	}
	for _, dur := range s.cfg.TestDurations {
		for _, lw := range s.cfg.TestLabelWindows {
			if def, ok := s.testDefinition(asOf, dur, lw); ok {
				sp.TestMatrices = append(sp.TestMatrices, def)
			}
		}
	}
	return sp
}

// trainDefinition generates as-of dates stepping backward from the last
// label-resolvable date across the duration. The whole definition is
// silently discarded when its earliest as-of date would precede the
// beginning of time: partial history is only acceptable for later dates
// in the window, not by shortening a configured duration.
func (s *Splitter) trainDefinition(asOf time.Time, dur, labelWindow interval.Duration) (MatrixDefinition, bool) {
	last := labelWindow.SubFrom(asOf)
	earliest := dur.SubFrom(last)
	if earliest.Before(s.cfg.BeginningOfTime) {
		return MatrixDefinition{}, false
	}

	var dates []time.Time
	for d := last; !d.Before(earliest); d = s.cfg.TrainExampleFrequency.SubFrom(d) {
		dates = append(dates, d)
	}
	reverse(dates)

	return MatrixDefinition{
		AsOfDates:        dates,
		Duration:         dur,
		LabelWindow:      labelWindow,
		ExampleFrequency: s.cfg.TrainExampleFrequency,
	}, true
}

// testDefinition generates as-of dates forward from the split boundary,
// keeping every label window inside the modeling window.
func (s *Splitter) testDefinition(asOf time.Time, dur, labelWindow interval.Duration) (MatrixDefinition, bool) {
	end := dur.AddTo(asOf)

	var dates []time.Time
	for d := asOf; d.Before(end); d = s.cfg.TestExampleFrequency.AddTo(d) {
		if labelWindow.AddTo(d).After(s.cfg.ModelingEnd) {
			break
		}
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		return MatrixDefinition{}, false
	}

	return MatrixDefinition{
		AsOfDates:        dates,
		Duration:         dur,
		LabelWindow:      labelWindow,
		ExampleFrequency: s.cfg.TestExampleFrequency,
	}, true
}

func reverse(dates []time.Time) {
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
}
