// Package source defines how the pipeline reads raw event rows and
// discovers categorical choices from a backing store.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/okian/timefold/internal/domain/model"
	"github.com/okian/timefold/pkg/logger"
	"github.com/okian/timefold/pkg/metrics"
)

// Request identifies one read: the table or expression to select from
// and the column carrying each row's knowledge date.
type Request struct {
	From                string
	KnowledgeDateColumn string
}

// Source supplies raw rows and choice discovery. Implementations must be
// safe for concurrent use; aggregation fans out across matrix builds.
type Source interface {
	// Rows returns every row of the requested table. Callers filter by
	// knowledge date themselves; sources only translate storage.
	Rows(ctx context.Context, req Request) ([]model.Row, error)

	// Choices executes a choice-discovery query.
	Choices(ctx context.Context, query string) ([]string, error)
}

// Default retry configuration constants.
const (
	defaultMaxAttempts = 4
	defaultBaseBackoff = 250 * time.Millisecond
)

// RetryOption applies a configuration option to the Retrying source.
type RetryOption func(*Retrying)

// WithMaxAttempts bounds the total attempts per call.
func WithMaxAttempts(n int) RetryOption {
	return func(r *Retrying) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBaseBackoff sets the first retry delay; later delays double it.
func WithBaseBackoff(d time.Duration) RetryOption {
	return func(r *Retrying) {
		if d > 0 {
			r.baseBackoff = d
		}
	}
}

// WithRetryLogger sets a custom logger for retry reporting.
func WithRetryLogger(l logger.Logger) RetryOption {
	return func(r *Retrying) {
		if l != nil {
			r.logger = l
		}
	}
}

// Retrying decorates a Source with bounded exponential backoff on
// transient errors. Non-transient errors surface immediately so a
// genuinely broken query fails the unit of work that issued it.
type Retrying struct {
	inner       Source
	maxAttempts int
	baseBackoff time.Duration
	logger      logger.Logger
}

// NewRetrying wraps inner with retry behavior.
func NewRetrying(inner Source, opts ...RetryOption) *Retrying {
	r := &Retrying{
		inner:       inner,
		maxAttempts: defaultMaxAttempts,
		baseBackoff: defaultBaseBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rows retries transient read failures.
func (r *Retrying) Rows(ctx context.Context, req Request) ([]model.Row, error) {
	var rows []model.Row
	err := r.retry(ctx, func() error {
		var err error
		rows, err = r.inner.Rows(ctx, req)
		return err
	})
	return rows, err
}

// Choices retries transient discovery failures.
func (r *Retrying) Choices(ctx context.Context, query string) ([]string, error) {
	var choices []string
	err := r.retry(ctx, func() error {
		var err error
		choices, err = r.inner.Choices(ctx, query)
		return err
	})
	return choices, err
}

func (r *Retrying) retry(ctx context.Context, fn func() error) error {
	backoff := r.baseBackoff
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrTransient) || attempt >= r.maxAttempts {
			return err
		}

		metrics.RecordSourceRetry()
		if r.logger != nil {
			r.logger.Warn(ctx, "transient source error; retrying",
				logger.Int("attempt", attempt),
				logger.Error(err),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}
