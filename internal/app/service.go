// Package service wires the experiment pipeline together: temporal
// splitting, feature aggregation, matrix assembly, feature-group
// combination, grid expansion, and evaluation.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/timefold/internal/adapters/cache"
	taskqueue "github.com/okian/timefold/internal/adapters/mq/queue"
	workerpool "github.com/okian/timefold/internal/adapters/mq/worker"
	"github.com/okian/timefold/internal/adapters/source"
	"github.com/okian/timefold/internal/domain/aggregate"
	"github.com/okian/timefold/internal/domain/combine"
	"github.com/okian/timefold/internal/domain/grid"
	"github.com/okian/timefold/internal/domain/matrix"
	"github.com/okian/timefold/internal/domain/model"
	"github.com/okian/timefold/internal/domain/score"
	"github.com/okian/timefold/internal/domain/split"
	"github.com/okian/timefold/pkg/logger"
	"github.com/okian/timefold/pkg/metrics"
)

// BuiltMatrix ties a materialized matrix back to the split it belongs to.
type BuiltMatrix struct {
	SplitIndex int
	Matrix     matrix.Matrix
}

// RunResult is everything one experiment run produces for its consumers:
// the splits that were walked, the matrices that were built, the feature
// combinations to train on, and the model specs of the grid.
type RunResult struct {
	RunID        string
	Splits       []split.Split
	Matrices     []BuiltMatrix
	Combinations []combine.Combination
	ModelSpecs   []grid.ModelSpec
}

// Service implements one experiment run over a fixed configuration.
type Service struct {
	mu sync.Mutex

	// Collaborators
	src    source.Source
	labels matrix.Labels

	// Configuration
	temporal     split.TemporalConfig
	specs        []aggregate.Spec
	groups       []combine.Group
	strategy     combine.Strategy
	gridConfig   grid.Config
	classifiers  *grid.Registry
	metricGroups []score.MetricGroup
	sortSeed     int64
	workerCount  int
	queueSize    int

	// Components
	reducers   *aggregate.Registry
	aggregator *aggregate.Aggregator
	tables     *cache.Cache
	scorer     *score.Scorer

	// State
	rowsByFrom map[string][]model.Row
	built      []BuiltMatrix
	seenHashes map[string]struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets the row source the run reads from.
func WithSource(src source.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.src = src
		}
	}
}

// WithLabels sets the label mapping supplied by the label collaborator.
func WithLabels(labels matrix.Labels) Option {
	return func(s *Service) {
		s.labels = labels
	}
}

// WithTemporalConfig sets the split configuration.
func WithTemporalConfig(cfg split.TemporalConfig) Option {
	return func(s *Service) {
		s.temporal = cfg
	}
}

// WithFeatureSpecs sets the aggregation specs to compute per as-of date.
func WithFeatureSpecs(specs []aggregate.Spec) Option {
	return func(s *Service) {
		s.specs = specs
	}
}

// WithFeatureGroups sets the feature groups and combination strategy.
func WithFeatureGroups(groups []combine.Group, strategy combine.Strategy) Option {
	return func(s *Service) {
		s.groups = groups
		s.strategy = strategy
	}
}

// WithGrid sets the classifier grid and the registry of known classifiers.
func WithGrid(cfg grid.Config, known *grid.Registry) Option {
	return func(s *Service) {
		s.gridConfig = cfg
		s.classifiers = known
	}
}

// WithScoring sets the metric groups and the tie-break seed.
func WithScoring(groups []score.MetricGroup, sortSeed int64) Option {
	return func(s *Service) {
		s.metricGroups = groups
		s.sortSeed = sortSeed
	}
}

// WithWorkerCount sets the number of matrix-build workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the matrix-build queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithReducers sets a custom reducer registry, replacing the builtins.
func WithReducers(reg *aggregate.Registry) Option {
	return func(s *Service) {
		if reg != nil {
			s.reducers = reg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   4096,
		strategy:    combine.StrategyAll,
		reducers:    aggregate.NewRegistry(),
		seenHashes:  make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run executes the whole pipeline once. Configuration errors surface
// before any aggregation work starts; individual matrix-build failures
// are logged and skipped so one sparse window cannot sink the run.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	if s.logger == nil {
		s.logger = logger.Get().Named("experiment")
	}
	if s.src == nil {
		return nil, ErrNoSource
	}

	runID := uuid.NewString()
	s.logger.Info(ctx, "starting experiment run", logger.String("runID", runID))

	// Fail fast: validate every piece of configuration up front.
	if err := s.temporal.Validate(); err != nil {
		return nil, err
	}
	for _, spec := range s.specs {
		if err := spec.Validate(s.reducers); err != nil {
			return nil, err
		}
	}
	s.scorer = score.New(s.sortSeed)
	if err := s.scorer.Validate(s.metricGroups); err != nil {
		return nil, err
	}

	specs, err := grid.Expand(s.gridConfig, s.classifiers)
	if err != nil {
		return nil, err
	}

	available := make([]string, 0, len(s.specs))
	for _, spec := range s.specs {
		available = append(available, spec.Prefix)
	}
	combinations, err := combine.Combinations(s.strategy, s.groups, available)
	if err != nil {
		return nil, err
	}

	splitter, err := split.NewSplitter(s.temporal, split.WithLogger(s.logger.Named("splitter")))
	if err != nil {
		return nil, err
	}
	splits := splitter.All(ctx)
	for i, sp := range splits {
		if err := sp.CheckLeakage(); err != nil {
			return nil, fmt.Errorf("split %d: %w", i, err)
		}
	}

	if err := s.preloadRows(ctx); err != nil {
		return nil, err
	}

	s.aggregator = aggregate.New(s.reducers, aggregate.WithChoiceResolver(s.src))
	s.tables = cache.New(cache.WithLogger(s.logger.Named("cache")))
	s.built = nil
	s.seenHashes = make(map[string]struct{})

	if err := s.buildMatrices(ctx, splits); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "experiment run finished",
		logger.String("runID", runID),
		logger.Int("splits", len(splits)),
		logger.Int("matrices", len(s.built)),
		logger.Int("modelSpecs", len(specs)),
	)

	return &RunResult{
		RunID:        runID,
		Splits:       splits,
		Matrices:     s.built,
		Combinations: combinations,
		ModelSpecs:   specs,
	}, nil
}

// preloadRows reads each distinct source table once per run.
func (s *Service) preloadRows(ctx context.Context) error {
	froms := make(map[string]string) // from -> knowledge date column
	for _, spec := range s.specs {
		froms[spec.From] = spec.KnowledgeDateColumn
	}

	var mu sync.Mutex
	rows := make(map[string][]model.Row, len(froms))

	g, gctx := errgroup.WithContext(ctx)
	for from, knowledgeCol := range froms {
		from, knowledgeCol := from, knowledgeCol
		g.Go(func() error {
			loaded, err := s.src.Rows(gctx, source.Request{From: from, KnowledgeDateColumn: knowledgeCol})
			if err != nil {
				return fmt.Errorf("loading %s: %w", from, err)
			}
			mu.Lock()
			rows[from] = loaded
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.rowsByFrom = rows
	return nil
}

// buildMatrices fans the splits' matrix definitions out over the worker
// pool and waits for the queue to drain.
//
// The batch size is known up front, so the queue is sized to hold every
// definition; the configured queue size only acts as a floor. A rejected
// enqueue therefore means the queue is closed or the context is done,
// never that a valid experiment outgrew an operator setting.
func (s *Service) buildMatrices(ctx context.Context, splits []split.Split) error {
	capacity := s.queueSize
	if total := countDefinitions(splits); total > capacity {
		capacity = total
	}
	q := taskqueue.NewInMemoryQueue(
		taskqueue.WithCapacity(capacity),
		taskqueue.WithBufferSize(capacity),
	)
	pool := workerpool.NewPool(s.workerCount, q, s)
	pool.Start(ctx)

	for i, sp := range splits {
		for _, def := range sp.TrainMatrices {
			if !q.Enqueue(ctx, taskqueue.Task{SplitIndex: i, Kind: matrix.KindTrain, Definition: def}) {
				_ = q.Close()
				return fmt.Errorf("%w: split %d train matrix", ErrEnqueue, i)
			}
		}
		for _, def := range sp.TestMatrices {
			if !q.Enqueue(ctx, taskqueue.Task{SplitIndex: i, Kind: matrix.KindTest, Definition: def}) {
				_ = q.Close()
				return fmt.Errorf("%w: split %d test matrix", ErrEnqueue, i)
			}
		}
	}

	if err := q.Close(); err != nil {
		return err
	}
	pool.Wait()
	return ctx.Err()
}

// countDefinitions totals the train and test matrix definitions across
// all splits.
func countDefinitions(splits []split.Split) int {
	total := 0
	for _, sp := range splits {
		total += len(sp.TrainMatrices) + len(sp.TestMatrices)
	}
	return total
}

// Build materializes one matrix: every (spec, as-of date) feature table
// flows through the content-addressed cache, then the tables are joined
// with the labels. Matrices whose hash was already built are shared, not
// rebuilt.
func (s *Service) Build(ctx context.Context, task workerpool.Task) error {
	// Tables keep their (spec, as-of) position so the joined column order
	// stays deterministic regardless of goroutine scheduling.
	dates := task.Definition.AsOfDates
	tables := make([]aggregate.Table, len(s.specs)*len(dates))

	g, gctx := errgroup.WithContext(ctx)
	for si, spec := range s.specs {
		for di, asOf := range dates {
			si, di, spec, asOf := si, di, spec, asOf
			g.Go(func() error {
				key, err := matrix.ContentHash(struct {
					Spec aggregate.Spec `json:"spec"`
					AsOf string         `json:"as_of"`
				}{Spec: spec, AsOf: asOf.Format("2006-01-02")})
				if err != nil {
					return err
				}

				value, err := s.tables.GetOrCompute(gctx, key, func(cctx context.Context) (interface{}, error) {
					return s.aggregator.Aggregate(cctx, spec, s.rowsByFrom[spec.From], asOf, s.temporal.BeginningOfTime)
				})
				if err != nil {
					return err
				}

				tables[si*len(dates)+di] = value.(aggregate.Table)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	m, err := matrix.Assemble(task.Kind, task.Definition, tables, s.labels)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seenHashes[m.Hash]; dup {
		return nil
	}
	s.seenHashes[m.Hash] = struct{}{}
	s.built = append(s.built, BuiltMatrix{SplitIndex: task.SplitIndex, Matrix: m})
	metrics.RecordMatrixBuilt()

	return nil
}

// ScoreModel evaluates one model's predictions against the configured
// metric groups.
func (s *Service) ScoreModel(ctx context.Context, modelID string, preds []score.Prediction) ([]score.Result, error) {
	if s.scorer == nil {
		s.scorer = score.New(s.sortSeed)
		if err := s.scorer.Validate(s.metricGroups); err != nil {
			return nil, err
		}
	}
	return s.scorer.Score(ctx, modelID, preds, s.metricGroups)
}
