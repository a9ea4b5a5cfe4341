// Package config defines experiment configuration structures and loading hooks.
//
// Conventions:
// - Configuration is declarative: dates and intervals are strings parsed
//   into domain types before any computation begins.
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains everything one experiment run needs.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the Prometheus listen address, e.g. ":9090".
	// Empty disables the metrics endpoint.
	MetricsAddr string `koanf:"metrics_addr"`

	// WorkerCount sets the number of matrix-build workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory matrix-build queue.
	QueueSize int `koanf:"queue_size"`

	// OutputDir is where matrices and the run manifest are written.
	OutputDir string `koanf:"output_dir"`

	// DatabaseURL is the Postgres connection string for the row source.
	// Empty means the run must supply rows another way.
	DatabaseURL string `koanf:"database_url"`

	// LabelsPath points at the CSV produced by the label collaborator.
	LabelsPath string `koanf:"labels_path"`

	// Temporal fixes the modeling window and split cadences.
	Temporal Temporal `koanf:"temporal"`

	// Features declares the aggregation specs.
	Features []Feature `koanf:"features"`

	// FeatureGroups and FeatureGroupStrategy drive combination expansion.
	FeatureGroups        []FeatureGroup `koanf:"feature_groups"`
	FeatureGroupStrategy string         `koanf:"feature_group_strategy"`

	// Grid maps classifier identifiers to hyperparameter candidates, and
	// Classifiers lists the identifiers the run recognizes.
	Grid        map[string]map[string][]interface{} `koanf:"grid"`
	Classifiers []string                            `koanf:"classifiers"`

	// Scoring declares the evaluation metrics and the tie-break seed.
	Scoring Scoring `koanf:"scoring"`
}

// Temporal mirrors the split configuration with string-typed dates
// (2006-01-02) and intervals ("3months", "1year", ...).
type Temporal struct {
	BeginningOfTime       string   `koanf:"beginning_of_time"`
	ModelingStart         string   `koanf:"modeling_start"`
	ModelingEnd           string   `koanf:"modeling_end"`
	UpdateWindow          string   `koanf:"update_window"`
	TrainExampleFrequency string   `koanf:"train_example_frequency"`
	TestExampleFrequency  string   `koanf:"test_example_frequency"`
	TrainDurations        []string `koanf:"train_durations"`
	TestDurations         []string `koanf:"test_durations"`
	TrainLabelWindows     []string `koanf:"train_label_windows"`
	TestLabelWindows      []string `koanf:"test_label_windows"`
}

// Feature declares one aggregation spec. Intervals take the same
// interval strings plus the "all" sentinel for an unbounded lookback.
type Feature struct {
	Prefix                 string        `koanf:"prefix"`
	From                   string        `koanf:"from"`
	KnowledgeDateColumn    string        `koanf:"knowledge_date_column"`
	KnowledgeDateInclusive bool          `koanf:"knowledge_date_inclusive"`
	Intervals              []string      `koanf:"intervals"`
	Groups                 []string      `koanf:"groups"`
	Aggregates             []Aggregate   `koanf:"aggregates"`
	Categoricals           []Categorical `koanf:"categoricals"`
}

// Aggregate pairs a numeric quantity with reducer names.
type Aggregate struct {
	Quantity string   `koanf:"quantity"`
	Metrics  []string `koanf:"metrics"`
}

// Categorical declares an indicator expansion, with choices either
// inline or discovered by query.
type Categorical struct {
	Column      string   `koanf:"column"`
	Choices     []string `koanf:"choices"`
	ChoiceQuery string   `koanf:"choice_query"`
	Metrics     []string `koanf:"metrics"`
}

// FeatureGroup names a set of feature tables for combination.
type FeatureGroup struct {
	Name   string   `koanf:"name"`
	Tables []string `koanf:"tables"`
}

// Scoring declares the evaluation configuration.
type Scoring struct {
	SortSeed     int64         `koanf:"sort_seed"`
	MetricGroups []MetricGroup `koanf:"metric_groups"`
}

// MetricGroup mirrors the scorer's metric group with config-friendly keys.
type MetricGroup struct {
	Metrics     []string           `koanf:"metrics"`
	Percentiles []float64          `koanf:"percentiles"`
	TopN        []int              `koanf:"top_n"`
	Params      map[string]float64 `koanf:"params"`
}

// New creates a Config with defaults. Everything experiment-specific
// (temporal bounds, features, grid) has no meaningful default and must
// come from the file or environment.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		MetricsAddr:          ":9090",
		WorkerCount:          runtime.NumCPU() * 2,
		QueueSize:            4096,
		OutputDir:            "matrices",
		FeatureGroupStrategy: "all",
	}
}
