package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	app "github.com/okian/timefold/internal/app"
	"github.com/okian/timefold/internal/adapters/source"
	"github.com/okian/timefold/internal/config"
	"github.com/okian/timefold/internal/domain/matrix"
	"github.com/okian/timefold/pkg/logger"
	"github.com/okian/timefold/pkg/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Serve Prometheus metrics while the run is in flight.
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = startMetricsServer(ctx, log, cfg.MetricsAddr)
	}

	if err := run(ctx, log, cfg); err != nil {
		log.Error(ctx, "experiment failed", logger.Error(err))
	}

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "metrics server shutdown failed", logger.Error(err))
		}
	}
}

func run(ctx context.Context, log logger.Logger, cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}

	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	src := source.NewRetrying(
		source.NewPostgres(db),
		source.WithRetryLogger(log.Named("source")),
	)

	labels := matrix.Labels{}
	if cfg.LabelsPath != "" {
		f, err := os.Open(cfg.LabelsPath)
		if err != nil {
			return fmt.Errorf("opening labels: %w", err)
		}
		labels, err = matrix.ReadLabelsCSV(f)
		_ = f.Close()
		if err != nil {
			return err
		}
	}

	temporal, err := cfg.TemporalConfig()
	if err != nil {
		return err
	}
	specs, err := cfg.FeatureSpecs()
	if err != nil {
		return err
	}
	groups, strategy, err := cfg.CombineGroups()
	if err != nil {
		return err
	}
	gridCfg, classifiers, err := cfg.GridConfig()
	if err != nil {
		return err
	}

	svc := app.New(
		app.WithLogger(log.Named("experiment")),
		app.WithSource(src),
		app.WithLabels(labels),
		app.WithTemporalConfig(temporal),
		app.WithFeatureSpecs(specs),
		app.WithFeatureGroups(groups, strategy),
		app.WithGrid(gridCfg, classifiers),
		app.WithScoring(cfg.MetricGroups(), cfg.Scoring.SortSeed),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
	)

	result, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	return writeOutputs(ctx, log, cfg.OutputDir, result)
}

// writeOutputs materializes every built matrix as CSV plus a manifest
// describing the run.
func writeOutputs(ctx context.Context, log logger.Logger, dir string, result *app.RunResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	type manifestMatrix struct {
		SplitIndex int    `json:"split_index"`
		Kind       string `json:"kind"`
		Hash       string `json:"hash"`
		Rows       int    `json:"rows"`
		File       string `json:"file"`
	}
	manifest := struct {
		RunID      string           `json:"run_id"`
		Splits     int              `json:"splits"`
		Matrices   []manifestMatrix `json:"matrices"`
		ModelSpecs int              `json:"model_specs"`
	}{
		RunID:      result.RunID,
		Splits:     len(result.Splits),
		ModelSpecs: len(result.ModelSpecs),
	}

	for _, bm := range result.Matrices {
		name := fmt.Sprintf("%s_%s.csv", bm.Matrix.Kind, bm.Matrix.Hash)
		path := filepath.Join(dir, name)

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if err := bm.Matrix.WriteCSV(f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		manifest.Matrices = append(manifest.Matrices, manifestMatrix{
			SplitIndex: bm.SplitIndex,
			Kind:       string(bm.Matrix.Kind),
			Hash:       bm.Matrix.Hash,
			Rows:       len(bm.Matrix.Rows),
			File:       name,
		})
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}

	log.Info(ctx, "run outputs written",
		logger.String("dir", dir),
		logger.Int("matrices", len(result.Matrices)),
	)
	return nil
}

func startMetricsServer(ctx context.Context, log logger.Logger, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting metrics server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()

	return srv
}
