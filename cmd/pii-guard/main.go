// cmd/pii-guard/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/David-Botos/pii-guard/pkg/config"
	"github.com/David-Botos/pii-guard/pkg/connector"
	"github.com/David-Botos/pii-guard/pkg/pipeline"
	"github.com/David-Botos/pii-guard/pkg/policy"
	"github.com/David-Botos/pii-guard/pkg/report"
	"github.com/David-Botos/pii-guard/pkg/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pii-guard:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := buildLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	pol := policy.Default()
	if cfg.PolicyPath != "" {
		pol, err = policy.Load(cfg.PolicyPath)
		if err != nil {
			return fmt.Errorf("failed to load policy: %w", err)
		}
		logger.Info("Loaded policy file", zap.String("path", cfg.PolicyPath))
	}

	factory := connector.NewSourceFactory(cfg, logger)
	source, err := factory.CreateSource(ctx)
	if err != nil {
		return err
	}
	defer source.Close()

	raws, err := source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch records from %s: %w", source.Name(), err)
	}
	if len(raws) == 0 {
		logger.Warn("Source returned no records", zap.String("source", source.Name()))
	}

	pipe, err := pipeline.New(pol, logger)
	if err != nil {
		return err
	}
	pipe.WithWorkers(cfg.Workers).WithAlertFunc(func(ctx context.Context, stats pipeline.AlertStats) {
		logger.Error("Data quality alert",
			zap.String("runID", stats.RunID),
			zap.Int("failed", stats.FailedRecords),
			zap.Int("total", stats.TotalRecords),
			zap.Float64("failureRatePercent", stats.FailureRatePercent))
	})

	startedAt := time.Now()
	result, err := pipe.Run(ctx, raws)
	if err != nil {
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	if cfg.AuditEnabled {
		if err := persistAudit(ctx, cfg, logger, source.Name(), startedAt, result); err != nil {
			// A broken audit store should not discard a completed run.
			logger.Error("Failed to persist audit trail", zap.Error(err))
		}
	}

	builder, err := report.NewBuilder(result, logger)
	if err != nil {
		return err
	}
	path, err := builder.WriteFile(cfg.ReportDir)
	if err != nil {
		return err
	}

	fmt.Println(builder.Render())
	logger.Info("Run complete",
		zap.String("runID", result.RunID),
		zap.String("report", path))
	return nil
}

func persistAudit(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
	sourceName string,
	startedAt time.Time,
	result *pipeline.Result,
) error {
	audit, err := store.NewAuditStore(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer audit.Close()

	if err := audit.SaveRun(ctx, store.RunRow{
		RunID:            result.RunID,
		Source:           sourceName,
		TotalRows:        result.Profile.TotalRows,
		CleanedRows:      result.Clean.CleanedCount(),
		RejectedRows:     result.Clean.RejectedCount(),
		FailedValidation: result.PostCleanSummary.Failed,
		RiskTier:         result.Risk.Tier,
		Duration:         result.Duration,
		StartedAt:        startedAt,
	}); err != nil {
		return err
	}
	if err := audit.SaveOperations(ctx, result.RunID, result.Clean.AllOperations()); err != nil {
		return err
	}
	if err := audit.SaveRejected(ctx, result.RunID, result.Clean.Rejected); err != nil {
		return err
	}
	return audit.SaveVerdicts(ctx, result.RunID, result.Verdicts)
}

func buildLogger(level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)
	return zapCfg.Build()
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("Serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("Metrics server stopped", zap.Error(err))
	}
}
