// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/config"
)

// SourceFactory creates record sources from configuration
type SourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger) *SourceFactory {
	return &SourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSource creates the record source named by the configuration
func (f *SourceFactory) CreateSource(ctx context.Context) (RecordSource, error) {
	switch f.cfg.Source {
	case "snowflake":
		f.logger.Info("Creating Snowflake record source")
		source, err := NewSnowflakeSource(ctx, f.cfg.Snowflake, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Snowflake source: %w", err)
		}
		if err := source.Validate(); err != nil {
			source.Close()
			return nil, fmt.Errorf("snowflake source validation failed: %w", err)
		}
		return source, nil

	case "csv":
		f.logger.Info("Creating CSV record source", zap.String("path", f.cfg.CSVPath))
		return NewCSVSource(f.cfg.CSVPath, f.logger)

	default:
		return nil, fmt.Errorf("unknown record source: %s", f.cfg.Source)
	}
}
