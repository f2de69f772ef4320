// pkg/connector/snowflake.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/config"
	"github.com/David-Botos/pii-guard/pkg/model"
)

// SnowflakeSource implements the RecordSource interface for Snowflake
type SnowflakeSource struct {
	db     *sql.DB
	logger *zap.Logger
	cfg    *config.SnowflakeConfig
}

// NewSnowflakeSource creates a new Snowflake-backed record source
func NewSnowflakeSource(ctx context.Context, cfg *config.SnowflakeConfig, logger *zap.Logger) (*SnowflakeSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("snowflake config cannot be nil")
	}
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.Named("snowflake-source")

	// Create DSN using Snowflake's DSN builder
	sfConfig := &sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		Schema:        cfg.Schema,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: cfg.Authenticator,
	}

	// Log connection attempt (without credentials)
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("user", cfg.User),
		zap.String("database", cfg.Database),
		zap.String("schema", cfg.Schema),
		zap.String("table", cfg.Table),
		zap.String("warehouse", cfg.Warehouse))

	dsn, err := sf.DSN(sfConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	if cfg.QueryTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("ALTER SESSION SET STATEMENT_TIMEOUT_IN_SECONDS = %d",
				int(cfg.QueryTimeout.Seconds())),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	// Verify connection
	if err := PingWithTimeout(ctx, db, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	source := &SnowflakeSource{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return source, nil
}

// Name identifies the source
func (s *SnowflakeSource) Name() string {
	return fmt.Sprintf("snowflake:%s.%s.%s", s.cfg.Database, s.cfg.Schema, s.cfg.Table)
}

// DB returns the underlying database connection
func (s *SnowflakeSource) DB() *sql.DB {
	return s.db
}

// Validate verifies the Snowflake connection and access rights
func (s *SnowflakeSource) Validate() error {
	var role, database, warehouse string
	err := s.db.QueryRow("SELECT CURRENT_ROLE(), CURRENT_DATABASE(), CURRENT_WAREHOUSE()").Scan(
		&role, &database, &warehouse)
	if err != nil {
		return fmt.Errorf("failed to verify Snowflake access: %w", err)
	}

	s.logger.Info("Connected to Snowflake",
		zap.String("role", role),
		zap.String("database", database),
		zap.String("warehouse", warehouse))

	if database != s.cfg.Database {
		return fmt.Errorf("connected to wrong database: %s (expected: %s)",
			database, s.cfg.Database)
	}

	return nil
}

// Fetch pulls every row of the configured table as raw strings.
// Columns are selected by name in canonical order so the mapping to
// fields does not depend on table column order.
func (s *SnowflakeSource) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	fields := model.FieldOrder()
	query := "SELECT "
	for i, f := range fields {
		if i > 0 {
			query += ", "
		}
		// Snowflake returns everything as text via TO_VARCHAR, which
		// preserves the source's untyped contract.
		query += fmt.Sprintf("TO_VARCHAR(%s)", string(f))
	}
	// Object names come from config and are identifier-validated at load.
	query += fmt.Sprintf(" FROM %s.%s.%s", s.cfg.Database, s.cfg.Schema, s.cfg.Table)

	queryCtx := ctx
	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}

	rows, err := s.db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.cfg.Table, err)
	}
	defer rows.Close()

	var records []model.RawRecord
	scanned := make([]sql.NullString, len(fields))
	dest := make([]interface{}, len(fields))
	for i := range scanned {
		dest[i] = &scanned[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(records), err)
		}
		raw := make(model.RawRecord, len(fields))
		for i, f := range fields {
			if scanned[i].Valid {
				raw[f] = scanned[i].String
			} else {
				raw[f] = ""
			}
		}
		records = append(records, raw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	s.logger.Info("Fetched records from Snowflake",
		zap.String("table", s.cfg.Table),
		zap.Int("rows", len(records)))
	return records, nil
}

// Close closes the database connection
func (s *SnowflakeSource) Close() error {
	s.logger.Info("Closing Snowflake connection")
	LogConnectionStats(s.logger, s.cfg.Database, s.db)
	return s.db.Close()
}
