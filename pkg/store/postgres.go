// pkg/store/postgres.go
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/config"
	"github.com/David-Botos/pii-guard/pkg/connector"
	"github.com/David-Botos/pii-guard/pkg/model"
)

// AuditStore persists the pipeline's audit trail (runs, field repairs,
// rejected records, validation violations) to PostgreSQL.
type AuditStore struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewAuditStore connects to PostgreSQL and ensures the audit tables exist
func NewAuditStore(ctx context.Context, cfg *config.PostgresConfig, logger *zap.Logger) (*AuditStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres config cannot be nil")
	}
	if logger == nil {
		logger = zap.L()
	}
	logger = logger.Named("audit-store")

	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	connector.ApplyConnectionSettings(
		db.DB,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	if cfg.StatementTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	if err := connector.PingWithTimeout(ctx, db.DB, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	store := &AuditStore{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}

	if err := store.setupTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up audit tables: %w", err)
	}

	connector.LogConnectionStats(logger, cfg.Database, db.DB)
	return store, nil
}

// Close closes the database connection
func (s *AuditStore) Close() error {
	s.logger.Info("Closing PostgreSQL connection")
	connector.LogConnectionStats(s.logger, s.cfg.Database, s.db.DB)
	return s.db.Close()
}

// setupTables creates the audit tables if they don't exist
func (s *AuditStore) setupTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			run_id            TEXT PRIMARY KEY,
			source            TEXT NOT NULL,
			total_rows        INTEGER NOT NULL,
			cleaned_rows      INTEGER NOT NULL,
			rejected_rows     INTEGER NOT NULL,
			failed_validation INTEGER NOT NULL,
			risk_tier         TEXT NOT NULL,
			duration_ms       BIGINT NOT NULL,
			started_at        TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS remediation_operations (
			id             SERIAL PRIMARY KEY,
			run_id         TEXT NOT NULL REFERENCES pipeline_runs(run_id),
			row_identifier TEXT NOT NULL,
			field          TEXT NOT NULL,
			original_value TEXT,
			new_value      TEXT,
			operation      TEXT NOT NULL,
			reason         TEXT NOT NULL,
			applied_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rejected_records (
			id          SERIAL PRIMARY KEY,
			run_id      TEXT NOT NULL REFERENCES pipeline_runs(run_id),
			row_index   INTEGER NOT NULL,
			customer_id TEXT,
			reason      TEXT NOT NULL,
			detail      TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS validation_violations (
			id             SERIAL PRIMARY KEY,
			run_id         TEXT NOT NULL REFERENCES pipeline_runs(run_id),
			row_identifier TEXT NOT NULL,
			field          TEXT NOT NULL,
			rule           TEXT NOT NULL,
			observed       TEXT,
			message        TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create audit table: %w", err)
		}
	}
	return nil
}

// RunRow summarizes one pipeline run for persistence
type RunRow struct {
	RunID            string        `db:"run_id"`
	Source           string        `db:"source"`
	TotalRows        int           `db:"total_rows"`
	CleanedRows      int           `db:"cleaned_rows"`
	RejectedRows     int           `db:"rejected_rows"`
	FailedValidation int           `db:"failed_validation"`
	RiskTier         model.RiskTier `db:"risk_tier"`
	Duration         time.Duration `db:"-"`
	StartedAt        time.Time     `db:"started_at"`
}

// SaveRun records the run summary. It must be called before the
// detail saves so the foreign keys resolve.
func (s *AuditStore) SaveRun(ctx context.Context, run RunRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pipeline_runs
			(run_id, source, total_rows, cleaned_rows, rejected_rows,
			 failed_validation, risk_tier, duration_ms, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.RunID, run.Source, run.TotalRows, run.CleanedRows, run.RejectedRows,
		run.FailedValidation, string(run.RiskTier), run.Duration.Milliseconds(), run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.RunID, err)
	}
	return nil
}

// SaveOperations persists the field-repair audit trail for a run
func (s *AuditStore) SaveOperations(ctx context.Context, runID string, ops []model.RemediationOperation) error {
	if len(ops) == 0 {
		return nil
	}

	type opRow struct {
		RunID         string    `db:"run_id"`
		RowIdentifier string    `db:"row_identifier"`
		Field         string    `db:"field"`
		OriginalValue string    `db:"original_value"`
		NewValue      string    `db:"new_value"`
		Operation     string    `db:"operation"`
		Reason        string    `db:"reason"`
		AppliedAt     time.Time `db:"applied_at"`
	}

	rows := make([]opRow, len(ops))
	for i, op := range ops {
		rows[i] = opRow{
			RunID:         runID,
			RowIdentifier: op.RowIdentifier,
			Field:         string(op.Field),
			OriginalValue: fmt.Sprint(op.OriginalValue),
			NewValue:      op.NewValue,
			Operation:     op.Operation,
			Reason:        op.Reason,
			AppliedAt:     op.AppliedAt,
		}
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO remediation_operations
			(run_id, row_identifier, field, original_value, new_value, operation, reason, applied_at)
		VALUES
			(:run_id, :row_identifier, :field, :original_value, :new_value, :operation, :reason, :applied_at)`,
		rows)
	if err != nil {
		return fmt.Errorf("failed to save %d remediation operations: %w", len(ops), err)
	}

	s.logger.Debug("Saved remediation operations",
		zap.String("runID", runID),
		zap.Int("count", len(ops)))
	return nil
}

// SaveRejected persists the rejected-record report for a run
func (s *AuditStore) SaveRejected(ctx context.Context, runID string, rejected []model.RejectedRecord) error {
	if len(rejected) == 0 {
		return nil
	}

	type rejectRow struct {
		RunID      string `db:"run_id"`
		RowIndex   int    `db:"row_index"`
		CustomerID string `db:"customer_id"`
		Reason     string `db:"reason"`
		Detail     string `db:"detail"`
	}

	rows := make([]rejectRow, len(rejected))
	for i, rej := range rejected {
		rows[i] = rejectRow{
			RunID:      runID,
			RowIndex:   rej.RowIndex,
			CustomerID: rej.CustomerID,
			Reason:     string(rej.Reason),
			Detail:     rej.Detail,
		}
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO rejected_records
			(run_id, row_index, customer_id, reason, detail)
		VALUES
			(:run_id, :row_index, :customer_id, :reason, :detail)`,
		rows)
	if err != nil {
		return fmt.Errorf("failed to save %d rejected records: %w", len(rejected), err)
	}

	s.logger.Debug("Saved rejected records",
		zap.String("runID", runID),
		zap.Int("count", len(rejected)))
	return nil
}

// SaveVerdicts persists validation violations for a run. Passing
// verdicts carry no violations and produce no rows.
func (s *AuditStore) SaveVerdicts(ctx context.Context, runID string, verdicts []model.ValidationVerdict) error {
	type violationRow struct {
		RunID         string `db:"run_id"`
		RowIdentifier string `db:"row_identifier"`
		Field         string `db:"field"`
		Rule          string `db:"rule"`
		Observed      string `db:"observed"`
		Message       string `db:"message"`
	}

	var rows []violationRow
	for _, verdict := range verdicts {
		for _, v := range verdict.Violations {
			rows = append(rows, violationRow{
				RunID:         runID,
				RowIdentifier: verdict.RowIdentifier,
				Field:         string(v.Field),
				Rule:          v.Rule,
				Observed:      fmt.Sprint(v.Observed),
				Message:       v.Message,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO validation_violations
			(run_id, row_identifier, field, rule, observed, message)
		VALUES
			(:run_id, :row_identifier, :field, :rule, :observed, :message)`,
		rows)
	if err != nil {
		return fmt.Errorf("failed to save %d validation violations: %w", len(rows), err)
	}

	s.logger.Debug("Saved validation violations",
		zap.String("runID", runID),
		zap.Int("count", len(rows)))
	return nil
}
