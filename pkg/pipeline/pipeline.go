// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/cleaner"
	"github.com/David-Botos/pii-guard/pkg/masker"
	"github.com/David-Botos/pii-guard/pkg/metrics"
	"github.com/David-Botos/pii-guard/pkg/model"
	"github.com/David-Botos/pii-guard/pkg/pii"
	"github.com/David-Botos/pii-guard/pkg/policy"
	"github.com/David-Botos/pii-guard/pkg/profiler"
	"github.com/David-Botos/pii-guard/pkg/validator"
)

// AlertStats is handed to the notification hook when the post-clean
// validation failure rate exceeds the policy threshold.
type AlertStats struct {
	RunID              string
	TotalRecords       int
	FailedRecords      int
	FailureRatePercent float64
	ThresholdPercent   float64
}

// AlertFunc is the notification hook boundary. The pipeline only decides
// WHETHER to signal; delivery belongs to the caller.
type AlertFunc func(ctx context.Context, stats AlertStats)

// Pipeline sequences the four record stages (clean, validate, detect,
// mask) and the dataset-level risk classification over one batch.
type Pipeline struct {
	policy     *policy.Policy
	cleaner    *cleaner.Cleaner
	validator  *validator.Validator
	detector   *pii.Detector
	classifier *pii.Classifier
	masker     *masker.Masker
	profiler   *profiler.Profiler
	logger     *zap.Logger
	workers    int
	alert      AlertFunc
}

// New wires a pipeline from a policy.
func New(p *policy.Policy, logger *zap.Logger) (*Pipeline, error) {
	if p == nil {
		return nil, errors.New("policy cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	cl, err := cleaner.NewCleaner(p, logger.Named("cleaner"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cleaner: %w", err)
	}
	val, err := validator.New(logger.Named("validator"))
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}
	det, err := pii.NewDetector(p, logger.Named("pii-detector"))
	if err != nil {
		return nil, fmt.Errorf("failed to create pii detector: %w", err)
	}
	cls, err := pii.NewClassifier(p.Risk, logger.Named("risk-classifier"))
	if err != nil {
		return nil, fmt.Errorf("failed to create risk classifier: %w", err)
	}
	msk, err := masker.NewMasker(p)
	if err != nil {
		return nil, fmt.Errorf("failed to create masker: %w", err)
	}
	prof, err := profiler.NewProfiler(logger.Named("profiler"))
	if err != nil {
		return nil, fmt.Errorf("failed to create profiler: %w", err)
	}

	return &Pipeline{
		policy:     p,
		cleaner:    cl,
		validator:  val,
		detector:   det,
		classifier: cls,
		masker:     msk,
		profiler:   prof,
		logger:     logger,
		workers:    runtime.NumCPU(),
	}, nil
}

// WithWorkers sets the per-record worker count.
func (p *Pipeline) WithWorkers(n int) *Pipeline {
	if n > 0 {
		p.workers = n
	}
	return p
}

// WithAlertFunc installs the notification hook.
func (p *Pipeline) WithAlertFunc(fn AlertFunc) *Pipeline {
	p.alert = fn
	return p
}

// Cleaner exposes the pipeline's cleaner, mainly for tests that need to
// pin its clock.
func (p *Pipeline) Cleaner() *cleaner.Cleaner { return p.cleaner }

// Result bundles every artifact of one batch run.
type Result struct {
	RunID   string
	Profile *profiler.QualityReport
	Clean   *cleaner.CleanResult
	// PreCleanSummary is the pass/fail aggregate over the RAW rows, for
	// the before/after comparison. Individual raw verdicts are not kept.
	PreCleanSummary  validator.Summary
	Verdicts         []model.ValidationVerdict
	PostCleanSummary validator.Summary
	Findings         []model.RecordFindings
	Risk             model.RiskProfile
	Masked           []model.MaskedRecord
	Issues           map[IssueCategory]int
	AlertSignaled    bool
	Duration         time.Duration
}

// Run executes the full pipeline over one batch. The pipeline never
// halts mid-batch: unrecoverable records are excluded and reported, and
// the only escalation is the notification hook. The returned error is
// non-nil only on context cancellation.
func (p *Pipeline) Run(ctx context.Context, raws []model.RawRecord) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.NewString()}
	logger := p.logger.With(zap.String("runID", result.RunID))
	logger.Info("Starting pipeline run", zap.Int("rows", len(raws)))

	issues := NewIssueCollector(logger)

	// Stage 1: profile the raw batch (read-only).
	result.Profile = p.profiler.Profile(raws)

	// Pre-clean validation, for the before/after aggregate only.
	preVerdicts := make([]model.ValidationVerdict, len(raws))
	if err := p.forEach(ctx, len(raws), func(i int) {
		preVerdicts[i] = p.validator.ValidateRaw(raws[i])
	}); err != nil {
		return nil, err
	}
	result.PreCleanSummary = validator.Summarize(preVerdicts)

	// Stage 2: clean. CleanBatch is the first synchronization barrier:
	// customer_id uniqueness needs the whole batch visible.
	result.Clean = p.cleaner.CleanBatch(raws)
	for _, rej := range result.Clean.Rejected {
		metrics.RecordsRejected.WithLabelValues(string(rej.Reason)).Inc()
		issues.Record(NewIssueRecord(categoryForReject(rej.Reason), rej.Detail).WithRow(rej.CustomerID))
	}
	for _, op := range result.Clean.AllOperations() {
		metrics.RemediationOps.WithLabelValues(op.Operation).Inc()
		issues.Record(NewIssueRecord(categoryForOperation(op), op.Operation).
			WithRow(op.RowIdentifier).WithField(op.Field, op.OriginalValue))
	}
	metrics.RecordsProcessed.WithLabelValues("clean", "kept").Add(float64(result.Clean.CleanedCount()))
	metrics.RecordsProcessed.WithLabelValues("clean", "rejected").Add(float64(result.Clean.RejectedCount()))

	// Stages 3-5 are per-record with no cross-record dependencies, so
	// they fan out across workers writing to disjoint indices.
	n := result.Clean.CleanedCount()
	result.Verdicts = make([]model.ValidationVerdict, n)
	result.Findings = make([]model.RecordFindings, n)
	result.Masked = make([]model.MaskedRecord, n)
	if err := p.forEach(ctx, n, func(i int) {
		rec := result.Clean.Cleaned[i].Record
		result.Verdicts[i] = p.validator.Validate(rec)
		result.Findings[i] = p.detector.Detect(rec)
		result.Masked[i] = p.masker.Mask(rec)
	}); err != nil {
		return nil, err
	}

	result.PostCleanSummary = validator.Summarize(result.Verdicts)
	for _, verdict := range result.Verdicts {
		outcome := "pass"
		if !verdict.Passed {
			outcome = "fail"
		}
		metrics.RecordsProcessed.WithLabelValues("validate", outcome).Inc()
		for _, violation := range verdict.Violations {
			issues.Record(NewIssueRecord(categoryForViolation(violation), violation.Message).
				WithRow(verdict.RowIdentifier).WithField(violation.Field, violation.Observed))
		}
	}

	// Second barrier: risk classification needs every record's findings.
	result.Risk = p.classifier.Classify(result.Findings)

	if err := p.verifyMasked(result); err != nil {
		// Masking invariants are internal guarantees; a failure here is a
		// bug, not a data problem.
		logger.Error("Masked batch failed verification", zap.Error(err))
	}

	result.Issues = issues.Counts()
	result.AlertSignaled = p.signalIfNeeded(ctx, result)

	result.Duration = time.Since(start)
	metrics.BatchDuration.Observe(result.Duration.Seconds())
	logger.Info("Pipeline run complete",
		zap.Int("cleaned", result.Clean.CleanedCount()),
		zap.Int("rejected", result.Clean.RejectedCount()),
		zap.Int("validationFailures", result.PostCleanSummary.Failed),
		zap.String("riskTier", string(result.Risk.Tier)),
		zap.Bool("alertSignaled", result.AlertSignaled),
		zap.Duration("duration", result.Duration))
	return result, nil
}

// signalIfNeeded applies the failure-rate threshold and invokes the hook.
func (p *Pipeline) signalIfNeeded(ctx context.Context, result *Result) bool {
	rate := result.PostCleanSummary.FailureRatePercent()
	metrics.ValidationFailureRate.Set(rate)

	if rate <= p.policy.AlertFailureRatePercent {
		return false
	}

	metrics.AlertsSignaled.Inc()
	p.logger.Warn("Validation failure rate exceeded threshold",
		zap.Float64("ratePercent", rate),
		zap.Float64("thresholdPercent", p.policy.AlertFailureRatePercent))
	if p.alert != nil {
		p.alert(ctx, AlertStats{
			RunID:              result.RunID,
			TotalRecords:       result.PostCleanSummary.Total,
			FailedRecords:      result.PostCleanSummary.Failed,
			FailureRatePercent: rate,
			ThresholdPercent:   p.policy.AlertFailureRatePercent,
		})
	}
	return true
}

// forEach runs fn for each index on the worker pool and waits for the
// fan-in. Each index touches disjoint state, so no locking is needed.
func (p *Pipeline) forEach(ctx context.Context, n int, fn func(i int)) error {
	if n == 0 {
		return nil
	}
	workers := p.workers
	if workers > n {
		workers = n
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				fn(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			close(indices)
			wg.Wait()
			return ctx.Err()
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()
	return nil
}
