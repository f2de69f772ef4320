// pkg/report/report.go
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/model"
	"github.com/David-Botos/pii-guard/pkg/pipeline"
)

// Builder renders a pipeline result into the human-readable run report.
type Builder struct {
	result *Result
	logger *zap.Logger
}

// Result is the report-facing alias for a pipeline run result.
type Result = pipeline.Result

// NewBuilder creates a report builder for one run.
func NewBuilder(result *Result, logger *zap.Logger) (*Builder, error) {
	if result == nil {
		return nil, fmt.Errorf("result cannot be nil")
	}
	if logger == nil {
		logger = zap.L()
	}
	return &Builder{result: result, logger: logger.Named("report")}, nil
}

// Render produces the full text report.
func (b *Builder) Render() string {
	var sb strings.Builder
	b.header(&sb)
	b.qualitySection(&sb)
	b.cleaningSection(&sb)
	b.validationSection(&sb)
	b.piiSection(&sb)
	b.maskingSection(&sb)
	b.issueSection(&sb)
	return sb.String()
}

// WriteFile writes the report under dir as <runID>.txt.
func (b *Builder) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(dir, b.result.RunID+".txt")
	if err := os.WriteFile(path, []byte(b.Render()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	b.logger.Info("Wrote run report", zap.String("path", path))
	return path, nil
}

func (b *Builder) header(sb *strings.Builder) {
	r := b.result
	rule(sb)
	fmt.Fprintf(sb, "CUSTOMER DATA QUALITY AND PII RUN %s\n", r.RunID)
	rule(sb)
	fmt.Fprintf(sb, "Rows received:       %d\n", r.Profile.TotalRows)
	fmt.Fprintf(sb, "Rows cleaned:        %d\n", r.Clean.CleanedCount())
	fmt.Fprintf(sb, "Rows rejected:       %d\n", r.Clean.RejectedCount())
	fmt.Fprintf(sb, "Duration:            %s\n", r.Duration)
	sb.WriteString("\n")
}

func (b *Builder) qualitySection(sb *strings.Builder) {
	p := b.result.Profile
	section(sb, "INITIAL DATA QUALITY")
	fmt.Fprintf(sb, "Duplicate customer ids: %d\n", len(p.DuplicateIDs))
	fmt.Fprintf(sb, "Invalid dates:          %d\n", p.InvalidDates)
	fmt.Fprintf(sb, "Negative incomes:       %d\n", p.NegativeIncome)
	fmt.Fprintf(sb, "Unknown statuses:       %d\n", p.UnknownStatus)
	fmt.Fprintf(sb, "Issues by severity:     critical=%d high=%d medium=%d\n",
		p.Severity.Critical, p.Severity.High, p.Severity.Medium)
	sb.WriteString("Column completeness:\n")
	for _, f := range model.FieldOrder() {
		c := p.Completeness[f]
		fmt.Fprintf(sb, "  %-15s %6.2f%% (%d missing)\n", f, c.PercentComplete, c.MissingCount)
	}
	sb.WriteString("\n")
}

func (b *Builder) cleaningSection(sb *strings.Builder) {
	r := b.result
	section(sb, "CLEANING")

	opCounts := make(map[string]int)
	for _, op := range r.Clean.AllOperations() {
		opCounts[op.Operation]++
	}
	fmt.Fprintf(sb, "Field repairs: %d\n", len(r.Clean.AllOperations()))
	for _, name := range sortedKeys(opCounts) {
		fmt.Fprintf(sb, "  %-22s %d\n", name, opCounts[name])
	}

	fmt.Fprintf(sb, "Rejected for manual review: %d\n", r.Clean.RejectedCount())
	for _, rej := range r.Clean.Rejected {
		fmt.Fprintf(sb, "  row %d (customer_id=%q): %s\n", rej.RowIndex, rej.CustomerID, rej.Reason)
	}
	sb.WriteString("\n")
}

func (b *Builder) validationSection(sb *strings.Builder) {
	r := b.result
	section(sb, "VALIDATION")
	fmt.Fprintf(sb, "Before cleaning: %d/%d passed (%.1f%% failed)\n",
		r.PreCleanSummary.Passed, r.PreCleanSummary.Total, r.PreCleanSummary.FailureRatePercent())
	fmt.Fprintf(sb, "After cleaning:  %d/%d passed (%.1f%% failed)\n",
		r.PostCleanSummary.Passed, r.PostCleanSummary.Total, r.PostCleanSummary.FailureRatePercent())
	if r.AlertSignaled {
		sb.WriteString("ALERT: failure rate exceeded the configured threshold\n")
	}

	for _, verdict := range r.Verdicts {
		if verdict.Passed {
			continue
		}
		fmt.Fprintf(sb, "  customer %s:\n", verdict.RowIdentifier)
		for _, v := range verdict.Violations {
			fmt.Fprintf(sb, "    %s: %s (observed %v)\n", v.Field, v.Message, v.Observed)
		}
	}
	sb.WriteString("\n")
}

func (b *Builder) piiSection(sb *strings.Builder) {
	r := b.result
	section(sb, "PII EXPOSURE")
	fmt.Fprintf(sb, "Dataset risk tier: %s\n", strings.ToUpper(string(r.Risk.Tier)))
	fmt.Fprintf(sb, "Linkage: %.1f%% of records identify a person\n", r.Risk.LinkagePercent)
	sb.WriteString("Exposure by field:\n")
	for _, f := range model.FieldOrder() {
		pct, ok := r.Risk.ExposurePercent[f]
		if !ok {
			continue
		}
		fmt.Fprintf(sb, "  %-15s %6.2f%%\n", f, pct)
	}
	sb.WriteString("\n")
}

// maskingSection shows a before/after sample so a reviewer can eyeball
// the masking rules without access to the full output.
func (b *Builder) maskingSection(sb *strings.Builder) {
	r := b.result
	section(sb, "MASKING SAMPLE")
	limit := 3
	if len(r.Masked) < limit {
		limit = len(r.Masked)
	}
	for i := 0; i < limit; i++ {
		rec := r.Clean.Cleaned[i].Record
		masked := r.Masked[i]
		fmt.Fprintf(sb, "customer %d:\n", rec.CustomerID)
		fmt.Fprintf(sb, "  name:  %s %s -> %s %s\n", rec.FirstName, rec.LastName, masked.FirstName, masked.LastName)
		fmt.Fprintf(sb, "  email: %s -> %s\n", rec.Email, masked.Email)
		fmt.Fprintf(sb, "  phone: %s -> %s\n", rec.Phone, masked.Phone)
		fmt.Fprintf(sb, "  dob:   %s -> %s\n", rec.DateOfBirth.Format(model.DateLayout), masked.DateOfBirth)
	}
	sb.WriteString("\n")
}

func (b *Builder) issueSection(sb *strings.Builder) {
	r := b.result
	if len(r.Issues) == 0 {
		return
	}
	section(sb, "ISSUES")
	categories := make([]pipeline.IssueCategory, 0, len(r.Issues))
	for c := range r.Issues {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	for _, c := range categories {
		fmt.Fprintf(sb, "  %-22s %d\n", c, r.Issues[c])
	}
	sb.WriteString("\n")
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", len(title)) + "\n")
}

func rule(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 60) + "\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
