// pkg/pipeline/error.go
package pipeline

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/model"
)

// IssueCategory classifies data-quality issues encountered during a run.
type IssueCategory int

const (
	IssueNone IssueCategory = iota
	// IssueMissingRequired: a required value was absent and defaulted per
	// policy. Recoverable, resolved locally by the Cleaner.
	IssueMissingRequired
	// IssueFormatViolation: a value was present but malformed. Recoverable
	// when normalizable, otherwise surfaced as a Validator violation.
	IssueFormatViolation
	// IssueRangeViolation: income or address-length bounds. Always
	// surfaced, never silently clamped.
	IssueRangeViolation
	// IssueDuplicateIdentity: duplicate customer_id. Irrecoverable; every
	// conflicting record is dropped and logged for manual review.
	IssueDuplicateIdentity
	// IssueStructuralCorruption: values shifted across fields. The record
	// is dropped, never defaulted.
	IssueStructuralCorruption
)

// String returns a string representation of the issue category.
func (c IssueCategory) String() string {
	switch c {
	case IssueNone:
		return "None"
	case IssueMissingRequired:
		return "MissingRequired"
	case IssueFormatViolation:
		return "FormatViolation"
	case IssueRangeViolation:
		return "RangeViolation"
	case IssueDuplicateIdentity:
		return "DuplicateIdentity"
	case IssueStructuralCorruption:
		return "StructuralCorruption"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// Recoverable reports whether the record survives the issue.
func (c IssueCategory) Recoverable() bool {
	switch c {
	case IssueDuplicateIdentity, IssueStructuralCorruption:
		return false
	}
	return true
}

// IssueRecord captures one data-quality issue with its row context.
type IssueRecord struct {
	Category  IssueCategory
	RowID     string
	Field     model.Field
	Observed  interface{}
	Message   string
	Timestamp time.Time
}

// NewIssueRecord creates an issue record with the current timestamp.
func NewIssueRecord(category IssueCategory, message string) IssueRecord {
	return IssueRecord{
		Category:  category,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// WithRow adds row context.
func (r IssueRecord) WithRow(rowID string) IssueRecord {
	r.RowID = rowID
	return r
}

// WithField adds field context.
func (r IssueRecord) WithField(field model.Field, observed interface{}) IssueRecord {
	r.Field = field
	r.Observed = observed
	return r
}

// String returns a formatted issue message.
func (r IssueRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))
	if r.RowID != "" {
		sb.WriteString(fmt.Sprintf("Row: %s ", r.RowID))
	}
	if r.Field != "" {
		sb.WriteString(fmt.Sprintf("Field: %s ", r.Field))
		if r.Observed != nil {
			sb.WriteString(fmt.Sprintf("Value: %v ", r.Observed))
		}
	}
	sb.WriteString(r.Message)
	return sb.String()
}

// IssueCollector tallies issues per category across a run. Recoverable
// issues never reach the caller as failures; irrecoverable ones are
// reported in aggregate, not thrown as pipeline-fatal.
type IssueCollector struct {
	mu         sync.Mutex
	logger     *zap.Logger
	counts     map[IssueCategory]int
	samples    map[IssueCategory][]IssueRecord
	maxSamples int
}

// NewIssueCollector creates a collector keeping up to five samples per
// category.
func NewIssueCollector(logger *zap.Logger) *IssueCollector {
	return &IssueCollector{
		logger:     logger,
		counts:     make(map[IssueCategory]int),
		samples:    make(map[IssueCategory][]IssueRecord),
		maxSamples: 5,
	}
}

// Record tallies one issue.
func (ic *IssueCollector) Record(record IssueRecord) {
	ic.mu.Lock()
	defer ic.mu.Unlock()

	ic.counts[record.Category]++
	if len(ic.samples[record.Category]) < ic.maxSamples {
		ic.samples[record.Category] = append(ic.samples[record.Category], record)
	}

	if ic.logger != nil && !record.Category.Recoverable() {
		ic.logger.Warn("Irrecoverable data issue", zap.String("issue", record.String()))
	}
}

// Count returns the tally for a category.
func (ic *IssueCollector) Count(category IssueCategory) int {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.counts[category]
}

// Counts returns a copy of all category tallies.
func (ic *IssueCollector) Counts() map[IssueCategory]int {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	out := make(map[IssueCategory]int, len(ic.counts))
	for k, v := range ic.counts {
		out[k] = v
	}
	return out
}

// Samples returns the stored sample issues for a category.
func (ic *IssueCollector) Samples(category IssueCategory) []IssueRecord {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return append([]IssueRecord(nil), ic.samples[category]...)
}

// categoryForReject maps a rejection reason onto the issue taxonomy.
func categoryForReject(reason model.RejectReason) IssueCategory {
	switch reason {
	case model.RejectDuplicateIdentity:
		return IssueDuplicateIdentity
	case model.RejectStructuralShift:
		return IssueStructuralCorruption
	default:
		// A broken customer_id is structural: there is nothing to default.
		return IssueStructuralCorruption
	}
}

// categoryForOperation maps a remediation reason onto the issue taxonomy.
func categoryForOperation(op model.RemediationOperation) IssueCategory {
	if op.Reason == "missing_value" {
		return IssueMissingRequired
	}
	return IssueFormatViolation
}

// categoryForViolation maps a validation rule onto the issue taxonomy.
func categoryForViolation(v model.Violation) IssueCategory {
	switch v.Rule {
	case "gte", "lte", "min", "max", "gt":
		return IssueRangeViolation
	default:
		return IssueFormatViolation
	}
}
