// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/model"
	"github.com/David-Botos/pii-guard/pkg/policy"
)

// Cleaner repairs or rejects raw customer records under the remediation
// policy. It never mutates its input; repairs surface as a new record
// plus remediation metadata.
type Cleaner struct {
	policy *policy.Policy
	logger *zap.Logger
	now    func() time.Time
}

// NewCleaner creates a Cleaner.
func NewCleaner(p *policy.Policy, logger *zap.Logger) (*Cleaner, error) {
	if p == nil {
		return nil, errors.New("policy cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Cleaner{
		policy: p,
		logger: logger,
		now:    time.Now,
	}, nil
}

// WithClock overrides the processing-date source. Used by tests to pin
// the created_date default.
func (c *Cleaner) WithClock(now func() time.Time) *Cleaner {
	c.now = now
	return c
}

// CleanedRecord pairs a repaired record with its remediation side-channel.
type CleanedRecord struct {
	Record     model.CustomerRecord
	Statuses   model.FieldStatusSet
	Operations []model.RemediationOperation
}

// CleanResult is the outcome of cleaning a whole batch.
type CleanResult struct {
	InitialCount int
	Cleaned      []CleanedRecord
	Rejected     []model.RejectedRecord
}

// CleanedCount returns the number of records that survived cleaning.
func (r *CleanResult) CleanedCount() int { return len(r.Cleaned) }

// RejectedCount returns the number of unrecoverable records.
func (r *CleanResult) RejectedCount() int { return len(r.Rejected) }

// AllOperations flattens the remediation operations of every surviving
// record, in record order.
func (r *CleanResult) AllOperations() []model.RemediationOperation {
	var ops []model.RemediationOperation
	for _, cr := range r.Cleaned {
		ops = append(ops, cr.Operations...)
	}
	return ops
}

// CleanBatch cleans every row and finalizes the batch-level customer_id
// uniqueness check. Duplicate ids drop every conflicting record: there is
// no way to tell which one is authoritative, so both go to manual review.
func (c *Cleaner) CleanBatch(raws []model.RawRecord) *CleanResult {
	result := &CleanResult{InitialCount: len(raws)}
	c.logger.Info("Cleaning batch", zap.Int("rows", len(raws)))

	type candidate struct {
		rowIndex int
		cleaned  CleanedRecord
	}
	var candidates []candidate
	idCounts := make(map[int64]int)

	for i, raw := range raws {
		rec, statuses, ops, rejected := c.CleanRecord(i, raw)
		if rejected != nil {
			c.logger.Warn("Rejected record",
				zap.Int("rowIndex", rejected.RowIndex),
				zap.String("customerID", rejected.CustomerID),
				zap.String("reason", string(rejected.Reason)),
				zap.String("detail", rejected.Detail))
			result.Rejected = append(result.Rejected, *rejected)
			continue
		}
		candidates = append(candidates, candidate{
			rowIndex: i,
			cleaned:  CleanedRecord{Record: rec, Statuses: statuses, Operations: ops},
		})
		idCounts[rec.CustomerID]++
	}

	// Uniqueness barrier: only now, with the whole batch visible, can
	// duplicates be finalized.
	for _, cand := range candidates {
		id := cand.cleaned.Record.CustomerID
		if idCounts[id] > 1 {
			rej := model.RejectedRecord{
				RowIndex:   cand.rowIndex,
				CustomerID: fmt.Sprintf("%d", id),
				Reason:     model.RejectDuplicateIdentity,
				Detail:     fmt.Sprintf("customer_id %d appears %d times in batch", id, idCounts[id]),
				Raw:        raws[cand.rowIndex],
			}
			c.logger.Warn("Duplicate customer_id, dropping for manual review",
				zap.Int64("customerID", id),
				zap.Int("rowIndex", cand.rowIndex),
				zap.Int("occurrences", idCounts[id]))
			result.Rejected = append(result.Rejected, rej)
			continue
		}
		result.Cleaned = append(result.Cleaned, cand.cleaned)
	}

	c.logger.Info("Cleaning summary",
		zap.Int("initial", result.InitialCount),
		zap.Int("cleaned", result.CleanedCount()),
		zap.Int("rejected", result.RejectedCount()))
	return result
}

// CleanRecord repairs a single row. A non-nil RejectedRecord means the
// row is unrecoverable and must be excluded from every downstream stage.
// The batch-level duplicate-id check is CleanBatch's job; everything else
// happens here.
func (c *Cleaner) CleanRecord(rowIndex int, raw model.RawRecord) (model.CustomerRecord, model.FieldStatusSet, []model.RemediationOperation, *model.RejectedRecord) {
	statuses := make(model.FieldStatusSet, model.FieldCount)
	var ops []model.RemediationOperation

	rawID := strings.TrimSpace(raw[model.FieldCustomerID])

	// Structural corruption first: a shifted row is dropped, never
	// repaired field by field.
	if shifted, signals := structurallyShifted(raw); shifted {
		return model.CustomerRecord{}, nil, nil, &model.RejectedRecord{
			RowIndex:   rowIndex,
			CustomerID: rawID,
			Reason:     model.RejectStructuralShift,
			Detail:     strings.Join(signals, "; "),
			Raw:        raw,
		}
	}

	// customer_id is the one field with no default: broken means the
	// record is gone.
	id, err := parseID(rawID)
	if err != nil {
		reason := model.RejectMalformedIdentity
		if isMissing(rawID) {
			reason = model.RejectMissingIdentity
		}
		return model.CustomerRecord{}, nil, nil, &model.RejectedRecord{
			RowIndex:   rowIndex,
			CustomerID: rawID,
			Reason:     reason,
			Detail:     err.Error(),
			Raw:        raw,
		}
	}

	rec := model.CustomerRecord{CustomerID: id}
	statuses[model.FieldCustomerID] = model.FieldOK

	appendOp := func(field model.Field, original interface{}, newValue, operation, reason string) {
		ops = append(ops, model.RemediationOperation{
			RowIdentifier: rawID,
			Field:         field,
			OriginalValue: original,
			NewValue:      newValue,
			Operation:     operation,
			Reason:        reason,
			AppliedAt:     c.now(),
		})
	}

	// applyDefault substitutes the policy default and tags the field.
	applyDefault := func(field model.Field, original string, wasMissing bool) string {
		def := c.policy.Fields[field].Default
		if def == policy.DefaultNow {
			def = c.today().Format(model.DateLayout)
		}
		statuses[field] = model.FieldDefaulted
		reason := "malformed_value"
		if wasMissing {
			reason = "missing_value"
		}
		appendOp(field, original, def, "default_substitution", reason)
		return def
	}

	// normalized records a format normalization when it changed the value.
	normalized := func(field model.Field, original, newValue, operation string) {
		statuses[field] = model.FieldOK
		if newValue != strings.TrimSpace(original) {
			appendOp(field, original, newValue, operation, "format_normalization")
		} else if newValue != original {
			appendOp(field, original, newValue, "whitespace_trim", "format_normalization")
		}
	}

	// cleanField resolves one field's value under its policy rule. The
	// returned string is canonical for reformat fields, the policy
	// default for absent or unparsable ones, and untouched for skip.
	cleanField := func(f model.Field) string {
		rule := c.policy.Fields[f]
		v := raw[f]
		if rule.Action == policy.ActionSkip {
			statuses[f] = model.FieldOK
			return v
		}
		if isMissing(v) {
			return applyDefault(f, v, true)
		}
		if rule.Action == policy.ActionReformat {
			if rf, ok := reformatters[rule.Reformat]; ok {
				out, rerr := rf.apply(v)
				if rerr != nil {
					return applyDefault(f, v, false)
				}
				normalized(f, v, out, rf.operation)
				return out
			}
		}
		trimmed := strings.TrimSpace(v)
		normalized(f, v, trimmed, "whitespace_trim")
		return trimmed
	}

	rec.FirstName = cleanField(model.FieldFirstName)
	rec.LastName = cleanField(model.FieldLastName)
	rec.Email = cleanField(model.FieldEmail)
	rec.Phone = cleanField(model.FieldPhone)

	// Typed fields store the parsed form of the resolved string. Under a
	// skip rule an unparsable value has no typed representation, so the
	// zero value stands in and the raw-level validation surfaces the
	// type problem.
	if t, derr := parseDate(cleanField(model.FieldDateOfBirth)); derr == nil {
		rec.DateOfBirth = t
	}
	rec.Address = cleanField(model.FieldAddress)
	if f, ferr := parseFloat(cleanField(model.FieldIncome)); ferr == nil {
		rec.Income = f
	}
	rec.AccountStatus = model.AccountStatus(cleanField(model.FieldAccountStatus))
	if t, derr := parseDate(cleanField(model.FieldCreatedDate)); derr == nil {
		rec.CreatedDate = t
	}

	return rec, statuses, ops, nil
}

// today truncates the processing time to a calendar date.
func (c *Cleaner) today() time.Time {
	now := c.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// reformatters maps the policy reformat identifiers onto the concrete
// normalization routines and their audit operation names.
var reformatters = map[string]struct {
	apply     func(string) (string, error)
	operation string
}{
	policy.ReformatTitleCase: {applyTitleCase, "title_case_normalization"},
	policy.ReformatPhone:     {normalizePhone, "phone_reformat"},
	policy.ReformatDate:      {reformatDate, "date_reformat"},
	policy.ReformatNumber:    {reformatNumber, "numeric_reformat"},
	policy.ReformatEnum:      {reformatStatus, "enum_normalization"},
}
