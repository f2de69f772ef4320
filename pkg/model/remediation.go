// pkg/model/remediation.go
package model

import "time"

// FieldStatus describes the remediation state of a single field after
// cleaning.
type FieldStatus string

const (
	// FieldOK means the value was present and well-formed (it may still
	// have been normalized, e.g. whitespace trimmed).
	FieldOK FieldStatus = "ok"
	// FieldMissing means the value was absent from the input. Recorded as
	// the reason on the remediation operation; the final status of a
	// repaired field is FieldDefaulted.
	FieldMissing FieldStatus = "missing"
	// FieldMalformed means the value was present but unparsable for its
	// declared type. Like FieldMissing, this is the pre-repair state.
	FieldMalformed FieldStatus = "malformed"
	// FieldDefaulted means the policy default was substituted.
	FieldDefaulted FieldStatus = "defaulted"
	// FieldUnrecoverable means the field could not be repaired and forced
	// the whole record out of the pipeline.
	FieldUnrecoverable FieldStatus = "unrecoverable"
)

// FieldStatusSet holds one status per field, aligned to FieldOrder.
type FieldStatusSet map[Field]FieldStatus

// Status returns the status for a field, defaulting to FieldOK.
func (s FieldStatusSet) Status(f Field) FieldStatus {
	if st, ok := s[f]; ok {
		return st
	}
	return FieldOK
}

// RemediationOperation is the audit record for one field repair. Every
// transformation that changes a field value must append one of these;
// they are never silently dropped.
type RemediationOperation struct {
	RowIdentifier string      // raw customer_id, or row index for id-less rows
	Field         Field       // column that was repaired
	OriginalValue interface{} // value before repair (may be nil)
	NewValue      string      // value after repair
	Operation     string      // e.g. "default_substitution", "phone_reformat"
	Reason        string      // e.g. "missing_value", "malformed_value"
	AppliedAt     time.Time
}

// RejectReason classifies why a record was excluded from the pipeline.
type RejectReason string

const (
	RejectStructuralShift   RejectReason = "structural_corruption"
	RejectMissingIdentity   RejectReason = "missing_customer_id"
	RejectMalformedIdentity RejectReason = "malformed_customer_id"
	RejectDuplicateIdentity RejectReason = "duplicate_customer_id"
)

// RejectedRecord is an unrecoverable input row, kept aside for manual
// review instead of flowing downstream.
type RejectedRecord struct {
	RowIndex   int
	CustomerID string // raw value, possibly empty or garbage
	Reason     RejectReason
	Detail     string
	Raw        RawRecord
}
