// pkg/model/pii.go
package model

import "time"

// SensitivityTier ranks how identifying a field is on its own.
type SensitivityTier string

const (
	TierHigh   SensitivityTier = "high"
	TierMedium SensitivityTier = "medium"
	TierNone   SensitivityTier = "none"
)

// PiiFinding is the classification of a single field of a single record.
type PiiFinding struct {
	Field Field
	IsPII bool
	Tier  SensitivityTier
	// Placeholder is set when the field holds its canonical default value.
	// The field still counts as its type for exposure purposes but is
	// excluded from linkage counts ("placeholder, not real PII").
	Placeholder bool
}

// RecordFindings holds the findings for one record, one entry per field
// in declared column order, plus the record-level linkage signal.
type RecordFindings struct {
	RowIdentifier string
	Findings      []PiiFinding
	// Linkage is true iff first_name, last_name and email are all present
	// and none is a placeholder: the record identifies a person outright.
	Linkage bool
}

// RiskTier is the dataset-level sensitivity rating.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// RiskProfile is the dataset-scope aggregate of PII findings. Computed
// once per batch and immutable afterwards.
type RiskProfile struct {
	TotalRecords int
	// ExposurePercent maps each PII field to the percentage of records
	// where the field is present and non-placeholder.
	ExposurePercent map[Field]float64
	// LinkagePercent is the fraction of records with the linkage signal.
	LinkagePercent float64
	Tier           RiskTier
	ComputedAt     time.Time
}

// MaskedRecord is structurally identical to CustomerRecord (same fields,
// same order) with every high-sensitivity value replaced by its masking
// transform. It is a derived artifact and never mutates the cleaned
// record it came from. Masked date_of_birth is a string because the
// masked form ("1985-**-**") is no longer a calendar date.
type MaskedRecord struct {
	CustomerID    int64
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	DateOfBirth   string
	Address       string
	Income        float64
	AccountStatus AccountStatus
	CreatedDate   time.Time
}

// Values returns all field values in declared column order.
func (m MaskedRecord) Values() []any {
	return []any{
		m.CustomerID,
		m.FirstName,
		m.LastName,
		m.Email,
		m.Phone,
		m.DateOfBirth,
		m.Address,
		m.Income,
		m.AccountStatus,
		m.CreatedDate,
	}
}
