// pkg/pii/detector.go
package pii

import (
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/model"
	"github.com/David-Botos/pii-guard/pkg/policy"
)

// The field-to-sensitivity mapping is static: which columns are PII is a
// property of the schema, not of individual values.
var sensitivityByField = map[model.Field]model.SensitivityTier{
	model.FieldCustomerID:    model.TierNone,
	model.FieldFirstName:     model.TierHigh,
	model.FieldLastName:      model.TierHigh,
	model.FieldEmail:         model.TierHigh,
	model.FieldPhone:         model.TierHigh,
	model.FieldDateOfBirth:   model.TierHigh,
	model.FieldAddress:       model.TierHigh,
	model.FieldIncome:        model.TierMedium,
	model.FieldAccountStatus: model.TierNone,
	model.FieldCreatedDate:   model.TierNone,
}

// SensitivityOf returns the static tier for a field.
func SensitivityOf(f model.Field) model.SensitivityTier {
	return sensitivityByField[f]
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Detector classifies which fields of a cleaned record contain PII and
// computes the record's identity-linkage signal.
type Detector struct {
	policy *policy.Policy
	logger *zap.Logger
}

// NewDetector creates a Detector. The policy supplies the canonical
// placeholder values the detector must tell apart from real data.
func NewDetector(p *policy.Policy, logger *zap.Logger) (*Detector, error) {
	if p == nil {
		return nil, errors.New("policy cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Detector{policy: p, logger: logger}, nil
}

// Detect produces one finding per field in declared column order. A field
// holding its policy placeholder still counts as its type but is
// annotated so the risk classifier can exclude it from linkage counts.
func (d *Detector) Detect(rec model.CustomerRecord) model.RecordFindings {
	findings := make([]model.PiiFinding, 0, model.FieldCount)

	for _, f := range model.FieldOrder() {
		tier := sensitivityByField[f]
		finding := model.PiiFinding{
			Field: f,
			Tier:  tier,
			IsPII: tier != model.TierNone,
		}
		if finding.IsPII {
			finding.Placeholder = d.isPlaceholder(f, rec)
		}
		findings = append(findings, finding)
	}

	return model.RecordFindings{
		RowIdentifier: fmt.Sprintf("%d", rec.CustomerID),
		Findings:      findings,
		Linkage:       d.linkage(rec),
	}
}

// DetectMasked re-classifies a masked record. Masking changes values, not
// which fields are PII, so the tier assignments must come out identical
// to Detect on the source record. Placeholders pass through masking
// untouched, which lets the annotation be recomputed from the masked
// values alone.
func (d *Detector) DetectMasked(masked model.MaskedRecord) []model.PiiFinding {
	findings := make([]model.PiiFinding, 0, model.FieldCount)
	for _, f := range model.FieldOrder() {
		tier := sensitivityByField[f]
		finding := model.PiiFinding{
			Field: f,
			Tier:  tier,
			IsPII: tier != model.TierNone,
		}
		if finding.IsPII {
			finding.Placeholder = d.isMaskedPlaceholder(f, masked)
		}
		findings = append(findings, finding)
	}
	return findings
}

func (d *Detector) isMaskedPlaceholder(f model.Field, masked model.MaskedRecord) bool {
	switch f {
	case model.FieldDateOfBirth:
		// The sentinel is the only date a masked record renders in full.
		return masked.DateOfBirth == policy.SentinelDOB.Format(model.DateLayout)
	case model.FieldIncome:
		return masked.Income == 0
	case model.FieldFirstName:
		return d.policy.IsPlaceholder(f, masked.FirstName)
	case model.FieldLastName:
		return d.policy.IsPlaceholder(f, masked.LastName)
	case model.FieldEmail:
		return d.policy.IsPlaceholder(f, masked.Email)
	case model.FieldPhone:
		return d.policy.IsPlaceholder(f, masked.Phone)
	case model.FieldAddress:
		return d.policy.IsPlaceholder(f, masked.Address)
	default:
		return false
	}
}

func (d *Detector) isPlaceholder(f model.Field, rec model.CustomerRecord) bool {
	switch f {
	case model.FieldDateOfBirth:
		return rec.DateOfBirth.Equal(policy.SentinelDOB)
	case model.FieldIncome:
		// Zero income is the policy default; a real zero is
		// indistinguishable, which the default was chosen to tolerate.
		return rec.Income == 0
	default:
		v, ok := rec.Value(f).(string)
		if !ok {
			return false
		}
		return d.policy.IsPlaceholder(f, v)
	}
}

// linkage is true iff first_name, last_name and email are all genuinely
// present: the co-occurrence of strong identifiers is the risk, not any
// single field.
func (d *Detector) linkage(rec model.CustomerRecord) bool {
	if d.policy.IsPlaceholder(model.FieldFirstName, rec.FirstName) ||
		d.policy.IsPlaceholder(model.FieldLastName, rec.LastName) ||
		d.policy.IsPlaceholder(model.FieldEmail, rec.Email) {
		return false
	}
	if rec.FirstName == "" || rec.LastName == "" {
		return false
	}
	return emailPattern.MatchString(rec.Email)
}
