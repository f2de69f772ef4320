// pkg/policy/policy.go
package policy

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/David-Botos/pii-guard/pkg/model"
)

// Canonical placeholder values substituted for missing or unparsable
// fields. Placeholders are distinguishable from genuine user data and are
// excluded from linkage counts downstream.
const (
	PlaceholderName    = "Unknown"
	PlaceholderEmail   = "noemail@placeholder.com"
	PlaceholderPhone   = "000-000-0000"
	PlaceholderAddress = "Address Not Provided"
)

// SentinelDOB is the fixed past date substituted for a missing or
// unparsable date_of_birth.
var SentinelDOB = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// ActionKind is the closed set of remediation actions a field rule can take.
type ActionKind string

const (
	// ActionSkip leaves the field alone; an unparsable value stays as-is
	// and is surfaced by the Validator instead.
	ActionSkip ActionKind = "skip"
	// ActionDefault substitutes the rule's default when the value is
	// missing or unparsable.
	ActionDefault ActionKind = "default"
	// ActionReformat normalizes a well-formed value with the named
	// reformat rule, then falls back to the default when unparsable.
	ActionReformat ActionKind = "reformat"
)

// Reformat rule identifiers understood by the Cleaner.
const (
	ReformatTitleCase = "title_case"
	ReformatPhone     = "phone_dashed"
	ReformatDate      = "date_iso"
	ReformatNumber    = "numeric"
	ReformatEnum      = "status_enum"
)

// DefaultNow marks a default the Cleaner resolves to the processing date
// at run time instead of a fixed value.
const DefaultNow = "now"

var knownReformats = map[string]struct{}{
	ReformatTitleCase: {},
	ReformatPhone:     {},
	ReformatDate:      {},
	ReformatNumber:    {},
	ReformatEnum:      {},
}

// FieldRule is the remediation decision for one field.
type FieldRule struct {
	Action   ActionKind `yaml:"action"`
	Default  string     `yaml:"default,omitempty"`
	Reformat string     `yaml:"reformat,omitempty"`
}

// RiskThresholds are the policy constants behind the dataset risk tier.
// They are a design choice, not a statistical guarantee, and deliberately
// live in configuration rather than in classifier logic.
type RiskThresholds struct {
	// ContactExposurePercent: if email or phone exposure meets this and
	// LinkagePercent is also met, the dataset rates high.
	ContactExposurePercent float64 `yaml:"contact_exposure_percent"`
	LinkagePercent         float64 `yaml:"linkage_percent"`
}

// Policy bundles the per-field remediation table, the risk thresholds and
// the validation-failure alert threshold.
type Policy struct {
	Version string                         `yaml:"version"`
	Fields  map[model.Field]FieldRule      `yaml:"fields"`
	Risk    RiskThresholds                 `yaml:"risk"`
	// AlertFailureRatePercent triggers the notification hook when the
	// post-clean validation failure rate exceeds it.
	AlertFailureRatePercent float64 `yaml:"alert_failure_rate_percent"`
}

// Default returns the built-in remediation policy. The defaults mirror
// the documented missing-value strategy: delete only on a broken
// customer_id, fill everything else.
func Default() *Policy {
	return &Policy{
		Version: "1",
		Fields: map[model.Field]FieldRule{
			// customer_id has no default on purpose: an unusable id makes
			// the whole record unrecoverable.
			model.FieldCustomerID:    {Action: ActionSkip},
			model.FieldFirstName:     {Action: ActionReformat, Reformat: ReformatTitleCase, Default: PlaceholderName},
			model.FieldLastName:      {Action: ActionReformat, Reformat: ReformatTitleCase, Default: PlaceholderName},
			model.FieldEmail:         {Action: ActionDefault, Default: PlaceholderEmail},
			model.FieldPhone:         {Action: ActionReformat, Reformat: ReformatPhone, Default: PlaceholderPhone},
			model.FieldDateOfBirth:   {Action: ActionReformat, Reformat: ReformatDate, Default: SentinelDOB.Format(model.DateLayout)},
			model.FieldAddress:       {Action: ActionDefault, Default: PlaceholderAddress},
			model.FieldIncome:        {Action: ActionReformat, Reformat: ReformatNumber, Default: "0"},
			model.FieldAccountStatus: {Action: ActionReformat, Reformat: ReformatEnum, Default: string(model.StatusInactive)},
			// created_date defaults to the processing date, resolved by
			// the Cleaner at run time.
			model.FieldCreatedDate: {Action: ActionReformat, Reformat: ReformatDate, Default: DefaultNow},
		},
		Risk: RiskThresholds{
			ContactExposurePercent: 90,
			LinkagePercent:         50,
		},
		AlertFailureRatePercent: 10,
	}
}

// Load reads a policy from a YAML file. Fields absent from the file fall
// back to the built-in defaults so a partial override is valid.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	p := Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse policy file %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy in %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the policy for internal consistency.
func (p *Policy) Validate() error {
	for _, f := range model.FieldOrder() {
		rule, ok := p.Fields[f]
		if !ok {
			return fmt.Errorf("policy is missing a rule for field %q", f)
		}
		switch rule.Action {
		case ActionSkip, ActionDefault, ActionReformat:
		default:
			return fmt.Errorf("field %q has unknown action %q", f, rule.Action)
		}
		if rule.Action == ActionReformat {
			if rule.Reformat == "" {
				return fmt.Errorf("field %q uses reformat action without a reformat rule", f)
			}
			if _, ok := knownReformats[rule.Reformat]; !ok {
				return fmt.Errorf("field %q names unknown reformat rule %q", f, rule.Reformat)
			}
		}
	}
	if p.Risk.ContactExposurePercent <= 0 || p.Risk.ContactExposurePercent > 100 {
		return fmt.Errorf("contact exposure threshold %v out of range (0,100]", p.Risk.ContactExposurePercent)
	}
	if p.Risk.LinkagePercent <= 0 || p.Risk.LinkagePercent > 100 {
		return fmt.Errorf("linkage threshold %v out of range (0,100]", p.Risk.LinkagePercent)
	}
	return nil
}

// IsPlaceholder reports whether value is the canonical default for field.
func (p *Policy) IsPlaceholder(field model.Field, value string) bool {
	rule, ok := p.Fields[field]
	if !ok {
		return false
	}
	if rule.Default == "" {
		return false
	}
	if field == model.FieldCreatedDate {
		// The processing-date default is indistinguishable from a genuine
		// value and is not a placeholder.
		return false
	}
	return value == rule.Default
}
