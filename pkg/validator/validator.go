// pkg/validator/validator.go
package validator

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	playground "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/model"
)

var phonePattern = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)

// recordRules carries the declarative schema rules. Field order matches
// the declared column order so violations come out in field order.
type recordRules struct {
	CustomerID    int64   `validate:"required,gt=0"`
	FirstName     string  `validate:"required,alpha,min=2,max=50"`
	LastName      string  `validate:"required,alpha,min=2,max=50"`
	Email         string  `validate:"required,email"`
	Phone         string  `validate:"required,phone_grouped"`
	DateOfBirth   string  `validate:"required,datetime=2006-01-02"`
	Address       string  `validate:"required,min=10,max=200"`
	Income        float64 `validate:"gte=0,lte=10000000"`
	AccountStatus string  `validate:"required,oneof=active inactive suspended"`
	CreatedDate   string  `validate:"required,datetime=2006-01-02"`
}

var structFieldNames = map[string]model.Field{
	"CustomerID":    model.FieldCustomerID,
	"FirstName":     model.FieldFirstName,
	"LastName":      model.FieldLastName,
	"Email":         model.FieldEmail,
	"Phone":         model.FieldPhone,
	"DateOfBirth":   model.FieldDateOfBirth,
	"Address":       model.FieldAddress,
	"Income":        model.FieldIncome,
	"AccountStatus": model.FieldAccountStatus,
	"CreatedDate":   model.FieldCreatedDate,
}

// Validator checks records against the declared schema. Stateless per
// record: no cross-record rules live here (customer_id uniqueness is the
// Cleaner's batch concern) and the record is never mutated.
type Validator struct {
	validate *playground.Validate
	logger   *zap.Logger
}

// New creates a Validator with the custom phone rule registered.
func New(logger *zap.Logger) (*Validator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	v := playground.New(playground.WithRequiredStructEnabled())
	err := v.RegisterValidation("phone_grouped", func(fl playground.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register phone rule: %w", err)
	}

	return &Validator{validate: v, logger: logger}, nil
}

// Validate checks a cleaned record and returns an exhaustive verdict:
// every violation is collected, not just the first.
func (v *Validator) Validate(rec model.CustomerRecord) model.ValidationVerdict {
	rules := recordRules{
		CustomerID:    rec.CustomerID,
		FirstName:     rec.FirstName,
		LastName:      rec.LastName,
		Email:         rec.Email,
		Phone:         rec.Phone,
		DateOfBirth:   rec.DateOfBirth.Format(model.DateLayout),
		Address:       rec.Address,
		Income:        rec.Income,
		AccountStatus: string(rec.AccountStatus),
		CreatedDate:   rec.CreatedDate.Format(model.DateLayout),
	}
	verdict := v.run(rules, fmt.Sprintf("%d", rec.CustomerID))
	return verdict
}

// ValidateRaw checks an uncleaned row against the same rule set, so
// pass/fail counts are comparable before and after cleaning. Values that
// cannot even be coerced to their declared type yield a type violation.
func (v *Validator) ValidateRaw(raw model.RawRecord) model.ValidationVerdict {
	rules := recordRules{
		FirstName:     strings.TrimSpace(raw[model.FieldFirstName]),
		LastName:      strings.TrimSpace(raw[model.FieldLastName]),
		Email:         strings.TrimSpace(raw[model.FieldEmail]),
		Phone:         strings.TrimSpace(raw[model.FieldPhone]),
		DateOfBirth:   strings.TrimSpace(raw[model.FieldDateOfBirth]),
		Address:       strings.TrimSpace(raw[model.FieldAddress]),
		AccountStatus: strings.TrimSpace(raw[model.FieldAccountStatus]),
		CreatedDate:   strings.TrimSpace(raw[model.FieldCreatedDate]),
	}

	var typeViolations []model.Violation

	rawID := strings.TrimSpace(raw[model.FieldCustomerID])
	if id, err := parseInt(rawID); err != nil {
		typeViolations = append(typeViolations, model.Violation{
			Field:    model.FieldCustomerID,
			Rule:     "integer",
			Observed: rawID,
			Message:  "customer_id must be an integer",
		})
		rules.CustomerID = 1 // suppress the gt rule; the type violation covers it
	} else {
		rules.CustomerID = id
	}

	rawIncome := strings.TrimSpace(raw[model.FieldIncome])
	if f, err := parseNumber(rawIncome); err != nil {
		typeViolations = append(typeViolations, model.Violation{
			Field:    model.FieldIncome,
			Rule:     "numeric",
			Observed: rawIncome,
			Message:  "income must be numeric",
		})
	} else {
		rules.Income = f
	}

	verdict := v.run(rules, rawID)
	verdict.Violations = append(verdict.Violations, typeViolations...)
	if len(typeViolations) > 0 {
		verdict.Passed = false
	}
	sortViolations(verdict.Violations)
	return verdict
}

// run executes the declarative rules plus the checks the tag language
// cannot express, and assembles the verdict.
func (v *Validator) run(rules recordRules, rowID string) model.ValidationVerdict {
	verdict := model.ValidationVerdict{RowIdentifier: rowID, Passed: true}

	if err := v.validate.Struct(rules); err != nil {
		var verrs playground.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				field := structFieldNames[fe.StructField()]
				verdict.Fail(field, fe.Tag(), fe.Value(),
					fmt.Sprintf("rule %q expected %q", fe.Tag(), fe.Param()))
			}
		} else {
			v.logger.Error("Schema validation failed unexpectedly", zap.Error(err))
			verdict.Fail(model.FieldCustomerID, "internal", nil, err.Error())
		}
	}

	// The email tag accepts dotless domains; the schema requires at
	// least one dot after the @.
	if at := strings.LastIndex(rules.Email, "@"); at >= 0 {
		if !strings.Contains(rules.Email[at+1:], ".") {
			verdict.Fail(model.FieldEmail, "domain_dot", rules.Email,
				"email domain must contain a dot")
		}
	}

	sortViolations(verdict.Violations)
	return verdict
}

// sortViolations keeps violations in declared column order regardless of
// which check produced them.
func sortViolations(violations []model.Violation) {
	index := make(map[model.Field]int, model.FieldCount)
	for i, f := range model.FieldOrder() {
		index[f] = i
	}
	sort.SliceStable(violations, func(i, j int) bool {
		return index[violations[i].Field] < index[violations[j].Field]
	})
}

// Summary is the aggregate pass/fail count across a batch of verdicts.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

// FailureRatePercent returns the failed fraction as a percentage.
func (s Summary) FailureRatePercent() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Failed) / float64(s.Total) * 100
}

// Summarize folds verdicts into aggregate counts. This is the only
// cross-record merge verdicts participate in.
func Summarize(verdicts []model.ValidationVerdict) Summary {
	s := Summary{Total: len(verdicts)}
	for _, verdict := range verdicts {
		if verdict.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}
