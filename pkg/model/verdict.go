// pkg/model/verdict.go
package model

// Violation names a single schema rule a record broke.
type Violation struct {
	Field    Field
	Rule     string // rule identifier, e.g. "alpha", "min", "datetime"
	Observed interface{}
	Message  string
}

// ValidationVerdict is the outcome of validating one record. It is
// produced fresh per record and never merged across records except for
// aggregate pass/fail counts.
type ValidationVerdict struct {
	RowIdentifier string
	Passed        bool
	Violations    []Violation
}

// Fail appends a violation and marks the verdict failed.
func (v *ValidationVerdict) Fail(field Field, rule string, observed interface{}, message string) {
	v.Passed = false
	v.Violations = append(v.Violations, Violation{
		Field:    field,
		Rule:     rule,
		Observed: observed,
		Message:  message,
	})
}
