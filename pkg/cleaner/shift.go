// pkg/cleaner/shift.go
package cleaner

import (
	"strconv"
	"strings"

	"github.com/David-Botos/pii-guard/pkg/model"
)

// Structural shift detection is deliberately narrow: a fixed set of
// type-mismatch checks per column, not a general column-realignment
// algorithm. One odd value is a field-level problem the Validator can
// surface; two or more simultaneous signals mean the row's values have
// slid across columns and no per-field repair is safe.

// shiftSignalThreshold is the number of per-column signals at which a row
// is declared structurally corrupted.
const shiftSignalThreshold = 2

// shiftSignals returns a description of every column whose value looks
// like it belongs to a different column's type.
func shiftSignals(raw model.RawRecord) []string {
	var signals []string

	// income holding an account_status enum value
	if v := strings.ToLower(strings.TrimSpace(raw[model.FieldIncome])); model.ValidAccountStatus(v) {
		signals = append(signals, "income holds an account_status value")
	}

	// account_status holding a date
	if v := raw[model.FieldAccountStatus]; !isMissing(v) {
		if _, err := parseDate(v); err == nil {
			signals = append(signals, "account_status holds a date")
		}
	}

	// address holding a bare number (income or postal code slid over)
	if v := strings.TrimSpace(raw[model.FieldAddress]); v != "" {
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			signals = append(signals, "address holds a bare number")
		}
	}

	// phone holding an email
	if strings.Contains(raw[model.FieldPhone], "@") {
		signals = append(signals, "phone holds an email address")
	}

	return signals
}

// structurallyShifted reports whether the row shows enough simultaneous
// type mismatches to be treated as column-shifted.
func structurallyShifted(raw model.RawRecord) (bool, []string) {
	signals := shiftSignals(raw)
	return len(signals) >= shiftSignalThreshold, signals
}
