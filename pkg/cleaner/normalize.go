// pkg/cleaner/normalize.go
package cleaner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/David-Botos/pii-guard/pkg/model"
)

// Accepted input date layouts, tried in order. Output is always
// model.DateLayout.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// missingMarkers are string values treated the same as an absent field.
// "nan" shows up in exports from dataframe tooling.
var missingMarkers = map[string]struct{}{
	"":     {},
	"nan":  {},
	"null": {},
	"none": {},
	"n/a":  {},
}

// isMissing reports whether a raw value counts as absent.
func isMissing(value string) bool {
	_, ok := missingMarkers[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// titleCase lower-cases then title-cases a personal name, so "mCLEAN"
// becomes "Mclean". Case mapping is Unicode-aware, which accented names
// like "ÉMILE" depend on.
func titleCase(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	upperNext := true
	for _, r := range name {
		if unicode.IsLetter(r) {
			if upperNext {
				b.WriteRune(unicode.ToUpper(r))
			} else {
				b.WriteRune(unicode.ToLower(r))
			}
			upperNext = false
			continue
		}
		if r == ' ' || r == '-' || r == '\'' {
			upperNext = true
		}
		b.WriteRune(r)
	}
	return b.String()
}

func applyTitleCase(value string) (string, error) {
	return titleCase(strings.TrimSpace(value)), nil
}

// normalizePhone reformats a phone number to the canonical DDD-DDD-DDDD
// grouping by stripping every non-digit character. Anything other than
// exactly ten digits is malformed.
func normalizePhone(phone string) (string, error) {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) != 10 {
		return "", fmt.Errorf("expected 10 digits, got %d", len(d))
	}
	return d[:3] + "-" + d[3:6] + "-" + d[6:], nil
}

// parseDate parses a date string tolerant of the accepted layouts.
func parseDate(value string) (time.Time, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return time.Time{}, errors.New("empty string")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date from %q", cleaned)
}

// parseFloat coerces a numeric string to float64.
func parseFloat(value string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, errors.New("empty string")
	}
	return strconv.ParseFloat(cleaned, 64)
}

// parseID parses a customer_id. It must be a positive integer; a float
// rendering like "42.0" is tolerated because upstream exports produce it.
func parseID(value string) (int64, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, errors.New("empty string")
	}
	id, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(cleaned, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("not an integer: %q", value)
		}
		id = int64(f)
	}
	if id <= 0 {
		return 0, fmt.Errorf("not positive: %d", id)
	}
	return id, nil
}

// normalizeStatus lower-cases and checks membership in the account status
// enum.
func normalizeStatus(value string) (model.AccountStatus, error) {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	if !model.ValidAccountStatus(cleaned) {
		return "", fmt.Errorf("unknown account status %q", value)
	}
	return model.AccountStatus(cleaned), nil
}

// reformatDate renders a tolerated input layout in the canonical one.
func reformatDate(value string) (string, error) {
	t, err := parseDate(value)
	if err != nil {
		return "", err
	}
	return t.Format(model.DateLayout), nil
}

// reformatNumber renders a numeric string in canonical form, with
// trailing zeros and float artifacts like "42.0" dropped.
func reformatNumber(value string) (string, error) {
	f, err := parseFloat(value)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func reformatStatus(value string) (string, error) {
	st, err := normalizeStatus(value)
	if err != nil {
		return "", err
	}
	return string(st), nil
}
