// pkg/validator/coerce.go
package validator

import (
	"errors"
	"strconv"
)

// parseInt coerces a raw string to int64, tolerating the "42.0" float
// rendering some exports produce.
func parseInt(value string) (int64, error) {
	if value == "" {
		return 0, errors.New("empty string")
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, errors.New("not an integer")
	}
	return int64(f), nil
}

// parseNumber coerces a raw string to float64. Empty counts as zero so a
// missing income surfaces on the range rules, not as a type error.
func parseNumber(value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}
