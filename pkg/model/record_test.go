// pkg/model/record_test.go
package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldOrderMatchesCount(t *testing.T) {
	order := FieldOrder()
	require.Len(t, order, FieldCount)

	seen := make(map[Field]struct{}, FieldCount)
	for _, f := range order {
		seen[f] = struct{}{}
	}
	assert.Len(t, seen, FieldCount, "field order has no duplicates")
}

func TestValuesAlignWithFieldOrder(t *testing.T) {
	rec := CustomerRecord{
		CustomerID:    42,
		FirstName:     "John",
		LastName:      "Smith",
		Email:         "john@example.com",
		Phone:         "555-123-4567",
		DateOfBirth:   time.Date(1985, 3, 15, 0, 0, 0, 0, time.UTC),
		Address:       "123 Main Street",
		Income:        50000,
		AccountStatus: StatusActive,
		CreatedDate:   time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
	}

	values := rec.Values()
	require.Len(t, values, FieldCount)
	for i, f := range FieldOrder() {
		assert.Equal(t, rec.Value(f), values[i], string(f))
	}
}

func TestToRawCanonicalRendering(t *testing.T) {
	rec := CustomerRecord{
		CustomerID:    42,
		DateOfBirth:   time.Date(1985, 3, 15, 0, 0, 0, 0, time.UTC),
		Income:        0,
		AccountStatus: StatusInactive,
		CreatedDate:   time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
	}

	raw := rec.ToRaw()
	assert.Equal(t, "42", raw[FieldCustomerID])
	assert.Equal(t, "1985-03-15", raw[FieldDateOfBirth])
	assert.Equal(t, "0", raw[FieldIncome], "whole floats render without decimals")
	assert.Equal(t, "inactive", raw[FieldAccountStatus])

	rec.Income = 75000.5
	assert.Equal(t, "75000.5", rec.ToRaw()[FieldIncome])
}

func TestValidAccountStatus(t *testing.T) {
	for _, s := range []string{"active", "inactive", "suspended"} {
		assert.True(t, ValidAccountStatus(s), s)
	}
	for _, s := range []string{"", "Active", "frozen"} {
		assert.False(t, ValidAccountStatus(s), s)
	}
}
