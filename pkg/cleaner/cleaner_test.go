// pkg/cleaner/cleaner_test.go
package cleaner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/model"
	"github.com/David-Botos/pii-guard/pkg/policy"
)

var testClock = func() time.Time {
	return time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)
}

func newTestCleaner(t *testing.T) *Cleaner {
	t.Helper()
	c, err := NewCleaner(policy.Default(), zap.NewNop())
	require.NoError(t, err)
	return c.WithClock(testClock)
}

func validRaw() model.RawRecord {
	return model.RawRecord{
		model.FieldCustomerID:    "42",
		model.FieldFirstName:     "John",
		model.FieldLastName:      "Smith",
		model.FieldEmail:         "john.smith@example.com",
		model.FieldPhone:         "555-123-4567",
		model.FieldDateOfBirth:   "1985-03-15",
		model.FieldAddress:       "123 Main Street, Springfield",
		model.FieldIncome:        "75000.5",
		model.FieldAccountStatus: "active",
		model.FieldCreatedDate:   "2023-01-10",
	}
}

func TestNewCleaner(t *testing.T) {
	_, err := NewCleaner(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewCleaner(policy.Default(), nil)
	assert.Error(t, err)
}

func TestCleanRecordValidRowUntouched(t *testing.T) {
	c := newTestCleaner(t)

	rec, statuses, ops, rejected := c.CleanRecord(0, validRaw())
	require.Nil(t, rejected)
	assert.Empty(t, ops, "a well-formed row needs no repairs")

	assert.Equal(t, int64(42), rec.CustomerID)
	assert.Equal(t, "John", rec.FirstName)
	assert.Equal(t, "Smith", rec.LastName)
	assert.Equal(t, "john.smith@example.com", rec.Email)
	assert.Equal(t, "555-123-4567", rec.Phone)
	assert.Equal(t, "1985-03-15", rec.DateOfBirth.Format(model.DateLayout))
	assert.Equal(t, 75000.5, rec.Income)
	assert.Equal(t, model.StatusActive, rec.AccountStatus)
	assert.Equal(t, "2023-01-10", rec.CreatedDate.Format(model.DateLayout))

	for _, f := range model.FieldOrder() {
		assert.Equal(t, model.FieldOK, statuses.Status(f), string(f))
	}
}

func TestCleanRecordMissingFieldDefaults(t *testing.T) {
	c := newTestCleaner(t)

	raw := model.RawRecord{
		model.FieldCustomerID:    "7",
		model.FieldFirstName:     "",
		model.FieldLastName:      "nan",
		model.FieldEmail:         "NULL",
		model.FieldPhone:         "none",
		model.FieldDateOfBirth:   "n/a",
		model.FieldAddress:       "",
		model.FieldIncome:        "",
		model.FieldAccountStatus: "",
		model.FieldCreatedDate:   "",
	}

	rec, statuses, ops, rejected := c.CleanRecord(0, raw)
	require.Nil(t, rejected)

	assert.Equal(t, policy.PlaceholderName, rec.FirstName)
	assert.Equal(t, policy.PlaceholderName, rec.LastName)
	assert.Equal(t, policy.PlaceholderEmail, rec.Email)
	assert.Equal(t, policy.PlaceholderPhone, rec.Phone)
	assert.True(t, rec.DateOfBirth.Equal(policy.SentinelDOB))
	assert.Equal(t, policy.PlaceholderAddress, rec.Address)
	assert.Equal(t, 0.0, rec.Income)
	assert.Equal(t, model.StatusInactive, rec.AccountStatus)
	assert.Equal(t, "2024-06-15", rec.CreatedDate.Format(model.DateLayout),
		"created_date defaults to the processing date")

	// Every field except customer_id was repaired.
	assert.Len(t, ops, 9)
	for _, op := range ops {
		assert.Equal(t, "7", op.RowIdentifier)
		assert.Equal(t, "default_substitution", op.Operation)
		assert.Equal(t, "missing_value", op.Reason)
	}
	for _, f := range model.FieldOrder() {
		if f == model.FieldCustomerID {
			assert.Equal(t, model.FieldOK, statuses.Status(f))
			continue
		}
		assert.Equal(t, model.FieldDefaulted, statuses.Status(f), string(f))
	}
}

func TestCleanRecordMalformedValues(t *testing.T) {
	c := newTestCleaner(t)

	raw := validRaw()
	raw[model.FieldPhone] = "555-1234" // seven digits
	raw[model.FieldDateOfBirth] = "not a date"
	raw[model.FieldIncome] = "lots"
	raw[model.FieldAccountStatus] = "frozen"
	raw[model.FieldCreatedDate] = "soon"

	rec, statuses, ops, rejected := c.CleanRecord(0, raw)
	require.Nil(t, rejected)

	assert.Equal(t, policy.PlaceholderPhone, rec.Phone)
	assert.True(t, rec.DateOfBirth.Equal(policy.SentinelDOB))
	assert.Equal(t, 0.0, rec.Income)
	assert.Equal(t, model.StatusInactive, rec.AccountStatus)
	assert.Equal(t, "2024-06-15", rec.CreatedDate.Format(model.DateLayout))

	assert.Len(t, ops, 5)
	for _, op := range ops {
		assert.Equal(t, "malformed_value", op.Reason, string(op.Field))
	}
	assert.Equal(t, model.FieldDefaulted, statuses.Status(model.FieldPhone))
	assert.Equal(t, model.FieldDefaulted, statuses.Status(model.FieldAccountStatus))
}

func TestCleanRecordNormalization(t *testing.T) {
	c := newTestCleaner(t)

	raw := validRaw()
	raw[model.FieldFirstName] = "  jOHN  "
	raw[model.FieldLastName] = "o'brien-SMITH"
	raw[model.FieldPhone] = "(555) 123.4567"
	raw[model.FieldDateOfBirth] = "03/15/1985"
	raw[model.FieldCreatedDate] = "2023/01/10"
	raw[model.FieldAccountStatus] = " ACTIVE "

	rec, _, ops, rejected := c.CleanRecord(0, raw)
	require.Nil(t, rejected)

	assert.Equal(t, "John", rec.FirstName)
	assert.Equal(t, "O'Brien-Smith", rec.LastName)
	assert.Equal(t, "555-123-4567", rec.Phone)
	assert.Equal(t, "1985-03-15", rec.DateOfBirth.Format(model.DateLayout))
	assert.Equal(t, "2023-01-10", rec.CreatedDate.Format(model.DateLayout))
	assert.Equal(t, model.StatusActive, rec.AccountStatus)

	// Every normalization that changed a value is on the audit trail.
	byField := make(map[model.Field]model.RemediationOperation)
	for _, op := range ops {
		byField[op.Field] = op
	}
	assert.Equal(t, "title_case_normalization", byField[model.FieldFirstName].Operation)
	assert.Equal(t, "phone_reformat", byField[model.FieldPhone].Operation)
	assert.Equal(t, "date_reformat", byField[model.FieldDateOfBirth].Operation)
	assert.Equal(t, "enum_normalization", byField[model.FieldAccountStatus].Operation)
	for _, op := range ops {
		assert.Equal(t, "format_normalization", op.Reason)
	}
}

// The per-field action table drives remediation, so a policy override
// changes cleaning behavior without a code change.
func TestCleanRecordPolicyActionDispatch(t *testing.T) {
	newCleanerWith := func(t *testing.T, p *policy.Policy) *Cleaner {
		t.Helper()
		c, err := NewCleaner(p, zap.NewNop())
		require.NoError(t, err)
		return c.WithClock(testClock)
	}

	t.Run("skip leaves a malformed value for the validator", func(t *testing.T) {
		p := policy.Default()
		p.Fields[model.FieldPhone] = policy.FieldRule{Action: policy.ActionSkip}
		c := newCleanerWith(t, p)

		raw := validRaw()
		raw[model.FieldPhone] = "555-1234"

		rec, statuses, ops, rejected := c.CleanRecord(0, raw)
		require.Nil(t, rejected)
		assert.Equal(t, "555-1234", rec.Phone)
		assert.Equal(t, model.FieldOK, statuses.Status(model.FieldPhone))
		assert.Empty(t, ops)
	})

	t.Run("skip leaves a missing value empty", func(t *testing.T) {
		p := policy.Default()
		p.Fields[model.FieldEmail] = policy.FieldRule{Action: policy.ActionSkip}
		c := newCleanerWith(t, p)

		raw := validRaw()
		raw[model.FieldEmail] = ""

		rec, _, ops, rejected := c.CleanRecord(0, raw)
		require.Nil(t, rejected)
		assert.Equal(t, "", rec.Email)
		assert.Empty(t, ops)
	})

	t.Run("default action passes a present value through untouched", func(t *testing.T) {
		p := policy.Default()
		p.Fields[model.FieldFirstName] = policy.FieldRule{Action: policy.ActionDefault, Default: policy.PlaceholderName}
		c := newCleanerWith(t, p)

		raw := validRaw()
		raw[model.FieldFirstName] = "  jOHN  "

		rec, _, ops, rejected := c.CleanRecord(0, raw)
		require.Nil(t, rejected)
		assert.Equal(t, "jOHN", rec.FirstName, "no reformat rule, so only whitespace goes")
		require.Len(t, ops, 1)
		assert.Equal(t, "whitespace_trim", ops[0].Operation)
	})

	t.Run("override default value is substituted", func(t *testing.T) {
		p := policy.Default()
		p.Fields[model.FieldEmail] = policy.FieldRule{Action: policy.ActionDefault, Default: "redacted@example.com"}
		c := newCleanerWith(t, p)

		raw := validRaw()
		raw[model.FieldEmail] = "nan"

		rec, statuses, ops, rejected := c.CleanRecord(0, raw)
		require.Nil(t, rejected)
		assert.Equal(t, "redacted@example.com", rec.Email)
		assert.Equal(t, model.FieldDefaulted, statuses.Status(model.FieldEmail))
		require.Len(t, ops, 1)
		assert.Equal(t, "default_substitution", ops[0].Operation)
	})
}

func TestCleanRecordIdentityRejections(t *testing.T) {
	c := newTestCleaner(t)

	tests := []struct {
		name   string
		id     string
		reason model.RejectReason
	}{
		{"empty", "", model.RejectMissingIdentity},
		{"missing marker", "nan", model.RejectMissingIdentity},
		{"non numeric", "abc", model.RejectMalformedIdentity},
		{"negative", "-5", model.RejectMalformedIdentity},
		{"zero", "0", model.RejectMalformedIdentity},
		{"fractional", "42.5", model.RejectMalformedIdentity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			raw[model.FieldCustomerID] = tt.id

			_, _, _, rejected := c.CleanRecord(3, raw)
			require.NotNil(t, rejected)
			assert.Equal(t, tt.reason, rejected.Reason)
			assert.Equal(t, 3, rejected.RowIndex)
		})
	}

	// A float rendering of a whole number is tolerated.
	raw := validRaw()
	raw[model.FieldCustomerID] = "42.0"
	rec, _, _, rejected := c.CleanRecord(0, raw)
	require.Nil(t, rejected)
	assert.Equal(t, int64(42), rec.CustomerID)
}

func TestCleanRecordStructuralShift(t *testing.T) {
	c := newTestCleaner(t)

	// Classic column slide: every value landed one field to the right of
	// where its type belongs.
	raw := model.RawRecord{
		model.FieldCustomerID:    "2",
		model.FieldFirstName:     "Jane",
		model.FieldLastName:      "Doe",
		model.FieldEmail:         "jane@example.com",
		model.FieldPhone:         "555-987-6543",
		model.FieldDateOfBirth:   "1990-07-22",
		model.FieldAddress:       "95000",
		model.FieldIncome:        "active",
		model.FieldAccountStatus: "2024-01-11",
		model.FieldCreatedDate:   "2024-01-12",
	}

	_, _, _, rejected := c.CleanRecord(1, raw)
	require.NotNil(t, rejected)
	assert.Equal(t, model.RejectStructuralShift, rejected.Reason)
	assert.Equal(t, "2", rejected.CustomerID)
	assert.NotEmpty(t, rejected.Detail)
}

func TestCleanRecordSingleOddValueIsNotShift(t *testing.T) {
	c := newTestCleaner(t)

	// One type mismatch alone is a field problem, not corruption.
	raw := validRaw()
	raw[model.FieldAddress] = "95000"

	rec, _, _, rejected := c.CleanRecord(0, raw)
	require.Nil(t, rejected)
	assert.Equal(t, "95000", rec.Address)
}

func TestCleanBatchDuplicateIDsAllDropped(t *testing.T) {
	c := newTestCleaner(t)

	first := validRaw()
	second := validRaw()
	second[model.FieldEmail] = "other@example.com"
	third := validRaw()
	third[model.FieldCustomerID] = "99"

	result := c.CleanBatch([]model.RawRecord{first, second, third})

	assert.Equal(t, 3, result.InitialCount)
	require.Equal(t, 1, result.CleanedCount(), "both conflicting rows are dropped")
	assert.Equal(t, int64(99), result.Cleaned[0].Record.CustomerID)

	require.Equal(t, 2, result.RejectedCount())
	for _, rej := range result.Rejected {
		assert.Equal(t, model.RejectDuplicateIdentity, rej.Reason)
		assert.Equal(t, "42", rej.CustomerID)
	}
}

func TestCleanBatchOrderPreserved(t *testing.T) {
	c := newTestCleaner(t)

	var raws []model.RawRecord
	for _, id := range []string{"5", "3", "9"} {
		raw := validRaw()
		raw[model.FieldCustomerID] = id
		raws = append(raws, raw)
	}

	result := c.CleanBatch(raws)
	require.Equal(t, 3, result.CleanedCount())
	assert.Equal(t, int64(5), result.Cleaned[0].Record.CustomerID)
	assert.Equal(t, int64(3), result.Cleaned[1].Record.CustomerID)
	assert.Equal(t, int64(9), result.Cleaned[2].Record.CustomerID)
}

// Cleaning an already-clean record must change nothing: the canonical
// rendering round-trips through the cleaner with zero repairs.
func TestCleanRecordFixedPoint(t *testing.T) {
	c := newTestCleaner(t)

	dirty := validRaw()
	dirty[model.FieldFirstName] = "  jOHN "
	dirty[model.FieldPhone] = "(555) 123-4567"
	dirty[model.FieldDateOfBirth] = "03/15/1985"
	dirty[model.FieldEmail] = ""

	once, _, _, rejected := c.CleanRecord(0, dirty)
	require.Nil(t, rejected)

	twice, _, ops, rejected := c.CleanRecord(0, once.ToRaw())
	require.Nil(t, rejected)
	assert.Empty(t, ops, "second pass must be a no-op")
	assert.Equal(t, once, twice)
}
