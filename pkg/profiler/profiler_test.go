// pkg/profiler/profiler_test.go
package profiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/model"
)

func newTestProfiler(t *testing.T) *Profiler {
	t.Helper()
	p, err := NewProfiler(zap.NewNop())
	require.NoError(t, err)
	return p
}

func row(id string) model.RawRecord {
	return model.RawRecord{
		model.FieldCustomerID:    id,
		model.FieldFirstName:     "John",
		model.FieldLastName:      "Smith",
		model.FieldEmail:         "john@example.com",
		model.FieldPhone:         "555-123-4567",
		model.FieldDateOfBirth:   "1985-03-15",
		model.FieldAddress:       "123 Main Street",
		model.FieldIncome:        "50000",
		model.FieldAccountStatus: "active",
		model.FieldCreatedDate:   "2023-01-10",
	}
}

func TestProfileCompleteness(t *testing.T) {
	p := newTestProfiler(t)

	raws := []model.RawRecord{row("1"), row("2"), row("3"), row("4")}
	raws[0][model.FieldEmail] = ""
	raws[1][model.FieldEmail] = "nan"
	raws[2][model.FieldPhone] = "N/A"

	report := p.Profile(raws)
	assert.Equal(t, 4, report.TotalRows)

	email := report.Completeness[model.FieldEmail]
	assert.Equal(t, 2, email.MissingCount)
	assert.InDelta(t, 50.0, email.PercentComplete, 1e-9)

	phone := report.Completeness[model.FieldPhone]
	assert.Equal(t, 1, phone.MissingCount)
	assert.InDelta(t, 75.0, phone.PercentComplete, 1e-9)

	id := report.Completeness[model.FieldCustomerID]
	assert.Equal(t, 0, id.MissingCount)
	assert.InDelta(t, 100.0, id.PercentComplete, 1e-9)
}

func TestProfileInvalidValues(t *testing.T) {
	p := newTestProfiler(t)

	raws := []model.RawRecord{row("1"), row("2"), row("3")}
	raws[0][model.FieldDateOfBirth] = "not-a-date"
	raws[1][model.FieldIncome] = "-2500"
	raws[2][model.FieldAccountStatus] = "frozen"

	report := p.Profile(raws)
	assert.Equal(t, 1, report.InvalidDates)
	assert.Equal(t, 1, report.NegativeIncome)
	assert.Equal(t, 1, report.UnknownStatus)
	assert.GreaterOrEqual(t, report.Severity.High, 1)
}

func TestProfileDuplicateIDs(t *testing.T) {
	p := newTestProfiler(t)

	raws := []model.RawRecord{row("7"), row("7"), row("8")}
	report := p.Profile(raws)

	require.Len(t, report.DuplicateIDs, 1)
	assert.Equal(t, "7", report.DuplicateIDs[0])
	assert.Equal(t, 1, report.Severity.Critical)
}

// Profiling is read-only: the input batch is untouched.
func TestProfileDoesNotMutate(t *testing.T) {
	p := newTestProfiler(t)

	raw := row("1")
	raw[model.FieldEmail] = "  spaced@example.com  "
	p.Profile([]model.RawRecord{raw})

	assert.Equal(t, "  spaced@example.com  ", raw[model.FieldEmail])
}

func TestProfileEmptyBatch(t *testing.T) {
	p := newTestProfiler(t)

	report := p.Profile(nil)
	assert.Equal(t, 0, report.TotalRows)
	assert.Empty(t, report.Completeness)
	assert.Empty(t, report.DuplicateIDs)
}
