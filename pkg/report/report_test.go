// pkg/report/report_test.go
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/model"
	"github.com/David-Botos/pii-guard/pkg/pipeline"
	"github.com/David-Botos/pii-guard/pkg/policy"
)

func runResult(t *testing.T) *Result {
	t.Helper()

	pipe, err := pipeline.New(policy.Default(), zap.NewNop())
	require.NoError(t, err)
	pipe.Cleaner().WithClock(func() time.Time {
		return time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)
	})

	raws := make([]model.RawRecord, 0, 4)
	for i := 1; i <= 4; i++ {
		raws = append(raws, model.RawRecord{
			model.FieldCustomerID:    fmt.Sprintf("%d", i),
			model.FieldFirstName:     "John",
			model.FieldLastName:      "Smith",
			model.FieldEmail:         fmt.Sprintf("john%d@example.com", i),
			model.FieldPhone:         "555-123-4567",
			model.FieldDateOfBirth:   "1985-03-15",
			model.FieldAddress:       "123 Main Street, Springfield",
			model.FieldIncome:        "50000",
			model.FieldAccountStatus: "active",
			model.FieldCreatedDate:   "2023-01-10",
		})
	}
	raws[3][model.FieldEmail] = ""

	result, err := pipe.Run(context.Background(), raws)
	require.NoError(t, err)
	return result
}

func TestRenderSections(t *testing.T) {
	b, err := NewBuilder(runResult(t), zap.NewNop())
	require.NoError(t, err)

	text := b.Render()
	assert.Contains(t, text, "INITIAL DATA QUALITY")
	assert.Contains(t, text, "CLEANING")
	assert.Contains(t, text, "VALIDATION")
	assert.Contains(t, text, "PII EXPOSURE")
	assert.Contains(t, text, "MASKING SAMPLE")
	assert.Contains(t, text, "J***")
	assert.Contains(t, text, "***-***-4567")
}

func TestWriteFile(t *testing.T) {
	result := runResult(t)
	b, err := NewBuilder(result, zap.NewNop())
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := b.WriteFile(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, result.RunID+".txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), result.RunID)
}

func TestNewBuilderNilResult(t *testing.T) {
	_, err := NewBuilder(nil, zap.NewNop())
	assert.Error(t, err)
}
