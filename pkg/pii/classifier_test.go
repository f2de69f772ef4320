// pkg/pii/classifier_test.go
package pii

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/model"
	"github.com/David-Botos/pii-guard/pkg/policy"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(policy.RiskThresholds{
		ContactExposurePercent: 90,
		LinkagePercent:         50,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

// findingsBatch builds n findings: the first `exposed` have a real email
// and phone, the rest hold placeholders; the first `linked` carry the
// linkage signal.
func findingsBatch(n, exposed, linked int) []model.RecordFindings {
	batch := make([]model.RecordFindings, 0, n)
	for i := 0; i < n; i++ {
		var findings []model.PiiFinding
		for _, f := range model.FieldOrder() {
			tier := SensitivityOf(f)
			finding := model.PiiFinding{Field: f, Tier: tier, IsPII: tier != model.TierNone}
			if finding.IsPII && i >= exposed {
				finding.Placeholder = true
			}
			findings = append(findings, finding)
		}
		batch = append(batch, model.RecordFindings{
			RowIdentifier: fmt.Sprintf("%d", i+1),
			Findings:      findings,
			Linkage:       i < linked,
		})
	}
	return batch
}

func TestClassifyExposurePercentages(t *testing.T) {
	c := newTestClassifier(t)

	profile := c.Classify(findingsBatch(10, 4, 2))
	assert.Equal(t, 10, profile.TotalRecords)
	assert.InDelta(t, 40.0, profile.ExposurePercent[model.FieldEmail], 1e-9)
	assert.InDelta(t, 40.0, profile.ExposurePercent[model.FieldPhone], 1e-9)
	assert.InDelta(t, 20.0, profile.LinkagePercent, 1e-9)

	// Non-PII fields get no exposure entry.
	_, ok := profile.ExposurePercent[model.FieldCustomerID]
	assert.False(t, ok)
}

func TestClassifyTiers(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name    string
		exposed int
		linked  int
		tier    model.RiskTier
	}{
		{"exposure and linkage both high", 9, 5, model.RiskHigh},
		{"exposure high, linkage low", 10, 2, model.RiskMedium},
		{"linkage high, exposure low", 3, 8, model.RiskMedium},
		{"both low", 3, 2, model.RiskLow},
		{"exactly at thresholds", 9, 5, model.RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := c.Classify(findingsBatch(10, tt.exposed, tt.linked))
			assert.Equal(t, tt.tier, profile.Tier)
		})
	}
}

func TestClassifyEmptyBatch(t *testing.T) {
	c := newTestClassifier(t)

	profile := c.Classify(nil)
	assert.Equal(t, 0, profile.TotalRecords)
	assert.Equal(t, model.RiskLow, profile.Tier)
	assert.Zero(t, profile.LinkagePercent)
}

// The profile is a pure function of the findings.
func TestClassifyDeterministic(t *testing.T) {
	c := newTestClassifier(t)

	batch := findingsBatch(10, 9, 6)
	first := c.Classify(batch)
	second := c.Classify(batch)

	assert.Equal(t, first.Tier, second.Tier)
	assert.Equal(t, first.ExposurePercent, second.ExposurePercent)
	assert.Equal(t, first.LinkagePercent, second.LinkagePercent)
}
