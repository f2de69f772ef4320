// pkg/pii/classifier.go
package pii

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/model"
	"github.com/David-Botos/pii-guard/pkg/policy"
)

// Classifier aggregates per-record findings into the dataset-level risk
// profile. It runs exactly once per batch, after every record has
// findings, and its output is a deterministic function of the findings.
type Classifier struct {
	thresholds policy.RiskThresholds
	logger     *zap.Logger
}

// NewClassifier creates a Classifier with the given policy thresholds.
func NewClassifier(thresholds policy.RiskThresholds, logger *zap.Logger) (*Classifier, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Classifier{thresholds: thresholds, logger: logger}, nil
}

// Classify computes exposure percentages, the linkage percentage and the
// overall tier. Rejected records never reach this point, so the
// denominator is the surviving batch.
func (c *Classifier) Classify(batch []model.RecordFindings) model.RiskProfile {
	profile := model.RiskProfile{
		TotalRecords:    len(batch),
		ExposurePercent: make(map[model.Field]float64),
		Tier:            model.RiskLow,
		ComputedAt:      time.Now(),
	}
	if len(batch) == 0 {
		return profile
	}

	exposed := make(map[model.Field]int)
	linked := 0
	for _, rf := range batch {
		for _, finding := range rf.Findings {
			if finding.IsPII && !finding.Placeholder {
				exposed[finding.Field]++
			}
		}
		if rf.Linkage {
			linked++
		}
	}

	total := float64(len(batch))
	for _, f := range model.FieldOrder() {
		if sensitivityByField[f] == model.TierNone {
			continue
		}
		profile.ExposurePercent[f] = float64(exposed[f]) / total * 100
	}
	profile.LinkagePercent = float64(linked) / total * 100

	profile.Tier = c.tier(profile)

	c.logger.Info("Classified dataset risk",
		zap.String("tier", string(profile.Tier)),
		zap.Float64("linkagePercent", profile.LinkagePercent),
		zap.Float64("emailExposure", profile.ExposurePercent[model.FieldEmail]),
		zap.Float64("phoneExposure", profile.ExposurePercent[model.FieldPhone]),
		zap.Int("records", profile.TotalRecords))
	return profile
}

// tier applies the threshold policy: high needs widespread contact
// exposure AND widespread linkage; either alone rates medium.
func (c *Classifier) tier(p model.RiskProfile) model.RiskTier {
	contact := p.ExposurePercent[model.FieldEmail]
	if phone := p.ExposurePercent[model.FieldPhone]; phone > contact {
		contact = phone
	}

	contactHigh := contact >= c.thresholds.ContactExposurePercent
	linkageHigh := p.LinkagePercent >= c.thresholds.LinkagePercent

	switch {
	case contactHigh && linkageHigh:
		return model.RiskHigh
	case contactHigh || linkageHigh:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}
