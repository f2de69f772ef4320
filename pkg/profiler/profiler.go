// pkg/profiler/profiler.go
package profiler

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/model"
)

// Profiler computes a read-only quality profile of a raw batch before
// any repair happens. It never modifies or excludes rows; it only counts.
type Profiler struct {
	logger *zap.Logger
}

// NewProfiler creates a Profiler.
func NewProfiler(logger *zap.Logger) (*Profiler, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Profiler{logger: logger}, nil
}

// ColumnCompleteness describes how populated one column is.
type ColumnCompleteness struct {
	PercentComplete float64
	MissingCount    int
}

// SeverityTally rolls quality issues up by how badly they block
// processing.
type SeverityTally struct {
	Critical int // blocks processing (duplicate identity)
	High     int // data incorrect (invalid values)
	Medium   int // needs cleaning (incomplete columns)
}

// QualityReport is the profile of one raw batch.
type QualityReport struct {
	TotalRows      int
	Completeness   map[model.Field]ColumnCompleteness
	DuplicateIDs   []string
	InvalidDates   int
	NegativeIncome int
	UnknownStatus  int
	Severity       SeverityTally
}

// Profile scans the batch and produces the report.
func (p *Profiler) Profile(raws []model.RawRecord) *QualityReport {
	report := &QualityReport{
		TotalRows:    len(raws),
		Completeness: make(map[model.Field]ColumnCompleteness, model.FieldCount),
	}
	if len(raws) == 0 {
		return report
	}

	missing := make(map[model.Field]int)
	idSeen := make(map[string]int)

	for _, raw := range raws {
		for _, f := range model.FieldOrder() {
			if isBlank(raw[f]) {
				missing[f]++
			}
		}

		if id := strings.TrimSpace(raw[model.FieldCustomerID]); id != "" {
			idSeen[id]++
		}

		if v := strings.TrimSpace(raw[model.FieldDateOfBirth]); v != "" && !parseableDate(v) {
			report.InvalidDates++
		}
		if v := strings.TrimSpace(raw[model.FieldIncome]); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f < 0 {
				report.NegativeIncome++
			}
		}
		if v := strings.ToLower(strings.TrimSpace(raw[model.FieldAccountStatus])); v != "" {
			if !model.ValidAccountStatus(v) && !isBlank(v) {
				report.UnknownStatus++
			}
		}
	}

	total := float64(len(raws))
	for _, f := range model.FieldOrder() {
		m := missing[f]
		pct := (total - float64(m)) / total * 100
		report.Completeness[f] = ColumnCompleteness{
			PercentComplete: math.Round(pct*100) / 100,
			MissingCount:    m,
		}
		if pct < 90 {
			report.Severity.High++
		} else if pct < 100 {
			report.Severity.Medium++
		}
	}

	for id, n := range idSeen {
		if n > 1 {
			report.DuplicateIDs = append(report.DuplicateIDs, id)
		}
	}
	if len(report.DuplicateIDs) > 0 {
		report.Severity.Critical++
	}
	if report.InvalidDates > 0 || report.NegativeIncome > 0 || report.UnknownStatus > 0 {
		report.Severity.High++
	}

	p.logger.Info("Profiled batch",
		zap.Int("rows", report.TotalRows),
		zap.Int("duplicateIDs", len(report.DuplicateIDs)),
		zap.Int("invalidDates", report.InvalidDates),
		zap.Int("negativeIncome", report.NegativeIncome),
		zap.Int("unknownStatus", report.UnknownStatus))
	return report
}

// isBlank mirrors the missing-value markers the cleaner uses.
func isBlank(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "nan", "null", "none", "n/a":
		return true
	}
	return false
}

func parseableDate(value string) bool {
	for _, layout := range []string{"2006-01-02", "2006/01/02", "01/02/2006"} {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
