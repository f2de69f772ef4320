// pkg/connector/csv.go
package connector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/model"
)

// CSVSource implements the RecordSource interface over a local CSV file.
// It is the offline counterpart to the Snowflake source and the usual
// input for ad hoc runs.
type CSVSource struct {
	path   string
	logger *zap.Logger
}

// NewCSVSource creates a CSV-backed record source
func NewCSVSource(path string, logger *zap.Logger) (*CSVSource, error) {
	if path == "" {
		return nil, fmt.Errorf("csv path cannot be empty")
	}
	if logger == nil {
		logger = zap.L()
	}
	return &CSVSource{
		path:   path,
		logger: logger.Named("csv-source"),
	}, nil
}

// Name identifies the source
func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

// Fetch reads the whole file. The header row is mapped to fields by
// name, so column order in the file does not matter; unknown columns
// are ignored and absent columns yield empty values.
func (s *CSVSource) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // ragged rows are a data problem, not a read error

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", s.path, err)
	}

	columnIndex := make(map[model.Field]int)
	for i, name := range header {
		columnIndex[model.Field(strings.ToLower(strings.TrimSpace(name)))] = i
	}
	for _, f := range model.FieldOrder() {
		if _, ok := columnIndex[f]; !ok {
			s.logger.Warn("CSV is missing a column", zap.String("column", string(f)))
		}
	}

	var records []model.RawRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read row %d: %w", len(records)+1, err)
		}

		raw := make(model.RawRecord, model.FieldCount)
		for _, f := range model.FieldOrder() {
			idx, ok := columnIndex[f]
			if !ok || idx >= len(row) {
				raw[f] = ""
				continue
			}
			raw[f] = row[idx]
		}
		records = append(records, raw)
	}

	s.logger.Info("Loaded records from CSV",
		zap.String("path", s.path),
		zap.Int("rows", len(records)))
	return records, nil
}

// Close is a no-op; the file handle does not outlive Fetch
func (s *CSVSource) Close() error { return nil }

// StaticSource serves an in-memory batch. Used by tests and as a seed
// source for demonstration runs.
type StaticSource struct {
	name    string
	records []model.RawRecord
}

// NewStaticSource creates a source over a fixed batch
func NewStaticSource(name string, records []model.RawRecord) *StaticSource {
	return &StaticSource{name: name, records: records}
}

func (s *StaticSource) Name() string { return "static:" + s.name }

func (s *StaticSource) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]model.RawRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *StaticSource) Close() error { return nil }
