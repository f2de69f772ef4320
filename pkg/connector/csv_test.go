// pkg/connector/csv_test.go
package connector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/pii-guard/pkg/model"
)

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customers.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestCSVSourceFetch(t *testing.T) {
	// Columns deliberately out of canonical order, with an extra column
	// the schema does not know.
	path := writeCSV(t, "email,customer_id,first_name,notes\n"+
		"john@example.com,1,John,ignore me\n"+
		"jane@example.com,2,Jane,also ignored\n")

	source, err := NewCSVSource(path, zap.NewNop())
	require.NoError(t, err)
	defer source.Close()

	records, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "1", records[0][model.FieldCustomerID])
	assert.Equal(t, "John", records[0][model.FieldFirstName])
	assert.Equal(t, "john@example.com", records[0][model.FieldEmail])
	assert.Equal(t, "2", records[1][model.FieldCustomerID])

	// Absent columns arrive empty, not missing from the map.
	assert.Contains(t, records[0], model.FieldPhone)
	assert.Equal(t, "", records[0][model.FieldPhone])
}

func TestCSVSourceRaggedRows(t *testing.T) {
	path := writeCSV(t, "customer_id,first_name,last_name\n"+
		"1,John\n"+
		"2,Jane,Doe\n")

	source, err := NewCSVSource(path, zap.NewNop())
	require.NoError(t, err)

	records, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "", records[0][model.FieldLastName])
	assert.Equal(t, "Doe", records[1][model.FieldLastName])
}

func TestCSVSourceMissingFile(t *testing.T) {
	source, err := NewCSVSource(filepath.Join(t.TempDir(), "absent.csv"), zap.NewNop())
	require.NoError(t, err)

	_, err = source.Fetch(context.Background())
	assert.Error(t, err)
}

func TestNewCSVSourceEmptyPath(t *testing.T) {
	_, err := NewCSVSource("", zap.NewNop())
	assert.Error(t, err)
}

func TestStaticSourceCopies(t *testing.T) {
	batch := []model.RawRecord{
		{model.FieldCustomerID: "1"},
		{model.FieldCustomerID: "2"},
	}
	source := NewStaticSource("seed", batch)
	assert.Equal(t, "static:seed", source.Name())

	records, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	// The returned slice is a copy; reordering it cannot corrupt the seed.
	records[0], records[1] = records[1], records[0]
	again, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", again[0][model.FieldCustomerID])
}

func TestStaticSourceHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStaticSource("seed", nil).Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
