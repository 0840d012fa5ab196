package json

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrowscan/arrowscan/datasource"
	"github.com/arrowscan/arrowscan/execution"
)

func TestSchemaInference(t *testing.T) {
	provider, err := NewTableProvider("fixtures/events.json", Options{})
	require.NoError(t, err)

	schema, err := provider.Schema()
	require.NoError(t, err)
	require.Equal(t, 5, schema.NumFields())

	expected := []struct {
		name string
		dt   arrow.DataType
	}{
		{"id", arrow.PrimitiveTypes.Int64},
		{"kind", arrow.BinaryTypes.String},
		{"value", arrow.PrimitiveTypes.Float64},
		{"ok", arrow.FixedWidthTypes.Boolean},
		{"extra", arrow.BinaryTypes.String},
	}
	for i, field := range expected {
		assert.Equal(t, field.name, schema.Field(i).Name)
		assert.True(t, arrow.TypeEqual(field.dt, schema.Field(i).Type), "field %s", field.name)
	}
}

func TestScan(t *testing.T) {
	ctx := context.Background()
	provider, err := NewTableProvider("fixtures/events.json", Options{})
	require.NoError(t, err)

	result, err := provider.Scan(nil, 1)
	require.NoError(t, err)
	require.Len(t, result.Partitions, 1)

	records, err := execution.ReadAll(ctx, result.Partitions[0])
	require.NoError(t, err)
	require.Len(t, records, 1)
	record := records[0]
	defer record.Release()
	require.Equal(t, int64(3), record.NumRows())

	ids := record.Column(0).(*array.Int64)
	assert.Equal(t, int64(1), ids.Value(0))
	assert.Equal(t, int64(3), ids.Value(2))

	kinds := record.Column(1).(*array.String)
	assert.Equal(t, "click", kinds.Value(0))
	assert.True(t, kinds.IsNull(2))

	values := record.Column(2).(*array.Float64)
	assert.Equal(t, 0.5, values.Value(0))
	assert.Equal(t, 2.0, values.Value(2))

	extras := record.Column(4).(*array.String)
	assert.True(t, extras.IsNull(0))
	assert.Equal(t, "only here", extras.Value(1))
}

func TestProjection(t *testing.T) {
	ctx := context.Background()
	provider, err := NewTableProvider("fixtures/events.json", Options{})
	require.NoError(t, err)

	result, err := provider.Scan(datasource.Projection{3, 0}, 1)
	require.NoError(t, err)
	require.Equal(t, 2, result.Schema.NumFields())
	assert.Equal(t, "ok", result.Schema.Field(0).Name)
	assert.Equal(t, "id", result.Schema.Field(1).Name)

	records, err := execution.ReadAll(ctx, result.Partitions[0])
	require.NoError(t, err)
	require.Len(t, records, 1)
	defer records[0].Release()
	assert.Equal(t, int64(2), records[0].NumCols())
	assert.True(t, records[0].Column(0).(*array.Boolean).Value(0))
	assert.Equal(t, int64(1), records[0].Column(1).(*array.Int64).Value(0))
}

func TestMalformedLine(t *testing.T) {
	ctx := context.Background()
	provider, err := NewTableProvider("fixtures/malformed.json", Options{TypeInferenceRows: 2})
	require.NoError(t, err)

	result, err := provider.Scan(nil, 1)
	require.NoError(t, err)
	it := result.Partitions[0]
	defer it.Close()

	record, err := it.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), record.NumRows())
	record.Release()

	_, err = it.Next(ctx)
	require.Error(t, err)
	var decodeErr *execution.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, int64(2), decodeErr.Row)

	_, repeated := it.Next(ctx)
	assert.Equal(t, err, repeated)
}

func TestMissingFile(t *testing.T) {
	_, err := NewTableProvider("fixtures/does_not_exist.json", Options{})
	assert.ErrorIs(t, err, datasource.ErrSchemaUnavailable)
}

func TestMultiplePartitions(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "numbers.json")
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&sb, "{\"id\": %d, \"name\": \"name-%d\"}\n", i, i)
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))

	provider, err := NewTableProvider(path, Options{BatchSize: 64, MinPartitionBytes: 64})
	require.NoError(t, err)

	result, err := provider.Scan(nil, 3)
	require.NoError(t, err)
	require.Len(t, result.Partitions, 3)

	var all []int64
	for _, partition := range result.Partitions {
		records, err := execution.ReadAll(ctx, partition)
		require.NoError(t, err)
		for _, record := range records {
			column := record.Column(0).(*array.Int64)
			for i := 0; i < column.Len(); i++ {
				all = append(all, column.Value(i))
			}
			record.Release()
		}
	}

	require.Len(t, all, 500)
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	for i, id := range all {
		require.Equal(t, int64(i), id)
	}
}
