package execution

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceIterator struct {
	records []Record
	cursor  int
	closed  bool
}

func (it *sliceIterator) Next(ctx context.Context) (Record, error) {
	if it.cursor >= len(it.records) {
		return Record{}, ErrEndOfStream
	}
	record := it.records[it.cursor]
	it.cursor++
	record.Retain()
	return record, nil
}

func (it *sliceIterator) Close() error {
	it.closed = true
	return nil
}

func makeTestRecord(t *testing.T, schema *arrow.Schema, ids []int64, names []string) Record {
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	builder.Field(0).(*array.Int64Builder).AppendValues(ids, nil)
	builder.Field(1).(*array.StringBuilder).AppendValues(names, nil)

	record := builder.NewRecord()
	return Record{Record: record}
}

func TestProjectedIterator(t *testing.T) {
	ctx := context.Background()
	schema := arrow.NewSchema(
		[]arrow.Field{
			{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
			{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		},
		nil,
	)

	source := &sliceIterator{
		records: []Record{
			makeTestRecord(t, schema, []int64{1, 2, 3}, []string{"a", "b", "c"}),
			makeTestRecord(t, schema, []int64{4, 5}, []string{"d", "e"}),
		},
	}

	projectedSchema := arrow.NewSchema(
		[]arrow.Field{
			{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		},
		nil,
	)

	it := NewProjectedIterator(source, projectedSchema, []int{1})

	records, err := ReadAll(ctx, it)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.True(t, records[0].Schema().Equal(projectedSchema))
	assert.Equal(t, int64(3), records[0].NumRows())
	assert.Equal(t, int64(1), records[0].NumCols())
	names := records[0].Column(0).(*array.String)
	assert.Equal(t, "a", names.Value(0))
	assert.Equal(t, "c", names.Value(2))

	assert.Equal(t, int64(2), records[1].NumRows())
	assert.True(t, source.closed)

	for _, record := range records {
		record.Release()
	}
}

func TestProjectedIteratorReorder(t *testing.T) {
	ctx := context.Background()
	schema := arrow.NewSchema(
		[]arrow.Field{
			{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
			{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		},
		nil,
	)

	source := &sliceIterator{
		records: []Record{
			makeTestRecord(t, schema, []int64{7}, []string{"g"}),
		},
	}

	projectedSchema := arrow.NewSchema(
		[]arrow.Field{
			{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
			{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		},
		nil,
	)

	it := NewProjectedIterator(source, projectedSchema, []int{1, 0})
	defer it.Close()

	record, err := it.Next(ctx)
	require.NoError(t, err)
	defer record.Release()

	assert.Equal(t, "g", record.Column(0).(*array.String).Value(0))
	assert.Equal(t, int64(7), record.Column(1).(*array.Int64).Value(0))

	_, err = it.Next(ctx)
	assert.Equal(t, ErrEndOfStream, err)
	_, err = it.Next(ctx)
	assert.Equal(t, ErrEndOfStream, err)
}
