package execution

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// NewProjectedIterator wraps a full-schema iterator so that it yields Records containing
// only the columns at the given indices, in the given order, preserving row count and
// row order. It's the uniform projection path for sources that can't push column
// selection into their decode loop.
//
// schema must be the source schema with indices applied, in the same order.
func NewProjectedIterator(source RecordIterator, schema *arrow.Schema, indices []int) RecordIterator {
	return &projectedIterator{
		source:  source,
		schema:  schema,
		indices: indices,
	}
}

type projectedIterator struct {
	source  RecordIterator
	schema  *arrow.Schema
	indices []int
}

func (it *projectedIterator) Next(ctx context.Context) (Record, error) {
	record, err := it.source.Next(ctx)
	if err != nil {
		return Record{}, err
	}
	defer record.Release()

	columns := make([]arrow.Array, len(it.indices))
	for i, index := range it.indices {
		columns[i] = record.Column(index)
	}

	return Record{Record: array.NewRecord(it.schema, columns, record.NumRows())}, nil
}

func (it *projectedIterator) Close() error {
	return it.source.Close()
}
