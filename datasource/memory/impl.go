// Package memory contains a table provider over a fixed, pre-materialized set of
// Records. It has no discovery cost and no I/O failure modes, which makes it the
// reference implementation of the scan contract and the vehicle for intermediate
// results and test fixtures.
package memory

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arrowscan/arrowscan/datasource"
	"github.com/arrowscan/arrowscan/execution"
)

type TableProvider struct {
	schema  *arrow.Schema
	records []execution.Record
	rows    int64
}

// NewTableProvider creates a provider over the given records. Every record must
// conform to the schema and be non-empty. The provider takes ownership of the
// records; they are retained for each scan that yields them.
func NewTableProvider(schema *arrow.Schema, records []execution.Record) (*TableProvider, error) {
	var rows int64
	for i, record := range records {
		if !record.Schema().Equal(schema) {
			return nil, fmt.Errorf("record %d doesn't conform to the table schema: got %v, want %v", i, record.Schema(), schema)
		}
		if record.NumRows() == 0 {
			return nil, fmt.Errorf("record %d is empty", i)
		}
		rows += record.NumRows()
	}

	return &TableProvider{
		schema:  schema,
		records: records,
		rows:    rows,
	}, nil
}

func (t *TableProvider) Schema() (*arrow.Schema, error) {
	return t.schema, nil
}

func (t *TableProvider) Statistics() *datasource.Statistics {
	rows := t.rows
	return &datasource.Statistics{RowCount: &rows}
}

// Scan partitions the record sequence into contiguous sub-ranges, never splitting
// a record: records are the atomic unit already conforming to the schema.
func (t *TableProvider) Scan(projection datasource.Projection, partitions int) (*execution.ScanResult, error) {
	if err := projection.Validate(t.schema); err != nil {
		return nil, err
	}
	outSchema := projection.Apply(t.schema)

	if partitions < 1 {
		partitions = 1
	}
	if partitions > len(t.records) {
		partitions = len(t.records)
	}
	if len(t.records) == 0 {
		partitions = 1
	}

	iterators := make([]execution.RecordIterator, partitions)
	cur := 0
	for i := 0; i < partitions; i++ {
		count := len(t.records) / partitions
		if i < len(t.records)%partitions {
			count++
		}
		var it execution.RecordIterator = &recordIterator{records: t.records[cur : cur+count]}
		if projection != nil {
			it = execution.NewProjectedIterator(it, outSchema, projection)
		}
		iterators[i] = it
		cur += count
	}

	return &execution.ScanResult{
		Schema:     outSchema,
		Partitions: iterators,
	}, nil
}
