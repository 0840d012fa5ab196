// Package datasource contains the table provider contract tying storage formats
// to the execution layer, and its shared building blocks. Each format lives in
// its own subpackage and implements the same two small contracts: TableProvider
// here and execution.RecordIterator.
package datasource

import (
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arrowscan/arrowscan/execution"
)

var (
	// ErrSchemaUnavailable means the schema of the underlying source couldn't be
	// determined: missing file, unreadable header, corrupt footer.
	ErrSchemaUnavailable = errors.New("schema unavailable")
	// ErrInvalidProjection means the projection references nonexistent or duplicate columns.
	ErrInvalidProjection = errors.New("invalid projection")
	// ErrSourceUnavailable means the backing storage couldn't be opened for a scan.
	ErrSourceUnavailable = errors.New("source unavailable")
)

// TableProvider is a logical table backed by some storage format. It's created once
// per table, is immutable afterwards, and is safe to use from multiple concurrent scans.
type TableProvider interface {
	// Schema returns the full, unprojected schema without scanning any row data.
	Schema() (*arrow.Schema, error)
	// Statistics returns best-effort row-count and size hints. A nil result is not
	// an error; callers must tolerate it.
	Statistics() *Statistics
	// Scan partitions the source into up to partitions roughly-equal, disjoint units
	// and returns one iterator per partition. Requesting more partitions than natural
	// splits exist yields fewer iterators, never more; requesting 0 or 1 yields a
	// single iterator. Scan may open file handles, which are owned by the returned
	// iterators and released when each is exhausted or closed.
	Scan(projection Projection, partitions int) (*execution.ScanResult, error)
}

// Statistics are best-effort hints about a table. Nil fields are unknown.
type Statistics struct {
	RowCount  *int64
	SizeBytes *int64
}

// Projection is an ordered set of column indices into a table's full schema.
// A nil Projection selects all columns in schema order.
type Projection []int

// Validate checks the projection against the given schema.
func (p Projection) Validate(schema *arrow.Schema) error {
	seen := make(map[int]struct{}, len(p))
	for _, index := range p {
		if index < 0 || index >= schema.NumFields() {
			return fmt.Errorf("%w: column index %d out of range, schema has %d columns", ErrInvalidProjection, index, schema.NumFields())
		}
		if _, ok := seen[index]; ok {
			return fmt.Errorf("%w: duplicate column index %d", ErrInvalidProjection, index)
		}
		seen[index] = struct{}{}
	}
	return nil
}

// Apply returns the schema with the projection applied, in projection order.
func (p Projection) Apply(schema *arrow.Schema) *arrow.Schema {
	if p == nil {
		return schema
	}
	fields := make([]arrow.Field, len(p))
	for i, index := range p {
		fields[i] = schema.Field(index)
	}
	return arrow.NewSchema(fields, nil)
}
