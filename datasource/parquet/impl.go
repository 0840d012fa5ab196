// Package parquet contains a table provider over Parquet files.
//
// Schema and statistics come from the file footer without reading any row data.
// Scans are partitioned by row-group, since row-groups are independently decodable,
// and the projection is pushed into the decode path so unselected columns are never
// decompressed.
package parquet

import (
	"fmt"
	"os"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/arrowscan/arrowscan/datasource"
	"github.com/arrowscan/arrowscan/execution"
)

type Options struct {
	// BatchSize is the target row count per yielded Record. Defaults to execution.DefaultBatchSize.
	BatchSize int
}

func (o Options) withDefaults() Options {
	if o.BatchSize == 0 {
		o.BatchSize = execution.DefaultBatchSize
	}
	return o
}

type TableProvider struct {
	path      string
	opts      Options
	schema    *arrow.Schema
	size      int64
	rows      int64
	rowGroups []RowGroupStatistics
}

// RowGroupStatistics describe one row-group, straight from the file footer.
// Callers can use them to prune partitions before scanning.
type RowGroupStatistics struct {
	Rows      int64
	SizeBytes int64
	Columns   []ColumnStatistics
}

// ColumnStatistics are per column-chunk hints. Min and Max hold the plain-encoded
// bounds recorded by the writer; see DecodeStatistic. Nil fields are unknown.
type ColumnStatistics struct {
	NullCount *int64
	Min       []byte
	Max       []byte
}

// NewTableProvider reads the file footer to derive the schema and statistics.
// No row data is read.
func NewTableProvider(path string, opts Options) (*TableProvider, error) {
	opts = opts.withDefaults()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't open file: %v", datasource.ErrSchemaUnavailable, err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't stat file: %v", datasource.ErrSchemaUnavailable, err)
	}

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't open parquet file: %v", datasource.ErrSchemaUnavailable, err)
	}
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't create arrow reader: %v", datasource.ErrSchemaUnavailable, err)
	}
	schema, err := reader.Schema()
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't read parquet schema: %v", datasource.ErrSchemaUnavailable, err)
	}

	metadata := pf.MetaData()
	rowGroups := make([]RowGroupStatistics, pf.NumRowGroups())
	var rows int64
	for i := range rowGroups {
		rowGroup := metadata.RowGroup(i)
		rowGroups[i] = RowGroupStatistics{
			Rows:      rowGroup.NumRows(),
			SizeBytes: rowGroup.TotalByteSize(),
			Columns:   columnStatistics(rowGroup),
		}
		rows += rowGroups[i].Rows
	}

	return &TableProvider{
		path:      path,
		opts:      opts,
		schema:    schema,
		size:      stat.Size(),
		rows:      rows,
		rowGroups: rowGroups,
	}, nil
}

func (t *TableProvider) Schema() (*arrow.Schema, error) {
	return t.schema, nil
}

func (t *TableProvider) Statistics() *datasource.Statistics {
	rows := t.rows
	size := t.size
	return &datasource.Statistics{RowCount: &rows, SizeBytes: &size}
}

// RowGroupStatistics returns per-row-group footer statistics in row-group order.
func (t *TableProvider) RowGroupStatistics() []RowGroupStatistics {
	return t.rowGroups
}

func (t *TableProvider) Scan(projection datasource.Projection, partitions int) (*execution.ScanResult, error) {
	if err := projection.Validate(t.schema); err != nil {
		return nil, err
	}
	outSchema := projection.Apply(t.schema)

	groups := t.splitRowGroups(partitions)

	// The projection is pushed down as a sorted column set; when the requested
	// order differs, a projection wrapper restores it afterwards.
	var columns []int
	var reorder []int
	if projection != nil {
		columns = make([]int, len(projection))
		copy(columns, projection)
		sort.Ints(columns)
		for i, index := range projection {
			if index != columns[i] {
				reorder = make([]int, len(projection))
				for j, want := range projection {
					reorder[j] = sort.SearchInts(columns, want)
				}
				break
			}
		}
	}

	iterators := make([]execution.RecordIterator, len(groups))
	for i, rowGroups := range groups {
		f, err := os.Open(t.path)
		if err != nil {
			for _, it := range iterators[:i] {
				it.Close()
			}
			return nil, fmt.Errorf("%w: couldn't open file: %v", datasource.ErrSourceUnavailable, err)
		}

		var it execution.RecordIterator = &recordIterator{
			f:         f,
			partition: i,
			rowGroups: rowGroups,
			columns:   columns,
			batchSize: int64(t.opts.BatchSize),
		}
		if reorder != nil {
			it = execution.NewProjectedIterator(it, outSchema, reorder)
		}
		iterators[i] = it
	}

	return &execution.ScanResult{
		Schema:     outSchema,
		Partitions: iterators,
	}, nil
}

// splitRowGroups groups row-group indices into at most partitions contiguous,
// roughly row-balanced groups. A row-group is never split, so the natural
// partition count of a file is its row-group count.
func (t *TableProvider) splitRowGroups(partitions int) [][]int {
	if partitions < 1 {
		partitions = 1
	}
	if partitions > len(t.rowGroups) {
		partitions = len(t.rowGroups)
	}
	if len(t.rowGroups) == 0 {
		return [][]int{nil}
	}

	groups := make([][]int, 0, partitions)
	target := t.rows / int64(partitions)
	var groupRows int64
	var group []int
	for i := range t.rowGroups {
		group = append(group, i)
		groupRows += t.rowGroups[i].Rows

		remainingGroups := partitions - len(groups) - 1
		remainingRowGroups := len(t.rowGroups) - i - 1
		if (groupRows >= target && remainingGroups > 0 && remainingRowGroups >= remainingGroups) || remainingRowGroups == remainingGroups {
			groups = append(groups, group)
			group = nil
			groupRows = 0
		}
	}
	if len(group) > 0 {
		groups = append(groups, group)
	}
	return groups
}
