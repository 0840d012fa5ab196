// Package csv contains a table provider over comma-separated text files.
//
// Column names come from the header row; column types are inferred from a bounded
// sample of leading data rows. Scans split the file into byte-range partitions
// aligned forward to line boundaries, so quoted fields must not contain line
// terminators when scanning with more than one partition.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arrowscan/arrowscan/datasource"
	"github.com/arrowscan/arrowscan/execution"
)

type Options struct {
	// Separator is the field separator. Defaults to ','.
	Separator rune
	// BatchSize is the target row count per yielded Record. Defaults to execution.DefaultBatchSize.
	BatchSize int
	// TypeInferenceRows is how many leading data rows are sampled to infer column types.
	// Defaults to 10.
	TypeInferenceRows int
	// MinPartitionBytes is the smallest byte range a scan partition may cover.
	// Defaults to 1 MiB.
	MinPartitionBytes int64
}

func (o Options) withDefaults() Options {
	if o.Separator == 0 {
		o.Separator = ','
	}
	if o.BatchSize == 0 {
		o.BatchSize = execution.DefaultBatchSize
	}
	if o.TypeInferenceRows == 0 {
		o.TypeInferenceRows = 10
	}
	if o.MinPartitionBytes == 0 {
		o.MinPartitionBytes = 1 << 20
	}
	return o
}

type TableProvider struct {
	path      string
	opts      Options
	schema    *arrow.Schema
	dataStart int64
	size      int64
}

// NewTableProvider reads the header row and samples leading data rows of the file
// to derive the table schema.
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

	decoder := csv.NewReader(f)
	decoder.Comma = opts.Separator
	decoder.ReuseRecord = true

	row, err := decoder.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't decode csv header row: %v", datasource.ErrSchemaUnavailable, err)
	}
	fieldNames := make([]string, len(row))
	copy(fieldNames, row)

	set := make(map[string]struct{}, len(fieldNames))
	for _, name := range fieldNames {
		if _, present := set[name]; present {
			return nil, fmt.Errorf("%w: column names not unique: %s", datasource.ErrSchemaUnavailable, name)
		}
		set[name] = struct{}{}
	}
	dataStart := decoder.InputOffset()

	types := make([]arrow.DataType, len(fieldNames))
	for i := 0; i < opts.TypeInferenceRows; i++ {
		row, err = decoder.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("%w: couldn't decode csv row: %v", datasource.ErrSchemaUnavailable, err)
		}
		if len(row) != len(fieldNames) {
			return nil, fmt.Errorf("%w: row has %d columns, header has %d", datasource.ErrSchemaUnavailable, len(row), len(fieldNames))
		}

		for i := range row {
			types[i] = datasource.WidenType(types[i], classifyValue(row[i]))
		}
	}

	fields := make([]arrow.Field, len(fieldNames))
	for i := range fields {
		dt := types[i]
		if dt == nil {
			// All sampled values were null, or there were no data rows at all.
			dt = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: fieldNames[i], Type: dt, Nullable: true}
	}

	return &TableProvider{
		path:      path,
		opts:      opts,
		schema:    arrow.NewSchema(fields, nil),
		dataStart: dataStart,
		size:      stat.Size(),
	}, nil
}

// classifyValue returns the narrowest type the value parses as, or nil for an
// empty (null) value.
func classifyValue(str string) arrow.DataType {
	if str == "" {
		return nil
	}
	if _, err := strconv.ParseInt(str, 10, 64); err == nil {
		return arrow.PrimitiveTypes.Int64
	}
	if _, err := strconv.ParseFloat(str, 64); err == nil {
		return arrow.PrimitiveTypes.Float64
	}
	if _, err := strconv.ParseBool(str); err == nil {
		return arrow.FixedWidthTypes.Boolean
	}
	if _, err := time.Parse(time.RFC3339Nano, str); err == nil {
		return arrow.FixedWidthTypes.Timestamp_ns
	}
	return arrow.BinaryTypes.String
}

func (t *TableProvider) Schema() (*arrow.Schema, error) {
	return t.schema, nil
}

func (t *TableProvider) Statistics() *datasource.Statistics {
	// The row count isn't known without scanning the whole file.
	size := t.size
	return &datasource.Statistics{SizeBytes: &size}
}

func (t *TableProvider) Scan(projection datasource.Projection, partitions int) (*execution.ScanResult, error) {
	if err := projection.Validate(t.schema); err != nil {
		return nil, err
	}
	outSchema := projection.Apply(t.schema)

	ranges := datasource.SplitByteRanges(t.dataStart, t.size, partitions, t.opts.MinPartitionBytes)
	if len(ranges) == 0 {
		// No data rows. A single immediately-exhausted iterator still lets the
		// consumer observe the schema and a clean end of stream.
		ranges = []datasource.ByteRange{{Start: t.dataStart, End: t.size}}
	}

	iterators := make([]execution.RecordIterator, len(ranges))
	for i, byteRange := range ranges {
		f, err := os.Open(t.path)
		if err != nil {
			for _, it := range iterators[:i] {
				it.Close()
			}
			return nil, fmt.Errorf("%w: couldn't open file: %v", datasource.ErrSourceUnavailable, err)
		}

		var it execution.RecordIterator = &recordIterator{
			f:          f,
			schema:     t.schema,
			partition:  i,
			byteRange:  byteRange,
			atRowStart: byteRange.Start == t.dataStart,
			separator:  t.opts.Separator,
			batchSize:  t.opts.BatchSize,
		}
		if projection != nil {
			it = execution.NewProjectedIterator(it, outSchema, projection)
		}
		iterators[i] = it
	}

	return &execution.ScanResult{
		Schema:     outSchema,
		Partitions: iterators,
	}, nil
}
