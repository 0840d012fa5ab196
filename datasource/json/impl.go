// Package json contains a table provider over newline-delimited JSON files.
//
// The schema is inferred from a bounded sample of leading lines: fields appear in
// first-seen order, numbers are int64 unless a fractional value shows up, and any
// cross-kind conflict widens to string (which keeps the raw JSON text). Scans split
// the file into byte-range partitions aligned to line boundaries, like the csv source.
package json

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/valyala/fastjson"

	"github.com/arrowscan/arrowscan/datasource"
	"github.com/arrowscan/arrowscan/execution"
)

type Options struct {
	// BatchSize is the target row count per yielded Record. Defaults to execution.DefaultBatchSize.
	BatchSize int
	// TypeInferenceRows is how many leading lines are sampled to infer the schema.
	// Defaults to 10.
	TypeInferenceRows int
	// MinPartitionBytes is the smallest byte range a scan partition may cover.
	// Defaults to 1 MiB.
	MinPartitionBytes int64
}

func (o Options) withDefaults() Options {
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
	path   string
	opts   Options
	schema *arrow.Schema
	size   int64
}

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

	var fieldNames []string
	fieldIndices := map[string]int{}
	var types []arrow.DataType

	sc := bufio.NewScanner(f)
	sc.Buffer(nil, 1024*1024*8)
	var p fastjson.Parser
	for i := 0; i < opts.TypeInferenceRows && sc.Scan(); {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		i++

		value, err := p.ParseBytes(line)
		if err != nil {
			return nil, fmt.Errorf("%w: couldn't parse json line: %v", datasource.ErrSchemaUnavailable, err)
		}
		obj, err := value.Object()
		if err != nil {
			return nil, fmt.Errorf("%w: line is not a json object: %v", datasource.ErrSchemaUnavailable, err)
		}

		obj.Visit(func(key []byte, v *fastjson.Value) {
			name := string(key)
			index, ok := fieldIndices[name]
			if !ok {
				index = len(fieldNames)
				fieldIndices[name] = index
				fieldNames = append(fieldNames, name)
				types = append(types, nil)
			}
			types[index] = datasource.WidenType(types[index], classifyValue(v))
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: couldn't read line: %v", datasource.ErrSchemaUnavailable, err)
	}
	if len(fieldNames) == 0 {
		return nil, fmt.Errorf("%w: no fields found in leading lines", datasource.ErrSchemaUnavailable)
	}

	fields := make([]arrow.Field, len(fieldNames))
	for i := range fields {
		dt := types[i]
		if dt == nil {
			dt = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: fieldNames[i], Type: dt, Nullable: true}
	}

	return &TableProvider{
		path:   path,
		opts:   opts,
		schema: arrow.NewSchema(fields, nil),
		size:   stat.Size(),
	}, nil
}

func classifyValue(v *fastjson.Value) arrow.DataType {
	switch v.Type() {
	case fastjson.TypeNull:
		return nil
	case fastjson.TypeNumber:
		if _, err := v.Int64(); err == nil {
			return arrow.PrimitiveTypes.Int64
		}
		return arrow.PrimitiveTypes.Float64
	case fastjson.TypeTrue, fastjson.TypeFalse:
		return arrow.FixedWidthTypes.Boolean
	default:
		return arrow.BinaryTypes.String
	}
}

func (t *TableProvider) Schema() (*arrow.Schema, error) {
	return t.schema, nil
}

func (t *TableProvider) Statistics() *datasource.Statistics {
	size := t.size
	return &datasource.Statistics{SizeBytes: &size}
}

func (t *TableProvider) Scan(projection datasource.Projection, partitions int) (*execution.ScanResult, error) {
	if err := projection.Validate(t.schema); err != nil {
		return nil, err
	}
	outSchema := projection.Apply(t.schema)

	ranges := datasource.SplitByteRanges(0, t.size, partitions, t.opts.MinPartitionBytes)
	if len(ranges) == 0 {
		ranges = []datasource.ByteRange{{Start: 0, End: t.size}}
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
			f:         f,
			schema:    t.schema,
			partition: i,
			byteRange: byteRange,
			batchSize: t.opts.BatchSize,
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
