package json

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/valyala/fastjson"

	"github.com/arrowscan/arrowscan/datasource"
	"github.com/arrowscan/arrowscan/execution"
)

type recordIterator struct {
	f         *os.File
	schema    *arrow.Schema
	partition int
	byteRange datasource.ByteRange
	batchSize int

	br      *bufio.Reader
	parser  fastjson.Parser
	pos     int64
	row     int64
	started bool
	done    bool
	err     error
	pending error
	closed  bool
}

func (it *recordIterator) Next(ctx context.Context) (execution.Record, error) {
	if it.err != nil {
		return execution.Record{}, it.err
	}
	if it.pending != nil {
		it.err = it.pending
		it.pending = nil
		return execution.Record{}, it.err
	}
	if it.done {
		return execution.Record{}, execution.ErrEndOfStream
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		return execution.Record{}, err
	}
	if !it.started {
		if err := it.initialize(); err != nil {
			it.err = err
			return execution.Record{}, err
		}
	}

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), it.schema)
	defer builder.Release()

	count := 0
	for count < it.batchSize && !it.done {
		lineStart := it.pos
		line, err := it.readLine()
		if err != nil {
			it.stash(fmt.Errorf("couldn't read line: %w", err), count)
			break
		}
		if line == nil {
			break
		}

		values, err := it.decodeLine(line)
		if err != nil {
			it.stash(&execution.DecodeError{
				Partition: it.partition,
				Row:       it.row + int64(count),
				Offset:    lineStart,
				Err:       err,
			}, count)
			break
		}
		appendRow(builder, values)
		count++
	}

	if count == 0 {
		if it.err != nil {
			return execution.Record{}, it.err
		}
		return execution.Record{}, execution.ErrEndOfStream
	}

	it.row += int64(count)
	return execution.Record{Record: builder.NewRecord()}, nil
}

func (it *recordIterator) stash(err error, accumulated int) {
	if accumulated > 0 {
		it.pending = err
	} else {
		it.err = err
	}
}

// readLine returns the next non-blank line whose first byte lies within the
// partition's byte range, or nil once the partition is exhausted.
func (it *recordIterator) readLine() ([]byte, error) {
	for !it.done {
		if it.pos >= it.byteRange.End {
			it.done = true
			return nil, nil
		}

		line, err := it.br.ReadBytes('\n')
		if err == io.EOF {
			it.done = true
			if len(line) == 0 {
				return nil, nil
			}
		} else if err != nil {
			return nil, err
		}
		it.pos += int64(len(line))

		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			return line, nil
		}
	}
	return nil, nil
}

func (it *recordIterator) initialize() error {
	it.started = true

	offset := it.byteRange.Start
	if offset > 0 {
		// The byte before the candidate offset tells us whether the offset itself
		// starts a line; if it does, the line belongs to this partition.
		offset--
	}
	if _, err := it.f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("couldn't seek to partition start: %w", err)
	}

	it.br = bufio.NewReaderSize(it.f, 4096*1024)
	it.pos = offset
	if offset != it.byteRange.Start {
		skipped, err := it.br.ReadBytes('\n')
		if err == io.EOF {
			it.done = true
			return nil
		} else if err != nil {
			return fmt.Errorf("couldn't align partition to line boundary: %w", err)
		}
		it.pos += int64(len(skipped))
	}

	return nil
}

func (it *recordIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	if err := it.f.Close(); err != nil {
		return fmt.Errorf("couldn't close underlying file: %w", err)
	}
	return nil
}

// decodeLine parses all field values of a line before anything is appended to a
// builder, so a malformed value can never leave a partially appended row behind.
// Nil entries are nulls; a field that is absent from the line is null as well.
func (it *recordIterator) decodeLine(line []byte) ([]interface{}, error) {
	value, err := it.parser.ParseBytes(line)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse json: %w", err)
	}
	obj, err := value.Object()
	if err != nil {
		return nil, fmt.Errorf("line is not a json object: %w", err)
	}

	values := make([]interface{}, it.schema.NumFields())
	for i := 0; i < it.schema.NumFields(); i++ {
		field := it.schema.Field(i)
		values[i], err = decodeValue(field.Type, obj.Get(field.Name))
		if err != nil {
			return nil, fmt.Errorf("couldn't decode field %s: %w", field.Name, err)
		}
	}
	return values, nil
}

func decodeValue(dt arrow.DataType, v *fastjson.Value) (interface{}, error) {
	if v == nil || v.Type() == fastjson.TypeNull {
		return nil, nil
	}

	switch dt.ID() {
	case arrow.INT64:
		integer, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("couldn't read int64: %w", err)
		}
		return integer, nil
	case arrow.FLOAT64:
		float, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("couldn't read float64: %w", err)
		}
		return float, nil
	case arrow.BOOL:
		b, err := v.Bool()
		if err != nil {
			return nil, fmt.Errorf("couldn't read boolean: %w", err)
		}
		return b, nil
	case arrow.STRING:
		if v.Type() == fastjson.TypeString {
			str, err := v.StringBytes()
			if err != nil {
				return nil, fmt.Errorf("couldn't read string: %w", err)
			}
			return string(str), nil
		}
		// A column widened to string keeps the raw text of non-string values.
		return v.String(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %v", dt)
	}
}

func appendRow(builder *array.RecordBuilder, values []interface{}) {
	for i, value := range values {
		field := builder.Field(i)
		if value == nil {
			field.AppendNull()
			continue
		}
		switch value := value.(type) {
		case int64:
			field.(*array.Int64Builder).Append(value)
		case float64:
			field.(*array.Float64Builder).Append(value)
		case bool:
			field.(*array.BooleanBuilder).Append(value)
		case string:
			field.(*array.StringBuilder).Append(value)
		}
	}
}
