package csv

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arrowscan/arrowscan/datasource"
	"github.com/arrowscan/arrowscan/execution"
)

type recordIterator struct {
	f          *os.File
	schema     *arrow.Schema
	partition  int
	byteRange  datasource.ByteRange
	atRowStart bool
	separator  rune
	batchSize  int

	decoder *csv.Reader
	base    int64
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
	for count < it.batchSize {
		rowStart := it.base + it.decoder.InputOffset()
		if rowStart >= it.byteRange.End {
			it.done = true
			break
		}

		row, err := it.decoder.Read()
		if err == io.EOF {
			it.done = true
			break
		} else if err != nil {
			it.stash(&execution.DecodeError{
				Partition: it.partition,
				Row:       it.row + int64(count),
				Offset:    rowStart,
				Err:       err,
			}, count)
			break
		}

		values, err := decodeRow(it.schema, row)
		if err != nil {
			it.stash(&execution.DecodeError{
				Partition: it.partition,
				Row:       it.row + int64(count),
				Offset:    rowStart,
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

// stash records a terminal decode error. When rows have already been accumulated
// into the current batch, the error is held back until the next call so the
// conforming prefix is still yielded; otherwise it takes effect immediately.
func (it *recordIterator) stash(err error, accumulated int) {
	if accumulated > 0 {
		it.pending = err
	} else {
		it.err = err
	}
}

func (it *recordIterator) initialize() error {
	it.started = true

	offset := it.byteRange.Start
	if !it.atRowStart {
		// Looking at the byte before the candidate offset tells us whether the
		// offset itself is a row start; if it is, the row belongs to this partition.
		offset--
	}
	if _, err := it.f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("couldn't seek to partition start: %w", err)
	}

	br := bufio.NewReaderSize(it.f, 4096*1024)
	it.base = offset
	if !it.atRowStart {
		skipped, err := br.ReadBytes('\n')
		if err == io.EOF {
			it.done = true
			return nil
		} else if err != nil {
			return fmt.Errorf("couldn't align partition to row boundary: %w", err)
		}
		it.base += int64(len(skipped))
	}

	decoder := csv.NewReader(br)
	decoder.Comma = it.separator
	decoder.FieldsPerRecord = it.schema.NumFields()
	decoder.ReuseRecord = true
	it.decoder = decoder

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

// decodeRow parses all values of a row before anything is appended to a builder,
// so a malformed value can never leave a partially appended row behind.
// Nil entries are nulls.
func decodeRow(schema *arrow.Schema, row []string) ([]interface{}, error) {
	values := make([]interface{}, len(row))
	for i, str := range row {
		value, err := decodeValue(schema.Field(i).Type, str)
		if err != nil {
			return nil, fmt.Errorf("couldn't decode column %s: %w", schema.Field(i).Name, err)
		}
		values[i] = value
	}
	return values, nil
}

func decodeValue(dt arrow.DataType, str string) (interface{}, error) {
	if str == "" && dt.ID() != arrow.STRING {
		return nil, nil
	}

	switch dt.ID() {
	case arrow.INT64:
		integer, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse %q as int64: %w", str, err)
		}
		return integer, nil
	case arrow.FLOAT64:
		float, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse %q as float64: %w", str, err)
		}
		return float, nil
	case arrow.BOOL:
		b, err := strconv.ParseBool(str)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse %q as boolean: %w", str, err)
		}
		return b, nil
	case arrow.TIMESTAMP:
		t, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse %q as timestamp: %w", str, err)
		}
		return arrow.Timestamp(t.UTC().UnixNano()), nil
	case arrow.STRING:
		return str, nil
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
		case arrow.Timestamp:
			field.(*array.TimestampBuilder).Append(value)
		case string:
			field.(*array.StringBuilder).Append(value)
		}
	}
}
