package parquet

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/arrowscan/arrowscan/execution"
)

type recordIterator struct {
	f         *os.File
	partition int
	rowGroups []int
	columns   []int
	batchSize int64

	pf      *file.Reader
	records pqarrow.RecordReader
	started bool
	done    bool
	err     error
	closed  bool
}

func (it *recordIterator) Next(ctx context.Context) (execution.Record, error) {
	if it.err != nil {
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
		if err := it.initialize(ctx); err != nil {
			it.err = &execution.DecodeError{Partition: it.partition, Row: -1, Offset: -1, Err: err}
			return execution.Record{}, it.err
		}
		if it.done {
			return execution.Record{}, execution.ErrEndOfStream
		}
	}

	for {
		record, err := it.records.Read()
		if err == io.EOF {
			it.done = true
			return execution.Record{}, execution.ErrEndOfStream
		} else if err != nil {
			it.err = &execution.DecodeError{Partition: it.partition, Row: -1, Offset: -1, Err: err}
			return execution.Record{}, it.err
		}
		if record.NumRows() == 0 {
			continue
		}
		record.Retain()
		return execution.Record{Record: record}, nil
	}
}

func (it *recordIterator) initialize(ctx context.Context) error {
	it.started = true
	if len(it.rowGroups) == 0 {
		it.done = true
		return nil
	}

	// Each partition re-reads the footer through its own handle; row-groups are
	// independently decodable, so partitions share nothing beyond the path.
	pf, err := file.NewParquetReader(it.f)
	if err != nil {
		return fmt.Errorf("couldn't open parquet file: %w", err)
	}
	it.pf = pf

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: it.batchSize}, memory.NewGoAllocator())
	if err != nil {
		return fmt.Errorf("couldn't create arrow reader: %w", err)
	}
	records, err := reader.GetRecordReader(ctx, it.columns, it.rowGroups)
	if err != nil {
		return fmt.Errorf("couldn't create record reader: %w", err)
	}
	it.records = records

	return nil
}

func (it *recordIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true

	if it.records != nil {
		it.records.Release()
	}
	if it.pf != nil {
		// Closes the underlying file as well.
		return it.pf.Close()
	}
	if err := it.f.Close(); err != nil {
		return fmt.Errorf("couldn't close underlying file: %w", err)
	}
	return nil
}
