package execution

import (
	"context"
	"errors"

	"github.com/apache/arrow-go/v18/arrow"
)

// All sources try to create batches of approximately this many rows. Different sizes are allowed,
// and the final batch of a partition is usually smaller.
const DefaultBatchSize = 1000

var ErrEndOfStream = errors.New("end of stream")

// Record is a columnar batch of rows sharing one schema. It's the unit of data flow
// between a source and its consumer.
type Record struct {
	arrow.Record
}

// RecordIterator produces a lazy, finite, non-restartable sequence of Records.
//
// Next returns exactly one Record conforming to the iterator's schema, or ErrEndOfStream
// once the sequence is exhausted (repeated calls keep returning ErrEndOfStream), or a
// terminal error. Yielded Records always have at least one row. Next may block on I/O;
// callers wanting parallelism run each iterator on its own goroutine. An iterator is
// meant to be driven by a single consumer.
//
// Close releases the iterator's resources and may be called in any state, also before
// the sequence is exhausted.
type RecordIterator interface {
	Next(ctx context.Context) (Record, error)
	Close() error
}

// ScanResult is the handle returned by a single scan call. It holds the resolved
// output schema and one RecordIterator per partition. It's consumed exactly once
// and holds no state shared with other scans.
type ScanResult struct {
	Schema     *arrow.Schema
	Partitions []RecordIterator
}

// Close closes all partition iterators, returning the first error encountered.
func (s *ScanResult) Close() error {
	var firstErr error
	for _, it := range s.Partitions {
		if err := it.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReadAll drains the iterator until end of stream and returns the yielded Records.
// The iterator is closed afterwards.
func ReadAll(ctx context.Context, it RecordIterator) ([]Record, error) {
	defer it.Close()

	var out []Record
	for {
		record, err := it.Next(ctx)
		if err == ErrEndOfStream {
			return out, nil
		} else if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
}
