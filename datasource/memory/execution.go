package memory

import (
	"context"

	"github.com/arrowscan/arrowscan/execution"
)

type recordIterator struct {
	records []execution.Record
	cursor  int
}

func (it *recordIterator) Next(ctx context.Context) (execution.Record, error) {
	if err := ctx.Err(); err != nil {
		return execution.Record{}, err
	}
	if it.cursor >= len(it.records) {
		return execution.Record{}, execution.ErrEndOfStream
	}

	record := it.records[it.cursor]
	it.cursor++
	record.Retain()
	return record, nil
}

func (it *recordIterator) Close() error {
	return nil
}
