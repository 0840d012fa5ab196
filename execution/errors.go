package execution

import (
	"fmt"
	"strings"
)

// DecodeError is a terminal mid-stream error: malformed data was encountered while
// producing a Record. It fails only the partition it occurred in; sibling partitions
// of the same scan are unaffected.
type DecodeError struct {
	// Partition is the index of the failed partition within its scan.
	Partition int
	// Row is the partition-local index of the offending row, or -1 when unknown.
	Row int64
	// Offset is the byte offset of the offending row within the source, or -1 when unknown.
	Offset int64

	Err error
}

func (e *DecodeError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "decode error in partition %d", e.Partition)
	if e.Row >= 0 {
		fmt.Fprintf(&sb, ", row %d", e.Row)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&sb, ", offset %d", e.Offset)
	}
	fmt.Fprintf(&sb, ": %s", e.Err)
	return sb.String()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
