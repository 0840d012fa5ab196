package datasource

// ByteRange is a half-open [Start, End) slice of a file.
type ByteRange struct {
	Start int64
	End   int64
}

// SplitByteRanges splits [start, end) into at most parts contiguous, disjoint ranges
// of roughly equal size. Ranges are never smaller than minSize, so a small source
// yields fewer ranges than requested. Returns nil when the input range is empty.
//
// Range boundaries are candidate offsets only: line-oriented sources still have to
// align them forward to the next row boundary.
func SplitByteRanges(start, end int64, parts int, minSize int64) []ByteRange {
	total := end - start
	if total <= 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if minSize < 1 {
		minSize = 1
	}
	if maxParts := total / minSize; maxParts < int64(parts) {
		parts = int(maxParts)
		if parts < 1 {
			parts = 1
		}
	}

	ranges := make([]ByteRange, parts)
	step := total / int64(parts)
	cur := start
	for i := 0; i < parts; i++ {
		next := cur + step
		if i == parts-1 {
			next = end
		}
		ranges[i] = ByteRange{Start: cur, End: next}
		cur = next
	}
	return ranges
}
