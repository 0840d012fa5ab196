package parquet

import (
	"encoding/binary"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet/metadata"
)

func columnStatistics(rowGroup *metadata.RowGroupMetaData) []ColumnStatistics {
	out := make([]ColumnStatistics, rowGroup.NumColumns())
	for i := range out {
		chunk, err := rowGroup.ColumnChunk(i)
		if err != nil {
			continue
		}
		set, err := chunk.StatsSet()
		if err != nil || !set {
			continue
		}
		stats, err := chunk.Statistics()
		if err != nil || stats == nil {
			continue
		}

		if stats.HasNullCount() {
			nulls := stats.NullCount()
			out[i].NullCount = &nulls
		}
		if stats.HasMinMax() {
			out[i].Min = stats.EncodeMin()
			out[i].Max = stats.EncodeMax()
		}
	}
	return out
}

// DecodeStatistic decodes a plain-encoded min/max bound for a column of the given
// arrow type. The second return value is false when the type isn't supported or
// the raw bound is malformed.
func DecodeStatistic(dt arrow.DataType, raw []byte) (interface{}, bool) {
	if raw == nil {
		return nil, false
	}
	switch dt.ID() {
	case arrow.INT32:
		if len(raw) != 4 {
			return nil, false
		}
		return int32(binary.LittleEndian.Uint32(raw)), true
	case arrow.INT64:
		if len(raw) != 8 {
			return nil, false
		}
		return int64(binary.LittleEndian.Uint64(raw)), true
	case arrow.FLOAT32:
		if len(raw) != 4 {
			return nil, false
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(raw)), true
	case arrow.FLOAT64:
		if len(raw) != 8 {
			return nil, false
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(raw)), true
	case arrow.BOOL:
		if len(raw) != 1 {
			return nil, false
		}
		return raw[0] != 0, true
	case arrow.STRING, arrow.BINARY:
		return string(raw), true
	default:
		return nil, false
	}
}
