package datasource

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// WidenType merges the column type inferred so far with the type of a newly
// sampled value. A nil type stands for null and fits anything, int64 widens to
// float64, and any other conflict widens to string, which every value decodes to.
func WidenType(cur, next arrow.DataType) arrow.DataType {
	if cur == nil {
		return next
	}
	if next == nil || arrow.TypeEqual(cur, next) {
		return cur
	}
	if cur.ID() == arrow.INT64 && next.ID() == arrow.FLOAT64 {
		return arrow.PrimitiveTypes.Float64
	}
	if cur.ID() == arrow.FLOAT64 && next.ID() == arrow.INT64 {
		return cur
	}
	return arrow.BinaryTypes.String
}
