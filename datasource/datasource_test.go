package datasource

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = arrow.NewSchema(
	[]arrow.Field{
		{Name: "a", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "b", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "c", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	},
	nil,
)

func TestProjectionValidate(t *testing.T) {
	assert.NoError(t, Projection(nil).Validate(testSchema))
	assert.NoError(t, Projection{0, 1, 2}.Validate(testSchema))
	assert.NoError(t, Projection{2, 0}.Validate(testSchema))

	err := Projection{0, 5}.Validate(testSchema)
	assert.ErrorIs(t, err, ErrInvalidProjection)

	err = Projection{-1}.Validate(testSchema)
	assert.ErrorIs(t, err, ErrInvalidProjection)

	err = Projection{1, 1}.Validate(testSchema)
	assert.ErrorIs(t, err, ErrInvalidProjection)
}

func TestProjectionApply(t *testing.T) {
	assert.True(t, Projection(nil).Apply(testSchema).Equal(testSchema))

	projected := Projection{2, 0}.Apply(testSchema)
	require.Equal(t, 2, projected.NumFields())
	assert.Equal(t, "c", projected.Field(0).Name)
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Float64, projected.Field(0).Type))
	assert.Equal(t, "a", projected.Field(1).Name)
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, projected.Field(1).Type))
}

func TestSplitByteRanges(t *testing.T) {
	assert.Nil(t, SplitByteRanges(10, 10, 4, 1))

	single := SplitByteRanges(0, 100, 1, 1)
	require.Len(t, single, 1)
	assert.Equal(t, ByteRange{Start: 0, End: 100}, single[0])

	// Zero partitions behaves like one.
	assert.Len(t, SplitByteRanges(0, 100, 0, 1), 1)

	ranges := SplitByteRanges(7, 107, 4, 1)
	require.Len(t, ranges, 4)
	assert.Equal(t, int64(7), ranges[0].Start)
	assert.Equal(t, int64(107), ranges[3].End)
	for i := 1; i < len(ranges); i++ {
		assert.Equal(t, ranges[i-1].End, ranges[i].Start)
		assert.Greater(t, ranges[i].End, ranges[i].Start)
	}

	// More partitions than minSize allows yields fewer ranges, never more.
	clamped := SplitByteRanges(0, 100, 10, 30)
	require.Len(t, clamped, 3)
	assert.Equal(t, int64(0), clamped[0].Start)
	assert.Equal(t, int64(100), clamped[2].End)
}

func TestWidenType(t *testing.T) {
	assert.Nil(t, WidenType(nil, nil))
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, WidenType(nil, arrow.PrimitiveTypes.Int64)))
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, WidenType(arrow.PrimitiveTypes.Int64, nil)))
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Float64, WidenType(arrow.PrimitiveTypes.Int64, arrow.PrimitiveTypes.Float64)))
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Float64, WidenType(arrow.PrimitiveTypes.Float64, arrow.PrimitiveTypes.Int64)))
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, WidenType(arrow.PrimitiveTypes.Int64, arrow.FixedWidthTypes.Boolean)))
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, WidenType(arrow.FixedWidthTypes.Timestamp_ns, arrow.PrimitiveTypes.Float64)))
}
