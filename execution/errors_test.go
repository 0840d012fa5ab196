package execution

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeError(t *testing.T) {
	cause := errors.New("bad value")

	err := &DecodeError{Partition: 2, Row: 17, Offset: 1024, Err: cause}
	assert.Equal(t, "decode error in partition 2, row 17, offset 1024: bad value", err.Error())
	assert.ErrorIs(t, err, cause)

	unknown := &DecodeError{Partition: 0, Row: -1, Offset: -1, Err: cause}
	assert.Equal(t, "decode error in partition 0: bad value", unknown.Error())
}
