package bx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	b := make([]byte, 16)

	PutU16(b, 0xbeef)
	assert.Equal(t, uint16(0xbeef), U16(b))

	PutU32(b, 0xdeadbeef)
	assert.Equal(t, uint32(0xdeadbeef), U32(b))

	PutU64(b, 0x0123456789abcdef)
	assert.Equal(t, uint64(0x0123456789abcdef), U64(b))

	PutI32(b, -1)
	assert.Equal(t, int32(-1), I32(b))
}

func TestAtOffsets(t *testing.T) {
	b := make([]byte, 32)

	PutU16At(b, 3, 7)
	PutU32At(b, 5, 11)
	PutU64At(b, 9, 13)
	PutI32At(b, 17, -42)

	assert.Equal(t, uint16(7), U16At(b, 3))
	assert.Equal(t, uint32(11), U32At(b, 5))
	assert.Equal(t, uint64(13), U64At(b, 9))
	assert.Equal(t, int32(-42), I32At(b, 17))

	// little-endian on disk
	assert.Equal(t, byte(7), b[3])
	assert.Equal(t, byte(0), b[4])
}
