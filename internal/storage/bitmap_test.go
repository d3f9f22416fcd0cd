package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitmapSetClear(t *testing.T) {
	raw := make([]byte, 4)
	bm := NewBitmap(raw, 32)

	assert.False(t, bm.IsSet(0))
	bm.Set(0)
	bm.Set(9)
	bm.Set(31)
	assert.True(t, bm.IsSet(0))
	assert.True(t, bm.IsSet(9))
	assert.True(t, bm.IsSet(31))

	// bit i lives in byte i/8 at position i%8
	assert.Equal(t, byte(0x01), raw[0])
	assert.Equal(t, byte(0x02), raw[1])
	assert.Equal(t, byte(0x80), raw[3])

	bm.Clear(9)
	assert.False(t, bm.IsSet(9))
	assert.Equal(t, byte(0x00), raw[1])
}

func TestBitmapOutOfRangeIsNoop(t *testing.T) {
	raw := make([]byte, 2)
	bm := NewBitmap(raw, 10)

	bm.Set(10)
	bm.Set(1000)
	bm.Clear(-1)
	assert.False(t, bm.IsSet(10))
	assert.False(t, bm.IsSet(-1))
	assert.Equal(t, []byte{0, 0}, raw)
}

func TestBitmapSizeClampedToBuffer(t *testing.T) {
	raw := make([]byte, 1)
	bm := NewBitmap(raw, 64)
	assert.Equal(t, 8, bm.Size())
}

func TestBitmapFirstClear(t *testing.T) {
	raw := make([]byte, 2)
	bm := NewBitmap(raw, 16)

	assert.Equal(t, 0, bm.FirstClear())
	for i := 0; i < 5; i++ {
		bm.Set(i)
	}
	assert.Equal(t, 5, bm.FirstClear())

	for i := 0; i < 16; i++ {
		bm.Set(i)
	}
	assert.Equal(t, -1, bm.FirstClear())

	bm.Clear(7)
	assert.Equal(t, 7, bm.FirstClear())
}
