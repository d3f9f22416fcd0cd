package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDataPage(t *testing.T) *SlottedPage {
	t.Helper()
	p, err := NewSlottedPage(make([]byte, PageSize))
	require.NoError(t, err)
	p.Init()

	assert.Equal(t, PageTypeData, p.PageType())
	assert.Equal(t, InvalidPageID, p.NextPage())
	assert.Equal(t, InvalidPageID, p.PrevPage())
	assert.Equal(t, 0, p.NumSlots())
	assert.Equal(t, 0, p.TupleCount())
	assert.Equal(t, PageSize-slottedHeaderSize, p.FreeSpace())
	return p
}

func TestSlottedInsertGet(t *testing.T) {
	p := newDataPage(t)

	s0 := p.InsertTuple([]byte("Tuple 1"))
	s1 := p.InsertTuple([]byte("Tuple 2"))
	s2 := p.InsertTuple([]byte("Tuple 3"))
	assert.Equal(t, 0, s0)
	assert.Equal(t, 1, s1)
	assert.Equal(t, 2, s2)

	assert.Equal(t, 3, p.NumSlots())
	assert.Equal(t, 3, p.TupleCount())
	assert.Equal(t, []byte("Tuple 2"), p.GetTuple(1))

	assert.Nil(t, p.GetTuple(-1))
	assert.Nil(t, p.GetTuple(3))
}

func TestSlottedDeleteAndReuse(t *testing.T) {
	p := newDataPage(t)

	p.InsertTuple([]byte("Tuple 1"))
	p.InsertTuple([]byte("Tuple 2"))
	p.InsertTuple([]byte("Tuple 3"))

	require.True(t, p.DeleteTuple(1))
	assert.Nil(t, p.GetTuple(1))
	assert.Equal(t, 3, p.NumSlots())
	assert.Equal(t, 2, p.TupleCount())

	// tombstone cannot be deleted twice
	assert.False(t, p.DeleteTuple(1))

	// new insert reuses the tombstoned directory entry
	slot := p.InsertTuple([]byte("Tuple 4"))
	assert.Equal(t, 1, slot)
	assert.Equal(t, 3, p.NumSlots())
	assert.Equal(t, 3, p.TupleCount())
	assert.Equal(t, []byte("Tuple 4"), p.GetTuple(1))
}

func TestSlottedFull(t *testing.T) {
	p := newDataPage(t)

	big := make([]byte, PageSize-slottedHeaderSize-slotSize)
	for i := range big {
		big[i] = 'x'
	}
	require.Equal(t, 0, p.InsertTuple(big))
	assert.Equal(t, 0, p.FreeSpace())
	assert.Equal(t, -1, p.InsertTuple([]byte("y")))
}

func TestSlottedCountsInvariant(t *testing.T) {
	p := newDataPage(t)

	// interleave inserts and deletes, then recheck the header counters
	// against a directory scan
	for i := 0; i < 20; i++ {
		require.NotEqual(t, -1, p.InsertTuple([]byte{byte('a' + i)}))
	}
	for _, slot := range []int{0, 3, 7, 19} {
		require.True(t, p.DeleteTuple(slot))
	}
	p.InsertTuple([]byte("reused"))
	p.InsertTuple([]byte("reused2"))

	live := 0
	for i := 0; i < p.NumSlots(); i++ {
		if p.GetTuple(i) != nil {
			live++
		}
	}
	assert.Equal(t, live, p.TupleCount())
	assert.Equal(t, 20, p.NumSlots())
	assert.GreaterOrEqual(t, p.FreeSpace(), 0)
}

func TestSlottedPageLinks(t *testing.T) {
	p := newDataPage(t)
	p.SetNextPage(42)
	p.SetPrevPage(7)
	assert.Equal(t, int32(42), p.NextPage())
	assert.Equal(t, int32(7), p.PrevPage())
}
