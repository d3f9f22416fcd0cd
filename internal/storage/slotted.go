package storage

import (
	"errors"

	"github.com/lettydb/lettydb/internal/alias/bx"
)

// Slotted page header offsets.
const (
	offPageType  = 0  // u8
	offLsn       = 1  // u64
	offNextPage  = 9  // i32
	offPrevPage  = 13 // i32
	offNumSlots  = 17 // u16
	offFreeSpace = 19 // u16
	offTupleCnt  = 21 // u16

	slottedHeaderSize = 23
	slotSize          = 4 // offset u16 + length u16
)

var ErrNoSpace = errors.New("storage: not enough free space in page")

// Slot is one slot-directory entry. Length 0 marks a tombstone whose
// directory entry may be reused.
type Slot struct {
	Offset uint16
	Length uint16
}

// +------------------------+ 0
// | header                 |
// | slot directory (grows) |
// +------------------------+
// |      free space        |
// +------------------------+ <-- free_space_pointer
// | tuple data (grows up)  |
// +------------------------+ PageSize
//
// num_slots counts every directory entry ever created, tombstones included;
// tuple_count counts live tuples only. Deleted payload bytes are not
// reclaimed.
type SlottedPage struct {
	Buf []byte
}

func NewSlottedPage(buf []byte) (*SlottedPage, error) {
	if len(buf) != PageSize {
		return nil, ErrWrongBufferSize
	}
	return &SlottedPage{Buf: buf}, nil
}

// Init formats buf as an empty data page.
func (p *SlottedPage) Init() {
	for i := range p.Buf {
		p.Buf[i] = 0
	}
	p.Buf[offPageType] = byte(PageTypeData)
	bx.PutU64At(p.Buf, offLsn, 0)
	bx.PutI32At(p.Buf, offNextPage, InvalidPageID)
	bx.PutI32At(p.Buf, offPrevPage, InvalidPageID)
	bx.PutU16At(p.Buf, offNumSlots, 0)
	bx.PutU16At(p.Buf, offFreeSpace, PageSize)
	bx.PutU16At(p.Buf, offTupleCnt, 0)
}

func (p *SlottedPage) PageType() PageType { return PageType(p.Buf[offPageType]) }
func (p *SlottedPage) Lsn() uint64        { return bx.U64At(p.Buf, offLsn) }
func (p *SlottedPage) NextPage() int32    { return bx.I32At(p.Buf, offNextPage) }
func (p *SlottedPage) PrevPage() int32    { return bx.I32At(p.Buf, offPrevPage) }

func (p *SlottedPage) SetNextPage(id int32) { bx.PutI32At(p.Buf, offNextPage, id) }
func (p *SlottedPage) SetPrevPage(id int32) { bx.PutI32At(p.Buf, offPrevPage, id) }

func (p *SlottedPage) NumSlots() int   { return int(bx.U16At(p.Buf, offNumSlots)) }
func (p *SlottedPage) TupleCount() int { return int(bx.U16At(p.Buf, offTupleCnt)) }

func (p *SlottedPage) freeSpacePointer() int { return int(bx.U16At(p.Buf, offFreeSpace)) }

// FreeSpace returns the bytes left between the slot directory and the
// payload area.
func (p *SlottedPage) FreeSpace() int {
	return p.freeSpacePointer() - (slottedHeaderSize + p.NumSlots()*slotSize)
}

func (p *SlottedPage) slotOff(idx int) int {
	return slottedHeaderSize + idx*slotSize
}

func (p *SlottedPage) getSlot(idx int) Slot {
	o := p.slotOff(idx)
	return Slot{
		Offset: bx.U16At(p.Buf, o),
		Length: bx.U16At(p.Buf, o+2),
	}
}

func (p *SlottedPage) putSlot(idx int, s Slot) {
	o := p.slotOff(idx)
	bx.PutU16At(p.Buf, o, s.Offset)
	bx.PutU16At(p.Buf, o+2, s.Length)
}

// InsertTuple places tup in the page, reusing a tombstoned slot when one
// exists. Returns the slot id, or -1 when the page cannot hold the tuple.
func (p *SlottedPage) InsertTuple(tup []byte) int {
	if len(tup) == 0 || len(tup) > PageSize {
		return -1
	}

	reuse := -1
	for i := 0; i < p.NumSlots(); i++ {
		if p.getSlot(i).Length == 0 {
			reuse = i
			break
		}
	}

	need := len(tup)
	if reuse < 0 {
		need += slotSize
	}
	if need > p.FreeSpace() {
		return -1
	}

	fsp := p.freeSpacePointer() - len(tup)
	copy(p.Buf[fsp:], tup)
	bx.PutU16At(p.Buf, offFreeSpace, uint16(fsp))

	slot := Slot{Offset: uint16(fsp), Length: uint16(len(tup))}
	idx := reuse
	if reuse >= 0 {
		p.putSlot(reuse, slot)
	} else {
		idx = p.NumSlots()
		p.putSlot(idx, slot)
		bx.PutU16At(p.Buf, offNumSlots, uint16(idx+1))
	}

	bx.PutU16At(p.Buf, offTupleCnt, uint16(p.TupleCount()+1))
	return idx
}

// GetTuple returns the payload stored in slotID, or nil when the slot is
// out of range, tombstoned, or its bounds fall outside the page.
func (p *SlottedPage) GetTuple(slotID int) []byte {
	if slotID < 0 || slotID >= p.NumSlots() {
		return nil
	}
	s := p.getSlot(slotID)
	if s.Length == 0 {
		return nil
	}
	if int(s.Offset)+int(s.Length) > PageSize {
		return nil
	}
	return p.Buf[s.Offset : int(s.Offset)+int(s.Length)]
}

// DeleteTuple tombstones slotID. Payload bytes stay where they are;
// compaction is a page rewrite, which this layer does not do.
func (p *SlottedPage) DeleteTuple(slotID int) bool {
	if slotID < 0 || slotID >= p.NumSlots() {
		return false
	}
	s := p.getSlot(slotID)
	if s.Length == 0 {
		return false
	}
	p.putSlot(slotID, Slot{Offset: s.Offset, Length: 0})
	bx.PutU16At(p.Buf, offTupleCnt, uint16(p.TupleCount()-1))
	return true
}
