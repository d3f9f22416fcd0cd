package storage

import "github.com/lettydb/lettydb/internal/alias/bx"

// GAM page layout: next pointer, then a bitmap where bit i means
// "extent base+i is allocated somewhere in the database".
const offGamNext = 0 // i32

// GamPage is a typed view over one Global Allocation Map page.
type GamPage struct {
	Buf []byte
}

func NewGamPage(buf []byte) (*GamPage, error) {
	if len(buf) != PageSize {
		return nil, ErrWrongBufferSize
	}
	return &GamPage{Buf: buf}, nil
}

// Init formats buf as an empty GAM page with no successor.
func (g *GamPage) Init() {
	for i := range g.Buf {
		g.Buf[i] = 0
	}
	bx.PutI32At(g.Buf, offGamNext, InvalidPageID)
}

func (g *GamPage) Next() int32      { return bx.I32At(g.Buf, offGamNext) }
func (g *GamPage) SetNext(id int32) { bx.PutI32At(g.Buf, offGamNext, id) }
func (g *GamPage) Bitmap() Bitmap   { return NewBitmap(g.Buf[gamHeaderSize:], BitsPerGam) }

// Sparse IAM page layout: next pointer, covered range start, bitmap. Bit i
// means "global extent extent_range_start+i belongs to this object".
const (
	offIamNext       = 0 // i32
	offIamRangeStart = 4 // u64
)

// SparseIamPage is a typed view over one sparse IAM page.
type SparseIamPage struct {
	Buf []byte
}

func NewSparseIamPage(buf []byte) (*SparseIamPage, error) {
	if len(buf) != PageSize {
		return nil, ErrWrongBufferSize
	}
	return &SparseIamPage{Buf: buf}, nil
}

// Init formats buf as an empty sparse IAM page covering the range that
// starts at rangeStart.
func (p *SparseIamPage) Init(rangeStart uint64) {
	for i := range p.Buf {
		p.Buf[i] = 0
	}
	bx.PutI32At(p.Buf, offIamNext, InvalidPageID)
	bx.PutU64At(p.Buf, offIamRangeStart, rangeStart)
}

func (p *SparseIamPage) Next() int32        { return bx.I32At(p.Buf, offIamNext) }
func (p *SparseIamPage) SetNext(id int32)   { bx.PutI32At(p.Buf, offIamNext, id) }
func (p *SparseIamPage) RangeStart() uint64 { return bx.U64At(p.Buf, offIamRangeStart) }
func (p *SparseIamPage) Bitmap() Bitmap {
	return NewBitmap(p.Buf[sparseIamHeaderSize:], SparseMaxBits)
}
