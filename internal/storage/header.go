package storage

import (
	"bytes"

	"github.com/lettydb/lettydb/internal/alias/bx"
)

// Database header field offsets (page 0).
const (
	offSignature     = 0  // [8]byte, NUL-padded
	offVersion       = 8  // u32
	offPageSize      = 12 // u32
	offTotalPages    = 16 // u64
	offGamPageID     = 24 // i32
	offSysTablesIam  = 28 // i32
	offSysColumnsIam = 32 // i32
)

const CurrentVersion = 1

// Signature is the fixed tag at the start of every database file.
var Signature = [8]byte{'L', 'E', 'T', 'T', 'Y'}

// HeaderPage is a typed view over the page-0 buffer.
type HeaderPage struct {
	Buf []byte
}

func NewHeaderPage(buf []byte) (*HeaderPage, error) {
	if len(buf) != PageSize {
		return nil, ErrWrongBufferSize
	}
	return &HeaderPage{Buf: buf}, nil
}

// Init formats buf as a fresh database header.
func (h *HeaderPage) Init() {
	for i := range h.Buf {
		h.Buf[i] = 0
	}
	copy(h.Buf[offSignature:], Signature[:])
	bx.PutU32At(h.Buf, offVersion, CurrentVersion)
	bx.PutU32At(h.Buf, offPageSize, PageSize)
	bx.PutU64At(h.Buf, offTotalPages, 0)
	bx.PutI32At(h.Buf, offGamPageID, FirstGamPageID)
	bx.PutI32At(h.Buf, offSysTablesIam, SysTablesIamPageID)
	bx.PutI32At(h.Buf, offSysColumnsIam, SysColumnsIamPageID)
}

// ValidSignature reports whether the buffer carries the fixed file tag.
func (h *HeaderPage) ValidSignature() bool {
	return bytes.Equal(h.Buf[offSignature:offSignature+8], Signature[:])
}

func (h *HeaderPage) Version() uint32  { return bx.U32At(h.Buf, offVersion) }
func (h *HeaderPage) PageSize() uint32 { return bx.U32At(h.Buf, offPageSize) }

func (h *HeaderPage) TotalPages() uint64     { return bx.U64At(h.Buf, offTotalPages) }
func (h *HeaderPage) SetTotalPages(v uint64) { bx.PutU64At(h.Buf, offTotalPages, v) }

func (h *HeaderPage) GamPageID() int32     { return bx.I32At(h.Buf, offGamPageID) }
func (h *HeaderPage) SysTablesIam() int32  { return bx.I32At(h.Buf, offSysTablesIam) }
func (h *HeaderPage) SysColumnsIam() int32 { return bx.I32At(h.Buf, offSysColumnsIam) }
