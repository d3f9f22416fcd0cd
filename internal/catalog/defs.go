package catalog

import (
	"bytes"

	"github.com/lettydb/lettydb/internal/alias/bx"
)

// Reserved OIDs. User tables start at FirstUserOID.
const (
	SysTablesOID  uint32 = 1
	SysColumnsOID uint32 = 2
	FirstUserOID  uint32 = 100
)

// MaxNameLength is the hard limit on table and column names.
const MaxNameLength = 32

// DataType enumerates the column types the catalog can describe.
type DataType uint8

const (
	Integer DataType = iota
	Double
	Varchar
	Boolean
	Date
	Timestamp
)

func (d DataType) String() string {
	switch d {
	case Integer:
		return "integer"
	case Double:
		return "double"
	case Varchar:
		return "varchar"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	case Timestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Column describes one column of a table: its type plus the fixed byte
// layout of the column inside a row.
type Column struct {
	Name   string
	Type   DataType
	Length uint16
	Offset uint16
}

// Schema is the ordered column list of a table.
type Schema struct {
	Columns []Column
}

func (s Schema) NumCols() int { return len(s.Columns) }

// TableMetadata is the owned result of a catalog lookup. FirstPageID is the
// head of the table's IAM chain.
type TableMetadata struct {
	OID         uint32
	Name        string
	Schema      Schema
	FirstPageID int32
}

// sys_tables row layout: oid u32 @0, name [32]byte @4, first_page_id i32
// @36, column_count u16 @40.
const sysTablesRecordSize = 42

type sysTablesRecord struct {
	OID         uint32
	Name        string
	FirstPageID int32
	ColumnCount uint16
}

func (r sysTablesRecord) encode() []byte {
	buf := make([]byte, sysTablesRecordSize)
	bx.PutU32At(buf, 0, r.OID)
	copy(buf[4:4+MaxNameLength], r.Name)
	bx.PutI32At(buf, 36, r.FirstPageID)
	bx.PutU16At(buf, 40, r.ColumnCount)
	return buf
}

func decodeSysTablesRecord(buf []byte) (sysTablesRecord, bool) {
	if len(buf) != sysTablesRecordSize {
		return sysTablesRecord{}, false
	}
	return sysTablesRecord{
		OID:         bx.U32At(buf, 0),
		Name:        decodeName(buf[4 : 4+MaxNameLength]),
		FirstPageID: bx.I32At(buf, 36),
		ColumnCount: bx.U16At(buf, 40),
	}, true
}

// sys_columns row layout: table_oid u32 @0, name [32]byte @4, type u8 @36,
// length u16 @37, offset u16 @39.
const sysColumnsRecordSize = 41

type sysColumnsRecord struct {
	TableOID uint32
	Name     string
	Type     DataType
	Length   uint16
	Offset   uint16
}

func (r sysColumnsRecord) encode() []byte {
	buf := make([]byte, sysColumnsRecordSize)
	bx.PutU32At(buf, 0, r.TableOID)
	copy(buf[4:4+MaxNameLength], r.Name)
	buf[36] = byte(r.Type)
	bx.PutU16At(buf, 37, r.Length)
	bx.PutU16At(buf, 39, r.Offset)
	return buf
}

func decodeSysColumnsRecord(buf []byte) (sysColumnsRecord, bool) {
	if len(buf) != sysColumnsRecordSize {
		return sysColumnsRecord{}, false
	}
	return sysColumnsRecord{
		TableOID: bx.U32At(buf, 0),
		Name:     decodeName(buf[4 : 4+MaxNameLength]),
		Type:     DataType(buf[36]),
		Length:   bx.U16At(buf, 37),
		Offset:   bx.U16At(buf, 39),
	}, true
}

// decodeName strips the NUL padding of a fixed-length name field.
func decodeName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
