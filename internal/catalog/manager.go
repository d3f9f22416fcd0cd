package catalog

import (
	"log/slog"

	"github.com/lettydb/lettydb/internal/storage"
)

// Manager maintains the system catalog: the sys_tables and sys_columns
// tables that describe every table in the database, themselves included.
// It owns no page state; every call goes through the DiskManager. Callers
// serialize DDL, matching the single-writer contract of the IAM layer.
type Manager struct {
	dm  *storage.DiskManager
	em  *storage.ExtentManager
	iam *storage.IamManager
	log *slog.Logger
}

func NewManager(dm *storage.DiskManager, em *storage.ExtentManager, iam *storage.IamManager, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{dm: dm, em: em, iam: iam, log: logger}
}

// Init bootstraps the catalog on a fresh database. Detection is
// self-referential: a bootstrapped catalog can describe sys_tables.
func (m *Manager) Init() error {
	if meta, err := m.GetTable("sys_tables"); err != nil {
		return err
	} else if meta != nil {
		return nil
	}
	return m.bootstrap()
}

// bootstrap gives both system tables their first data extent and inserts
// the rows that make the catalog describe itself.
func (m *Manager) bootstrap() error {
	sysTablesIam, sysColumnsIam, err := m.systemIamHeads()
	if err != nil {
		return err
	}

	sysTablesFirst := m.iam.AllocateExtent(sysTablesIam)
	if sysTablesFirst == storage.InvalidPageID {
		return storage.ErrInvalidPage
	}
	sysColumnsFirst := m.iam.AllocateExtent(sysColumnsIam)
	if sysColumnsFirst == storage.InvalidPageID {
		return storage.ErrInvalidPage
	}

	buf := make([]byte, storage.PageSize)
	sp, _ := storage.NewSlottedPage(buf)
	for _, pageID := range []int32{sysTablesFirst, sysColumnsFirst} {
		sp.Init()
		if res := m.dm.WritePage(pageID, buf); !res.OK() {
			return storage.ErrInvalidPage
		}
	}

	tables := []sysTablesRecord{
		{OID: SysTablesOID, Name: "sys_tables", FirstPageID: sysTablesIam, ColumnCount: 4},
		{OID: SysColumnsOID, Name: "sys_columns", FirstPageID: sysColumnsIam, ColumnCount: 5},
	}
	for _, rec := range tables {
		if !m.insertRecord(sysTablesIam, rec.encode()) {
			return storage.ErrInvalidPage
		}
	}

	columns := []sysColumnsRecord{
		{TableOID: SysTablesOID, Name: "oid", Type: Integer, Length: 4, Offset: 0},
		{TableOID: SysTablesOID, Name: "name", Type: Varchar, Length: MaxNameLength, Offset: 4},
		{TableOID: SysTablesOID, Name: "first_page_id", Type: Integer, Length: 4, Offset: 36},
		{TableOID: SysTablesOID, Name: "column_count", Type: Integer, Length: 2, Offset: 40},
		{TableOID: SysColumnsOID, Name: "table_oid", Type: Integer, Length: 4, Offset: 0},
		{TableOID: SysColumnsOID, Name: "name", Type: Varchar, Length: MaxNameLength, Offset: 4},
		{TableOID: SysColumnsOID, Name: "type", Type: Integer, Length: 1, Offset: 36},
		{TableOID: SysColumnsOID, Name: "length", Type: Integer, Length: 2, Offset: 37},
		{TableOID: SysColumnsOID, Name: "offset", Type: Integer, Length: 2, Offset: 39},
	}
	for _, rec := range columns {
		if !m.insertRecord(sysColumnsIam, rec.encode()) {
			return storage.ErrInvalidPage
		}
	}

	m.log.Info("bootstrapped system catalog",
		"sys_tables_first_page", sysTablesFirst, "sys_columns_first_page", sysColumnsFirst)
	return nil
}

// CreateTable registers a new user table. Returns false when the name is
// taken or any allocation fails.
func (m *Manager) CreateTable(name string, schema Schema) bool {
	if name == "" || len(name) > MaxNameLength || len(schema.Columns) == 0 {
		return false
	}

	existing, err := m.GetTable(name)
	if err != nil || existing != nil {
		return false
	}

	oid, ok := m.nextOID()
	if !ok {
		return false
	}

	iamHead := m.iam.CreateIamChain()
	if iamHead == storage.InvalidPageID {
		return false
	}

	sysTablesIam, sysColumnsIam, err := m.systemIamHeads()
	if err != nil {
		return false
	}

	rec := sysTablesRecord{
		OID:         oid,
		Name:        name,
		FirstPageID: iamHead,
		ColumnCount: uint16(len(schema.Columns)),
	}
	if !m.insertRecord(sysTablesIam, rec.encode()) {
		return false
	}

	for _, col := range schema.Columns {
		colRec := sysColumnsRecord{
			TableOID: oid,
			Name:     col.Name,
			Type:     col.Type,
			Length:   col.Length,
			Offset:   col.Offset,
		}
		if !m.insertRecord(sysColumnsIam, colRec.encode()) {
			return false
		}
	}

	m.log.Info("created table", "name", name, "oid", oid, "iam_head", iamHead)
	return true
}

// GetTable resolves a table by name. Returns (nil, nil) when the table does
// not exist; the returned metadata is an owned copy, not a view into
// catalog pages.
func (m *Manager) GetTable(name string) (*TableMetadata, error) {
	sysTablesIam, sysColumnsIam, err := m.systemIamHeads()
	if err != nil {
		return nil, err
	}

	var found *sysTablesRecord
	m.scanRecords(sysTablesIam, sysTablesRecordSize, func(_ int32, _ int, data []byte) bool {
		rec, ok := decodeSysTablesRecord(data)
		if ok && rec.Name == name {
			found = &rec
			return false
		}
		return true
	})
	if found == nil {
		return nil, nil
	}

	meta := &TableMetadata{
		OID:         found.OID,
		Name:        found.Name,
		FirstPageID: found.FirstPageID,
	}

	// columns come back in insertion order, which is declaration order
	m.scanRecords(sysColumnsIam, sysColumnsRecordSize, func(_ int32, _ int, data []byte) bool {
		rec, ok := decodeSysColumnsRecord(data)
		if ok && rec.TableOID == found.OID {
			meta.Schema.Columns = append(meta.Schema.Columns, Column{
				Name:   rec.Name,
				Type:   rec.Type,
				Length: rec.Length,
				Offset: rec.Offset,
			})
		}
		return true
	})
	return meta, nil
}

// DropTable removes a user table: its catalog rows are tombstoned and every
// extent its IAM chain owns is returned to the global pool. Returns false
// for unknown or system tables.
func (m *Manager) DropTable(name string) bool {
	meta, err := m.GetTable(name)
	if err != nil || meta == nil {
		return false
	}
	if meta.OID < FirstUserOID {
		return false
	}

	sysTablesIam, sysColumnsIam, err := m.systemIamHeads()
	if err != nil {
		return false
	}

	m.deleteRecords(sysColumnsIam, sysColumnsRecordSize, func(data []byte) bool {
		rec, ok := decodeSysColumnsRecord(data)
		return ok && rec.TableOID == meta.OID
	})
	m.deleteRecords(sysTablesIam, sysTablesRecordSize, func(data []byte) bool {
		rec, ok := decodeSysTablesRecord(data)
		return ok && rec.OID == meta.OID
	})

	m.releaseChain(meta.FirstPageID)
	m.log.Info("dropped table", "name", name, "oid", meta.OID)
	return true
}

// releaseChain deallocates every extent an IAM chain marks, then the
// extents holding the IAM pages themselves.
func (m *Manager) releaseChain(iamHead int32) {
	buf := make([]byte, storage.PageSize)
	var iamPages []int32

	for id := iamHead; id != storage.InvalidPageID; {
		if res := m.dm.ReadPage(id, buf); !res.OK() {
			break
		}
		iam, _ := storage.NewSparseIamPage(buf)
		iamPages = append(iamPages, id)

		bm := iam.Bitmap()
		for bit := 0; bit < storage.SparseMaxBits; bit++ {
			if bm.IsSet(bit) {
				extentIdx := iam.RangeStart() + uint64(bit)
				m.em.DeallocateExtent(int32(extentIdx) * storage.ExtentSize)
			}
		}
		id = iam.Next()
	}

	for _, id := range iamPages {
		m.em.DeallocateExtent(id)
	}
}

// nextOID assigns one above the highest OID among the live sys_tables rows.
// Recomputing from disk keeps the scheme restart-safe without a persisted
// counter. Dropped tables' rows are tombstoned and not counted, so after the
// table holding the highest OID is dropped, that OID is assigned again.
func (m *Manager) nextOID() (uint32, bool) {
	sysTablesIam, _, err := m.systemIamHeads()
	if err != nil {
		return 0, false
	}

	maxOID := FirstUserOID - 1
	m.scanRecords(sysTablesIam, sysTablesRecordSize, func(_ int32, _ int, data []byte) bool {
		rec, ok := decodeSysTablesRecord(data)
		if ok && rec.OID > maxOID {
			maxOID = rec.OID
		}
		return true
	})
	return maxOID + 1, true
}

// systemIamHeads reads the fixed IAM head page ids out of the database
// header.
func (m *Manager) systemIamHeads() (sysTables, sysColumns int32, err error) {
	buf := make([]byte, storage.PageSize)
	if res := m.dm.ReadPage(storage.HeaderPageID, buf); !res.OK() {
		return 0, 0, storage.ErrInvalidPage
	}
	header, err := storage.NewHeaderPage(buf)
	if err != nil {
		return 0, 0, err
	}
	if !header.ValidSignature() {
		return 0, 0, storage.ErrCorruptDatabase
	}
	return header.SysTablesIam(), header.SysColumnsIam(), nil
}

// forEachDataPage visits every initialized data page of the extents marked
// in the IAM chain at iamHead. visit returns false to stop the walk.
func (m *Manager) forEachDataPage(iamHead int32, visit func(pageID int32, sp *storage.SlottedPage, buf []byte) bool) {
	iamBuf := make([]byte, storage.PageSize)
	pageBuf := make([]byte, storage.PageSize)

	for id := iamHead; id != storage.InvalidPageID; {
		if res := m.dm.ReadPage(id, iamBuf); !res.OK() {
			return
		}
		iam, _ := storage.NewSparseIamPage(iamBuf)
		bm := iam.Bitmap()

		for bit := 0; bit < storage.SparseMaxBits; bit++ {
			if !bm.IsSet(bit) {
				continue
			}
			extentStart := int32(iam.RangeStart()+uint64(bit)) * storage.ExtentSize
			for p := int32(0); p < storage.ExtentSize; p++ {
				pageID := extentStart + p
				if res := m.dm.ReadPage(pageID, pageBuf); !res.OK() {
					continue
				}
				sp, _ := storage.NewSlottedPage(pageBuf)
				if sp.PageType() != storage.PageTypeData {
					continue
				}
				if !visit(pageID, sp, pageBuf) {
					return
				}
			}
		}
		id = iam.Next()
	}
}

// scanRecords calls fn for every live tuple of the given size in the
// table rooted at iamHead. fn returns false to stop.
func (m *Manager) scanRecords(iamHead int32, recordSize int, fn func(pageID int32, slot int, data []byte) bool) {
	m.forEachDataPage(iamHead, func(pageID int32, sp *storage.SlottedPage, _ []byte) bool {
		for slot := 0; slot < sp.NumSlots(); slot++ {
			data := sp.GetTuple(slot)
			if data == nil || len(data) != recordSize {
				continue
			}
			if !fn(pageID, slot, data) {
				return false
			}
		}
		return true
	})
}

// deleteRecords tombstones every live tuple matching the predicate and
// writes touched pages back.
func (m *Manager) deleteRecords(iamHead int32, recordSize int, match func(data []byte) bool) {
	m.forEachDataPage(iamHead, func(pageID int32, sp *storage.SlottedPage, buf []byte) bool {
		dirty := false
		for slot := 0; slot < sp.NumSlots(); slot++ {
			data := sp.GetTuple(slot)
			if data == nil || len(data) != recordSize {
				continue
			}
			if match(data) && sp.DeleteTuple(slot) {
				dirty = true
			}
		}
		if dirty {
			if res := m.dm.WritePage(pageID, buf); !res.OK() {
				return false
			}
		}
		return true
	})
}

// insertRecord places data in the first page of the table with room,
// initializing untouched pages of owned extents on the way, and growing the
// table by one extent when everything is full.
func (m *Manager) insertRecord(iamHead int32, data []byte) bool {
	if m.tryInsert(iamHead, data) {
		return true
	}

	// every owned page is full: grow by one extent
	extentStart := m.iam.AllocateExtent(iamHead)
	if extentStart == storage.InvalidPageID {
		return false
	}
	buf := make([]byte, storage.PageSize)
	sp, _ := storage.NewSlottedPage(buf)
	sp.Init()
	if sp.InsertTuple(data) < 0 {
		return false
	}
	return m.dm.WritePage(extentStart, buf).OK()
}

func (m *Manager) tryInsert(iamHead int32, data []byte) bool {
	iamBuf := make([]byte, storage.PageSize)
	pageBuf := make([]byte, storage.PageSize)

	for id := iamHead; id != storage.InvalidPageID; {
		if res := m.dm.ReadPage(id, iamBuf); !res.OK() {
			return false
		}
		iam, _ := storage.NewSparseIamPage(iamBuf)
		bm := iam.Bitmap()

		for bit := 0; bit < storage.SparseMaxBits; bit++ {
			if !bm.IsSet(bit) {
				continue
			}
			extentStart := int32(iam.RangeStart()+uint64(bit)) * storage.ExtentSize
			for p := int32(0); p < storage.ExtentSize; p++ {
				pageID := extentStart + p
				sp, ok := m.loadOrInitDataPage(pageID, pageBuf)
				if !ok {
					continue
				}
				if sp.InsertTuple(data) < 0 {
					continue
				}
				if m.dm.WritePage(pageID, pageBuf).OK() {
					return true
				}
				return false
			}
		}
		id = iam.Next()
	}
	return false
}

// loadOrInitDataPage reads pageID into buf, formatting it as a fresh data
// page when it has never been written (all-zero or beyond end of file).
func (m *Manager) loadOrInitDataPage(pageID int32, buf []byte) (*storage.SlottedPage, bool) {
	if res := m.dm.ReadPage(pageID, buf); !res.OK() {
		// allocated but never written; the extent reserves it for us
		sp, _ := storage.NewSlottedPage(buf)
		sp.Init()
		return sp, true
	}
	sp, _ := storage.NewSlottedPage(buf)
	switch sp.PageType() {
	case storage.PageTypeData:
		return sp, true
	case storage.PageTypeInvalid:
		sp.Init()
		return sp, true
	default:
		return nil, false
	}
}
