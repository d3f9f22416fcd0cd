package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lettydb/lettydb/internal/storage"
)

func newCatalog(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	return openCatalog(t, path), path
}

func openCatalog(t *testing.T, path string) *Manager {
	t.Helper()
	dm, err := storage.NewDiskManager(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.Close() })

	em, err := storage.NewExtentManager(dm, nil)
	require.NoError(t, err)
	iam := storage.NewIamManager(dm, em, nil)

	m := NewManager(dm, em, iam, nil)
	require.NoError(t, m.Init())
	return m
}

func TestBootstrapThenLookup(t *testing.T) {
	m, _ := newCatalog(t)

	meta, err := m.GetTable("sys_tables")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, SysTablesOID, meta.OID)
	assert.Equal(t, "sys_tables", meta.Name)
	require.Len(t, meta.Schema.Columns, 4)

	wantCols := []Column{
		{Name: "oid", Type: Integer, Length: 4, Offset: 0},
		{Name: "name", Type: Varchar, Length: MaxNameLength, Offset: 4},
		{Name: "first_page_id", Type: Integer, Length: 4, Offset: 36},
		{Name: "column_count", Type: Integer, Length: 2, Offset: 40},
	}
	assert.Equal(t, wantCols, meta.Schema.Columns)

	cols, err := m.GetTable("sys_columns")
	require.NoError(t, err)
	require.NotNil(t, cols)
	assert.Equal(t, SysColumnsOID, cols.OID)
	require.Len(t, cols.Schema.Columns, 5)

	ghost, err := m.GetTable("ghost")
	require.NoError(t, err)
	assert.Nil(t, ghost)
}

func TestInitIsIdempotent(t *testing.T) {
	m, _ := newCatalog(t)
	require.NoError(t, m.Init())

	meta, err := m.GetTable("sys_tables")
	require.NoError(t, err)
	require.NotNil(t, meta)
	require.Len(t, meta.Schema.Columns, 4)
}

func userSchema() Schema {
	return Schema{Columns: []Column{
		{Name: "id", Type: Integer, Length: 4, Offset: 0},
		{Name: "username", Type: Varchar, Length: 32, Offset: 4},
	}}
}

func TestCreateAndIntrospectTable(t *testing.T) {
	m, _ := newCatalog(t)

	require.True(t, m.CreateTable("users", userSchema()))

	meta, err := m.GetTable("users")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.GreaterOrEqual(t, meta.OID, FirstUserOID)
	assert.NotEqual(t, storage.InvalidPageID, meta.FirstPageID)
	assert.Equal(t, userSchema().Columns, meta.Schema.Columns)

	// duplicate names are rejected
	assert.False(t, m.CreateTable("users", userSchema()))
}

func TestCreateTableAssignsDistinctOIDs(t *testing.T) {
	m, _ := newCatalog(t)

	require.True(t, m.CreateTable("users", userSchema()))
	require.True(t, m.CreateTable("orders", userSchema()))

	users, err := m.GetTable("users")
	require.NoError(t, err)
	orders, err := m.GetTable("orders")
	require.NoError(t, err)
	require.NotNil(t, users)
	require.NotNil(t, orders)
	assert.NotEqual(t, users.OID, orders.OID)
	assert.NotEqual(t, users.FirstPageID, orders.FirstPageID)
}

func TestCatalogPersistsAcrossReopen(t *testing.T) {
	m, path := newCatalog(t)
	require.True(t, m.CreateTable("users", userSchema()))

	m2 := openCatalog(t, path)
	meta, err := m2.GetTable("users")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, userSchema().Columns, meta.Schema.Columns)

	// OID assignment keeps climbing after a restart
	require.True(t, m2.CreateTable("orders", userSchema()))
	orders, err := m2.GetTable("orders")
	require.NoError(t, err)
	require.NotNil(t, orders)
	assert.Greater(t, orders.OID, meta.OID)
}

func TestColumnOrderRoundTrip(t *testing.T) {
	m, _ := newCatalog(t)

	schema := Schema{Columns: []Column{
		{Name: "zeta", Type: Double, Length: 8, Offset: 0},
		{Name: "alpha", Type: Boolean, Length: 1, Offset: 8},
		{Name: "mid", Type: Date, Length: 4, Offset: 9},
		{Name: "ts", Type: Timestamp, Length: 8, Offset: 13},
	}}
	require.True(t, m.CreateTable("events", schema))

	meta, err := m.GetTable("events")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, schema.Columns, meta.Schema.Columns)
}

func TestCreateTableRejectsBadInput(t *testing.T) {
	m, _ := newCatalog(t)

	assert.False(t, m.CreateTable("", userSchema()))
	assert.False(t, m.CreateTable("t", Schema{}))
	assert.False(t, m.CreateTable("this_name_is_way_too_long_for_the_catalog", userSchema()))
}

func TestDropTable(t *testing.T) {
	m, _ := newCatalog(t)

	require.True(t, m.CreateTable("users", userSchema()))
	users, err := m.GetTable("users")
	require.NoError(t, err)
	require.NotNil(t, users)

	require.True(t, m.DropTable("users"))

	gone, err := m.GetTable("users")
	require.NoError(t, err)
	assert.Nil(t, gone)

	// dropping again, or dropping system tables, fails
	assert.False(t, m.DropTable("users"))
	assert.False(t, m.DropTable("sys_tables"))

	// the name is free for reuse
	require.True(t, m.CreateTable("users", userSchema()))
}
