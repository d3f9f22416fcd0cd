package engine

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lettydb/lettydb/internal"
	"github.com/lettydb/lettydb/internal/catalog"
	"github.com/lettydb/lettydb/internal/storage"
)

var ErrDatabaseClosed = errors.New("lettydb: database is closed")

// Database wires the storage stack together behind a single handle: disk
// manager, global extent allocation, per-table IAM tracking, and the system
// catalog. The sole external surface is the database file itself.
type Database struct {
	dm      *storage.DiskManager
	extents *storage.ExtentManager
	iam     *storage.IamManager
	cat     *catalog.Manager
	closed  bool
}

// Open opens (or creates) the database file at path and bootstraps the
// catalog when the file is fresh.
func Open(path string, logger *slog.Logger) (*Database, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dm, err := storage.NewDiskManager(path, logger)
	if err != nil {
		return nil, err
	}

	em, err := storage.NewExtentManager(dm, logger)
	if err != nil {
		_ = dm.Close()
		return nil, err
	}

	iam := storage.NewIamManager(dm, em, logger)
	cat := catalog.NewManager(dm, em, iam, logger)
	if err := cat.Init(); err != nil {
		_ = dm.Close()
		return nil, err
	}

	return &Database{dm: dm, extents: em, iam: iam, cat: cat}, nil
}

// OpenFromConfig resolves the database file location from a loaded config.
func OpenFromConfig(cfg *internal.LettyConfig, logger *slog.Logger) (*Database, error) {
	if cfg.Storage.Workdir != "" {
		if err := os.MkdirAll(cfg.Storage.Workdir, storage.FileMode0755); err != nil {
			return nil, err
		}
	}
	return Open(filepath.Join(cfg.Storage.Workdir, cfg.Storage.File), logger)
}

// Catalog exposes the system catalog for DDL and metadata lookups.
func (db *Database) Catalog() *catalog.Manager { return db.cat }

// Extents exposes global extent allocation.
func (db *Database) Extents() *storage.ExtentManager { return db.extents }

// Iam exposes per-table extent tracking.
func (db *Database) Iam() *storage.IamManager { return db.iam }

// Disk exposes raw page I/O.
func (db *Database) Disk() *storage.DiskManager { return db.dm }

func (db *Database) Close() error {
	if db.closed {
		return ErrDatabaseClosed
	}
	db.closed = true
	return db.dm.Close()
}
