package storage

import (
	"fmt"
	"log/slog"
	"os"
)

// DiskManager owns the database file handle and moves raw pages between
// memory and disk. It knows nothing about page contents, keeps no cache,
// and leaves serialization to its caller.
type DiskManager struct {
	file *os.File
	path string
	log  *slog.Logger
}

// NewDiskManager opens (or creates) the database file at path.
func NewDiskManager(path string, logger *slog.Logger) (*DiskManager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, FileMode0644)
	if err != nil {
		return nil, fmt.Errorf("open database file: %w", err)
	}

	return &DiskManager{file: file, path: path, log: logger}, nil
}

// Size returns the current length of the database file in bytes.
func (dm *DiskManager) Size() (int64, error) {
	if dm.file == nil {
		return 0, os.ErrClosed
	}
	info, err := dm.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat database file: %w", err)
	}
	return info.Size(), nil
}

// ReadPage reads page pageID into buf. buf must be exactly PageSize bytes.
// Reading past the end of the file fails with ReadError.
func (dm *DiskManager) ReadPage(pageID int32, buf []byte) IOResult {
	if dm.file == nil {
		return FileNotOpen
	}
	if len(buf) != PageSize {
		return InvalidPage
	}
	if pageID < 0 {
		return InvalidPage
	}

	off := int64(pageID) * PageSize
	n, err := dm.file.ReadAt(buf, off)
	if err != nil || n != PageSize {
		dm.log.Debug("read page failed", "page_id", pageID, "read", n, "err", err)
		return ReadError
	}
	return Success
}

// WritePage writes buf to page pageID and flushes it to durable storage
// before returning. Writing past the end of the file extends it.
func (dm *DiskManager) WritePage(pageID int32, buf []byte) IOResult {
	if dm.file == nil {
		return FileNotOpen
	}
	if len(buf) != PageSize {
		return InvalidPage
	}
	if pageID < 0 {
		return InvalidPage
	}

	off := int64(pageID) * PageSize
	n, err := dm.file.WriteAt(buf, off)
	if err != nil || n != PageSize {
		dm.log.Error("write page failed", "page_id", pageID, "written", n, "err", err)
		return WriteError
	}

	if err := dm.file.Sync(); err != nil {
		dm.log.Error("sync failed", "page_id", pageID, "err", err)
		return WriteError
	}
	return Success
}

// Close releases the file handle. Further reads and writes report FileNotOpen.
func (dm *DiskManager) Close() error {
	if dm.file == nil {
		return nil
	}
	err := dm.file.Close()
	dm.file = nil
	if err != nil {
		return fmt.Errorf("close database file: %w", err)
	}
	return nil
}
