package storage

import (
	"fmt"
	"log/slog"
	"sync"
)

// ExtentManager owns global extent allocation through the chained GAM.
// A single mutex serializes AllocateExtent and DeallocateExtent; the GAM
// pages are treated as private to this component.
type ExtentManager struct {
	dm  *DiskManager
	log *slog.Logger

	mu sync.Mutex

	// cursor: the last GAM page known to have (or to be nearest to) free
	// bits. Allocation scans start here instead of at the chain head so a
	// full prefix is never re-scanned until a deallocation rewinds it.
	cursorPageID int32
	cursorChain  int

	// one-page cache of the cursor GAM, valid when gamBufID != InvalidPageID
	gamBuf   []byte
	gamBufID int32
}

// NewExtentManager wires an ExtentManager over dm. An empty file is
// bootstrapped in place; a non-empty file with a bad signature is rejected.
func NewExtentManager(dm *DiskManager, logger *slog.Logger) (*ExtentManager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	em := &ExtentManager{
		dm:           dm,
		log:          logger,
		cursorPageID: FirstGamPageID,
		cursorChain:  0,
		gamBuf:       make([]byte, PageSize),
		gamBufID:     InvalidPageID,
	}

	size, err := dm.Size()
	if err != nil {
		return nil, err
	}
	if size == 0 {
		if err := em.initializeNewDB(); err != nil {
			return nil, err
		}
		return em, nil
	}

	buf := make([]byte, PageSize)
	if res := dm.ReadPage(HeaderPageID, buf); !res.OK() {
		return nil, fmt.Errorf("read database header: %s", res)
	}
	header, _ := NewHeaderPage(buf)
	if !header.ValidSignature() {
		return nil, ErrCorruptDatabase
	}
	return em, nil
}

// initializeNewDB lays out the fixed system pages of a fresh file: the
// header, the first GAM with the system extent claimed, and the two empty
// IAM heads for the catalog tables.
func (em *ExtentManager) initializeNewDB() error {
	buf := make([]byte, PageSize)

	header, _ := NewHeaderPage(buf)
	header.Init()
	header.SetTotalPages(ExtentSize)
	if res := em.dm.WritePage(HeaderPageID, buf); !res.OK() {
		return fmt.Errorf("write database header: %s", res)
	}

	gam, _ := NewGamPage(buf)
	gam.Init()
	gam.Bitmap().Set(0) // extent 0 holds the system pages
	if res := em.dm.WritePage(FirstGamPageID, buf); !res.OK() {
		return fmt.Errorf("write first GAM page: %s", res)
	}

	iam, _ := NewSparseIamPage(buf)
	for _, id := range []int32{SysTablesIamPageID, SysColumnsIamPageID} {
		iam.Init(0)
		if res := em.dm.WritePage(id, buf); !res.OK() {
			return fmt.Errorf("write IAM head page %d: %s", id, res)
		}
	}

	em.log.Info("initialized new database file")
	return nil
}

// AllocateExtent claims the lowest free extent and returns its start page,
// or InvalidPageID if allocation fails.
func (em *ExtentManager) AllocateExtent() int32 {
	em.mu.Lock()
	defer em.mu.Unlock()

	pageID := em.cursorPageID
	chain := em.cursorChain

	for {
		if !em.loadGamLocked(pageID) {
			return InvalidPageID
		}
		gam, _ := NewGamPage(em.gamBuf)

		if i := gam.Bitmap().FirstClear(); i >= 0 {
			gam.Bitmap().Set(i)
			if res := em.dm.WritePage(pageID, em.gamBuf); !res.OK() {
				em.gamBufID = InvalidPageID
				return InvalidPageID
			}
			em.cursorPageID = pageID
			em.cursorChain = chain
			return int32((chain*BitsPerGam + i) * ExtentSize)
		}

		next := gam.Next()
		if next == InvalidPageID {
			next = em.appendGamLocked(pageID, chain)
			if next == InvalidPageID {
				return InvalidPageID
			}
		}
		pageID = next
		chain++

		// never re-scan the full page we just left
		em.cursorPageID = pageID
		em.cursorChain = chain
	}
}

// appendGamLocked creates the GAM page for chain index prevChain+1 and links
// it after prevPageID. New GAM pages are packed into the spare system-extent
// slots (pages 4..7) first; once those are used the file grows by one extent
// and the new GAM claims its own extent via bit 0.
func (em *ExtentManager) appendGamLocked(prevPageID int32, prevChain int) int32 {
	newChain := prevChain + 1

	var newPageID int32
	selfAllocated := false
	if newChain < ExtentSize-3 {
		// spare pages of the system extent: 4, 5, 6, 7
		newPageID = SysColumnsIamPageID + int32(newChain)
	} else {
		headerBuf := make([]byte, PageSize)
		if res := em.dm.ReadPage(HeaderPageID, headerBuf); !res.OK() {
			return InvalidPageID
		}
		header, _ := NewHeaderPage(headerBuf)
		total := header.TotalPages()
		newPageID = int32(total)
		header.SetTotalPages(total + ExtentSize)
		if res := em.dm.WritePage(HeaderPageID, headerBuf); !res.OK() {
			return InvalidPageID
		}
		selfAllocated = true
	}

	newBuf := make([]byte, PageSize)
	gam, _ := NewGamPage(newBuf)
	gam.Init()
	if selfAllocated {
		gam.Bitmap().Set(0)
	}
	if res := em.dm.WritePage(newPageID, newBuf); !res.OK() {
		return InvalidPageID
	}

	// link the previous chain tail to the new page
	if em.gamBufID != prevPageID {
		if !em.loadGamLocked(prevPageID) {
			return InvalidPageID
		}
	}
	prev, _ := NewGamPage(em.gamBuf)
	prev.SetNext(newPageID)
	if res := em.dm.WritePage(prevPageID, em.gamBuf); !res.OK() {
		em.gamBufID = InvalidPageID
		return InvalidPageID
	}

	em.log.Debug("created GAM page", "page_id", newPageID, "chain_index", newChain)
	return newPageID
}

// DeallocateExtent releases the extent starting at startPageID. Invalid ids,
// unaligned ids, and the system extent are silent no-ops so callers can
// retry or double-free without harm.
func (em *ExtentManager) DeallocateExtent(startPageID int32) {
	if startPageID == InvalidPageID || startPageID < 0 {
		return
	}
	if startPageID%ExtentSize != 0 {
		return
	}
	extentIdx := int(startPageID) / ExtentSize
	if extentIdx == 0 {
		return
	}

	em.mu.Lock()
	defer em.mu.Unlock()

	chainIdx := extentIdx / BitsPerGam
	bit := extentIdx % BitsPerGam

	buf := make([]byte, PageSize)
	pageID := FirstGamPageID
	for i := 0; i < chainIdx; i++ {
		if res := em.dm.ReadPage(pageID, buf); !res.OK() {
			return
		}
		gam, _ := NewGamPage(buf)
		pageID = gam.Next()
		if pageID == InvalidPageID {
			em.log.Warn("deallocate past end of GAM chain", "start_page_id", startPageID)
			return
		}
	}

	if res := em.dm.ReadPage(pageID, buf); !res.OK() {
		return
	}
	gam, _ := NewGamPage(buf)
	gam.Bitmap().Clear(bit)
	if res := em.dm.WritePage(pageID, buf); !res.OK() {
		return
	}

	if pageID == em.gamBufID {
		copy(em.gamBuf, buf)
	}

	// rewind so the next allocation sees the freed slot
	if chainIdx < em.cursorChain {
		em.cursorPageID = pageID
		em.cursorChain = chainIdx
	}
}

// loadGamLocked makes gamBuf hold pageID, reusing the cache when it already
// does.
func (em *ExtentManager) loadGamLocked(pageID int32) bool {
	if em.gamBufID == pageID {
		return true
	}
	if res := em.dm.ReadPage(pageID, em.gamBuf); !res.OK() {
		em.gamBufID = InvalidPageID
		return false
	}
	em.gamBufID = pageID
	return true
}
