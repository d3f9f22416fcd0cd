package storage

import "log/slog"

// IamManager tracks which global extents belong to a single catalog object
// through a chain of sparse IAM pages. The chain is a singly linked list in
// strictly ascending range order; each page covers an aligned window of
// SparseMaxBits extents, so a sparse object holds one page per populated
// window rather than one bit per possible extent.
//
// IamManager keeps no page state of its own and is not safe for concurrent
// use on the same chain; each table has a single writer in this design.
type IamManager struct {
	dm  *DiskManager
	em  *ExtentManager
	log *slog.Logger
}

func NewIamManager(dm *DiskManager, em *ExtentManager, logger *slog.Logger) *IamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &IamManager{dm: dm, em: em, log: logger}
}

// CreateIamChain allocates a fresh extent and initializes its first page as
// the head of a new empty chain. The head always covers range 0. Returns the
// head page id, or InvalidPageID on failure.
func (im *IamManager) CreateIamChain() int32 {
	headPageID := im.em.AllocateExtent()
	if headPageID == InvalidPageID {
		return InvalidPageID
	}

	buf := make([]byte, PageSize)
	iam, _ := NewSparseIamPage(buf)
	iam.Init(0)
	if res := im.dm.WritePage(headPageID, buf); !res.OK() {
		return InvalidPageID
	}
	return headPageID
}

// AllocateExtent claims a physical extent from the ExtentManager and records
// it in the chain rooted at iamHead. Returns the extent's start page, or
// InvalidPageID on failure. If IAM bookkeeping fails after the physical
// extent was handed out, the extent leaks; a recovery sweep is the caller's
// problem.
func (im *IamManager) AllocateExtent(iamHead int32) int32 {
	if iamHead == InvalidPageID || iamHead < 0 {
		im.log.Error("allocate extent on invalid IAM head")
		return InvalidPageID
	}

	startPage := im.em.AllocateExtent()
	if startPage == InvalidPageID {
		return InvalidPageID
	}
	globalIdx := uint64(startPage) / ExtentSize

	iamPageID, bit := im.findOrCreatePage(iamHead, globalIdx)
	if iamPageID == InvalidPageID {
		return InvalidPageID
	}

	buf := make([]byte, PageSize)
	if res := im.dm.ReadPage(iamPageID, buf); !res.OK() {
		return InvalidPageID
	}
	iam, _ := NewSparseIamPage(buf)

	bm := iam.Bitmap()
	if bm.IsSet(bit) {
		im.log.Error("extent already marked in IAM, corruption suspected",
			"iam_page_id", iamPageID, "extent_index", globalIdx)
		return InvalidPageID
	}
	bm.Set(bit)
	if res := im.dm.WritePage(iamPageID, buf); !res.OK() {
		return InvalidPageID
	}
	return startPage
}

// findOrCreatePage walks the chain for the page covering targetIdx and
// splices in a new one when the window does not exist yet. Returns the page
// id and the intra-page bit offset.
func (im *IamManager) findOrCreatePage(iamHead int32, targetIdx uint64) (int32, int) {
	targetRange := (targetIdx / SparseMaxBits) * SparseMaxBits
	bit := int(targetIdx - targetRange)

	buf := make([]byte, PageSize)
	current := iamHead
	prev := InvalidPageID

	for current != InvalidPageID {
		if res := im.dm.ReadPage(current, buf); !res.OK() {
			return InvalidPageID, 0
		}
		iam, _ := NewSparseIamPage(buf)
		rangeStart := iam.RangeStart()

		if rangeStart == targetRange {
			return current, bit
		}

		if rangeStart > targetRange {
			// the window lives between prev and current
			newPageID := im.createSparsePage(targetRange, current)
			if newPageID == InvalidPageID {
				return InvalidPageID, 0
			}
			if !im.linkAfter(prev, newPageID) {
				return InvalidPageID, 0
			}
			return newPageID, bit
		}

		prev = current
		current = iam.Next()
	}

	// past the tail: append a new window
	newPageID := im.createSparsePage(targetRange, InvalidPageID)
	if newPageID == InvalidPageID {
		return InvalidPageID, 0
	}
	if !im.linkAfter(prev, newPageID) {
		return InvalidPageID, 0
	}
	return newPageID, bit
}

// createSparsePage allocates an extent for a new IAM page covering
// rangeStart and writes it with the given successor.
func (im *IamManager) createSparsePage(rangeStart uint64, next int32) int32 {
	pageID := im.em.AllocateExtent()
	if pageID == InvalidPageID {
		return InvalidPageID
	}

	buf := make([]byte, PageSize)
	iam, _ := NewSparseIamPage(buf)
	iam.Init(rangeStart)
	iam.SetNext(next)
	if res := im.dm.WritePage(pageID, buf); !res.OK() {
		return InvalidPageID
	}

	im.log.Debug("created sparse IAM page", "page_id", pageID, "range_start", rangeStart)
	return pageID
}

// linkAfter points prev's next pointer at pageID. A nil prev cannot happen
// for a well-formed chain (the head always covers range 0), so it is treated
// as corruption.
func (im *IamManager) linkAfter(prev, pageID int32) bool {
	if prev == InvalidPageID {
		im.log.Error("IAM chain head does not cover range 0", "new_page_id", pageID)
		return false
	}
	buf := make([]byte, PageSize)
	if res := im.dm.ReadPage(prev, buf); !res.OK() {
		return false
	}
	iam, _ := NewSparseIamPage(buf)
	iam.SetNext(pageID)
	return im.dm.WritePage(prev, buf).OK()
}
