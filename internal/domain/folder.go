package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Folder is one node of an owner's folder hierarchy. ParentID nil means the
// folder sits at the root level.
type Folder struct {
	ID        uuid.UUID
	Name      string
	ParentID  *uuid.UUID
	CreatedAt time.Time
	CreatedBy uuid.UUID
}

// FolderTree is an in-memory snapshot of one owner's folder hierarchy and
// tag filing. It is loaded whole, validated and mutated as a copy, and
// written back under the owner's version stamp, so a half-applied mutation
// is never visible to readers.
type FolderTree struct {
	OwnerID uuid.UUID
	Folders map[uuid.UUID]Folder

	// Assignments maps a tag name to the folder it is filed under.
	// A nil folder id means the tag is unfiled (root).
	Assignments map[string]*uuid.UUID

	Version int64
}

// NewFolderTree returns an empty tree for the owner.
func NewFolderTree(ownerID uuid.UUID) *FolderTree {
	return &FolderTree{
		OwnerID:     ownerID,
		Folders:     make(map[uuid.UUID]Folder),
		Assignments: make(map[string]*uuid.UUID),
	}
}

// Clone returns a deep copy of the tree. Mutating services work on the copy
// so that a failed write leaves the loaded snapshot untouched.
func (t *FolderTree) Clone() *FolderTree {
	cp := &FolderTree{
		OwnerID:     t.OwnerID,
		Folders:     make(map[uuid.UUID]Folder, len(t.Folders)),
		Assignments: make(map[string]*uuid.UUID, len(t.Assignments)),
		Version:     t.Version,
	}
	for id, f := range t.Folders {
		if f.ParentID != nil {
			pid := *f.ParentID
			f.ParentID = &pid
		}
		cp.Folders[id] = f
	}
	for tag, fid := range t.Assignments {
		if fid != nil {
			id := *fid
			cp.Assignments[tag] = &id
		} else {
			cp.Assignments[tag] = nil
		}
	}
	return cp
}

// SiblingNameTaken reports whether name collides, case-insensitively, with
// another folder under the same parent. exclude skips one folder id (the
// folder being renamed or moved).
func (t *FolderTree) SiblingNameTaken(name string, parentID *uuid.UUID, exclude uuid.UUID) bool {
	for id, f := range t.Folders {
		if id == exclude {
			continue
		}
		if sameParent(f.ParentID, parentID) && strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

// WouldCycle reports whether re-parenting folderID under newParentID would
// make the folder its own ancestor. It walks the parent chain of
// newParentID upward; the walk is bounded by the folder count so a
// corrupted chain cannot loop forever.
func (t *FolderTree) WouldCycle(folderID uuid.UUID, newParentID *uuid.UUID) bool {
	cursor := newParentID
	for steps := 0; cursor != nil && steps <= len(t.Folders); steps++ {
		if *cursor == folderID {
			return true
		}
		parent, ok := t.Folders[*cursor]
		if !ok {
			return false
		}
		cursor = parent.ParentID
	}
	return false
}

// HasChildren reports whether any folder points at folderID as its parent.
func (t *FolderTree) HasChildren(folderID uuid.UUID) bool {
	for _, f := range t.Folders {
		if f.ParentID != nil && *f.ParentID == folderID {
			return true
		}
	}
	return false
}

// IsAssigned reports whether any tag is filed under folderID.
func (t *FolderTree) IsAssigned(folderID uuid.UUID) bool {
	for _, fid := range t.Assignments {
		if fid != nil && *fid == folderID {
			return true
		}
	}
	return false
}

// FolderCounts is the derived per-folder tag tally used for display.
type FolderCounts struct {
	// PerFolder holds, for every folder, the number of tags filed directly
	// in it plus everything filed in its descendant subtree.
	PerFolder map[uuid.UUID]int

	// RootTotal is the number of assigned tags overall, filed or unfiled.
	RootTotal int
}

// Counts computes subtree tag tallies for every folder. Counts are
// per-subtree: a tag filed three levels deep contributes to each of its
// three ancestors, and folders with nothing beneath them report 0.
func (t *FolderTree) Counts() FolderCounts {
	counts := FolderCounts{
		PerFolder: make(map[uuid.UUID]int, len(t.Folders)),
		RootTotal: len(t.Assignments),
	}
	for id := range t.Folders {
		counts.PerFolder[id] = 0
	}
	for _, fid := range t.Assignments {
		cursor := fid
		for steps := 0; cursor != nil && steps <= len(t.Folders); steps++ {
			f, ok := t.Folders[*cursor]
			if !ok {
				break
			}
			counts.PerFolder[*cursor]++
			cursor = f.ParentID
		}
	}
	return counts
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
