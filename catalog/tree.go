package catalog

import (
	"cubecubic/models"
)

// Tree is a parent to children index over a fixed album list.
type Tree struct {
	albums   []models.Album
	byID     map[models.ID]models.Album
	children map[models.ID][]models.ID
}

func NewTree(albums []models.Album) *Tree {
	t := &Tree{
		albums:   albums,
		byID:     make(map[models.ID]models.Album, len(albums)),
		children: make(map[models.ID][]models.ID),
	}
	for _, a := range albums {
		t.byID[a.ID] = a
		t.children[a.ParentID] = append(t.children[a.ParentID], a.ID)
	}
	return t
}

func (t *Tree) Album(id models.ID) (models.Album, bool) {
	a, ok := t.byID[id]
	return a, ok
}

func (t *Tree) Has(id models.ID) bool {
	_, ok := t.byID[id]
	return ok
}

// Children returns the direct sub-albums of id in document order. An empty id
// yields the top-level albums.
func (t *Tree) Children(id models.ID) []models.Album {
	ids := t.children[id]
	out := make([]models.Album, 0, len(ids))
	for _, cid := range ids {
		out = append(out, t.byID[cid])
	}
	return out
}

// Roots returns albums with no parent, plus albums whose parent no longer
// exists so that nothing becomes unreachable in menus.
func (t *Tree) Roots() []models.Album {
	var out []models.Album
	for _, a := range t.albums {
		if a.IsRoot() || !t.Has(a.ParentID) {
			out = append(out, a)
		}
	}
	return out
}

// DescendantIDs returns every album reachable below id, depth first. The
// result never contains id itself, even when the stored graph has a cycle.
func (t *Tree) DescendantIDs(id models.ID) []models.ID {
	var out []models.ID
	seen := map[models.ID]bool{id: true}

	var walk func(models.ID)
	walk = func(parent models.ID) {
		for _, cid := range t.children[parent] {
			if seen[cid] {
				continue
			}
			seen[cid] = true
			out = append(out, cid)
			walk(cid)
		}
	}
	if id != "" {
		walk(id)
	}
	return out
}

// SubtreeIDs is id plus its descendants, as a set.
func (t *Tree) SubtreeIDs(id models.ID) map[models.ID]bool {
	set := map[models.ID]bool{id: true}
	for _, d := range t.DescendantIDs(id) {
		set[d] = true
	}
	return set
}

// TrackCount counts tracks assigned to id or to any of its descendants.
func (t *Tree) TrackCount(tracks []models.Track, id models.ID) int {
	set := t.SubtreeIDs(id)
	n := 0
	for _, tr := range tracks {
		if tr.AlbumID != "" && set[tr.AlbumID] {
			n++
		}
	}
	return n
}

// IsValidParent reports whether parentID may become the parent of id.
func (t *Tree) IsValidParent(id, parentID models.ID) bool {
	if parentID == "" {
		return true
	}
	if parentID == id {
		return false
	}
	for _, d := range t.DescendantIDs(id) {
		if d == parentID {
			return false
		}
	}
	return true
}

// SiblingNameConflict reports whether an album other than excludeID already
// uses name under parentID.
func SiblingNameConflict(albums []models.Album, name string, parentID, excludeID models.ID) bool {
	for _, a := range albums {
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		if a.Name == name && a.ParentID == parentID {
			return true
		}
	}
	return false
}
