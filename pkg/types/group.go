package types

import "strings"

// Group types. A folder may hold sub-groups; an album is terminal and holds
// episodes only.
const (
	GroupTypeFolder = "folder"
	GroupTypeAlbum  = "album"
)

// validGroupTypes is the set of recognized group type values.
var validGroupTypes = map[string]bool{
	GroupTypeFolder: true,
	GroupTypeAlbum:  true,
}

// Group is one persisted node of the hierarchy. The parent relation is held
// only as an ID reference; a nil ParentID marks a root.
type Group struct {
	ID           int64  `json:"id"`
	ParentID     *int64 `json:"parent_id"`
	Name         string `json:"name"`
	GroupType    string `json:"group_type"`
	DisplayOrder int    `json:"display_order"` // meaningful only among siblings
}

// OrderUpdate pairs a group ID with its new sibling rank.
type OrderUpdate struct {
	ID           int64 `json:"id"`
	DisplayOrder int   `json:"display_order"`
}

// IsRoot reports whether the group has no parent.
func (g Group) IsRoot() bool {
	return g.ParentID == nil
}

// IsAlbum reports whether the group is terminal.
func (g Group) IsAlbum() bool {
	return g.GroupType == GroupTypeAlbum
}

// IsFolder reports whether the group may hold sub-groups.
func (g Group) IsFolder() bool {
	return g.GroupType == GroupTypeFolder
}

// ChildOf reports whether g sits directly under parentID (nil = root level).
func (g Group) ChildOf(parentID *int64) bool {
	return SameParent(g.ParentID, parentID)
}

// ValidGroupType reports whether t is folder or album.
func ValidGroupType(t string) bool {
	return validGroupTypes[t]
}

// ValidateName trims surrounding whitespace and returns the cleaned name.
// Returns ErrInvalidName if nothing is left.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

// ParentRef returns a pointer to id, for building ParentID values.
func ParentRef(id int64) *int64 {
	return &id
}

// SameParent compares two parent references; two nils are equal.
func SameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
