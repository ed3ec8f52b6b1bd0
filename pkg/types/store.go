package types

import (
	"context"
	"errors"
)

// GroupStore is the persistence contract the hierarchy engine relies on.
// Implementations hold groups as flat rows; they never build trees.
type GroupStore interface {
	// GetAllGroups returns every group as a flat collection.
	GetAllGroups(ctx context.Context) ([]Group, error)

	// GetGroups returns the immediate children of parentID, or the roots
	// when parentID is nil, ordered by DisplayOrder then ID.
	GetGroups(ctx context.Context, parentID *int64) ([]Group, error)

	// GetGroupByID returns the group with the given ID.
	// Returns ErrNotFound if no such group exists.
	GetGroupByID(ctx context.Context, id int64) (*Group, error)

	// FindAlbumGroups returns all album groups regardless of parent.
	FindAlbumGroups(ctx context.Context) ([]Group, error)

	// AddGroup inserts a new group and returns it with its assigned ID.
	AddGroup(ctx context.Context, name string, parentID *int64, groupType string, displayOrder int) (*Group, error)

	// UpdateGroupParent reassigns the parent of one group.
	// Returns ErrNotFound if the group does not exist.
	UpdateGroupParent(ctx context.Context, id int64, newParentID *int64) error

	// UpdateGroupName renames one group.
	// Returns ErrNotFound if the group does not exist.
	UpdateGroupName(ctx context.Context, id int64, newName string) error

	// UpdateOrders writes all display orders in one atomic batch.
	UpdateOrders(ctx context.Context, updates []OrderUpdate) error

	// DeleteGroups removes all listed groups in one atomic batch.
	DeleteGroups(ctx context.Context, ids []int64) error
}

// Backend is a GroupStore with an attach/detach lifecycle. Callers attach
// to a data directory, use the store, and detach when done.
type Backend interface {
	GroupStore

	// Attach opens the backend described by config. Creates the DataDir if
	// it does not exist. Returns ErrAlreadyAttached if already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, store operations return ErrBackendDetached.
	Detach() error
}

// Backend lifecycle errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
	ErrBackendLocked   = errors.New("data directory is locked by another writer")
)
