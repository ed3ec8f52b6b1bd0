package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/grouptree/pkg/types"
)

// Service runs hierarchy operations against a GroupStore. It is safe for
// concurrent use: writes that touch the same sibling set, or that change the
// parent relation, are serialized by an in-flight guard. Reads are not
// guarded.
type Service struct {
	store  types.GroupStore
	logger *slog.Logger
	guard  *scopeGuard
}

// NewService returns a Service backed by store. A nil logger discards logs.
func NewService(store types.GroupStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:  store,
		logger: logger.With("component", "hierarchy"),
		guard:  newScopeGuard(),
	}
}

// MoveGroup re-parents group under newParentID (nil moves it to the root
// level). Validation runs before any write, in this order: self-parenting
// (ErrSelfParent), moving under a descendant (ErrCyclicMove), then a missing
// (ErrNotFound) or non-folder (ErrInvalidParentType) target.
//
// On success exactly one row changes. The returned slice is the refreshed
// listing of the sibling set the group left, keyed by group.ParentID as the
// caller passed it.
func (s *Service) MoveGroup(ctx context.Context, group types.Group, newParentID *int64) ([]types.Group, error) {
	if newParentID != nil && *newParentID == group.ID {
		s.logger.Debug("move rejected", "group_id", group.ID, "reason", types.ErrSelfParent)
		return nil, types.ErrSelfParent
	}

	release, err := s.guard.acquire(ctx, structureScope, siblingScope(group.ParentID), siblingScope(newParentID))
	if err != nil {
		return nil, err
	}
	defer release()

	if newParentID != nil {
		all, err := s.store.GetAllGroups(ctx)
		if err != nil {
			return nil, types.WrapPersistence("get all groups", err)
		}
		if _, ok := DescendantIDs(all, group.ID)[*newParentID]; ok {
			s.logger.Debug("move rejected", "group_id", group.ID, "parent_id", *newParentID, "reason", types.ErrCyclicMove)
			return nil, types.ErrCyclicMove
		}
		parent, ok := indexByID(all)[*newParentID]
		if !ok {
			return nil, fmt.Errorf("parent %d: %w", *newParentID, types.ErrNotFound)
		}
		if !parent.IsFolder() {
			s.logger.Debug("move rejected", "group_id", group.ID, "parent_id", *newParentID, "reason", types.ErrInvalidParentType)
			return nil, types.ErrInvalidParentType
		}
	}

	if err := s.store.UpdateGroupParent(ctx, group.ID, newParentID); err != nil {
		return nil, types.WrapPersistence("update group parent", err)
	}
	s.logger.Info("group moved", "group_id", group.ID, "from", parentAttr(group.ParentID), "to", parentAttr(newParentID))

	remaining, err := s.store.GetGroups(ctx, group.ParentID)
	if err != nil {
		return nil, types.WrapPersistence("get groups", err)
	}
	return remaining, nil
}

// Reorder assigns DisplayOrder = index to each group and persists all pairs
// in one batch. It trusts the caller to pass exactly one sibling set; see
// ReorderSiblings for the checked variant. Reordering the same sequence
// twice leaves the same state.
func (s *Service) Reorder(ctx context.Context, ordered []types.Group) error {
	if len(ordered) == 0 {
		return nil
	}

	release, err := s.guard.acquire(ctx, parentScopes(ordered)...)
	if err != nil {
		return err
	}
	defer release()

	updates := make([]types.OrderUpdate, len(ordered))
	for i, g := range ordered {
		updates[i] = types.OrderUpdate{ID: g.ID, DisplayOrder: i}
	}
	if err := s.store.UpdateOrders(ctx, updates); err != nil {
		return types.WrapPersistence("update orders", err)
	}
	s.logger.Info("groups reordered", "count", len(updates), "parent_id", parentAttr(ordered[0].ParentID))
	return nil
}

// ReorderSiblings is Reorder with the same-parent precondition checked.
// Returns ErrMixedSiblings, before any write, if the groups do not all share
// one parent.
func (s *Service) ReorderSiblings(ctx context.Context, ordered []types.Group) error {
	for _, g := range ordered[min(1, len(ordered)):] {
		if !types.SameParent(g.ParentID, ordered[0].ParentID) {
			return fmt.Errorf("group %d: %w", g.ID, types.ErrMixedSiblings)
		}
	}
	return s.Reorder(ctx, ordered)
}

// AddGroup creates a group after the existing siblings under parentID and
// returns the refreshed listing of that parent. The name is trimmed. The
// parent, when given, must exist and be a folder.
func (s *Service) AddGroup(ctx context.Context, name string, parentID *int64, groupType string) ([]types.Group, error) {
	name, err := types.ValidateName(name)
	if err != nil {
		return nil, err
	}
	if !types.ValidGroupType(groupType) {
		return nil, types.ErrInvalidGroupType
	}

	release, err := s.guard.acquire(ctx, structureScope, siblingScope(parentID))
	if err != nil {
		return nil, err
	}
	defer release()

	if parentID != nil {
		parent, err := s.store.GetGroupByID(ctx, *parentID)
		if err != nil {
			return nil, types.WrapPersistence("get group", err)
		}
		if !parent.IsFolder() {
			return nil, types.ErrInvalidParentType
		}
	}

	siblings, err := s.store.GetGroups(ctx, parentID)
	if err != nil {
		return nil, types.WrapPersistence("get groups", err)
	}

	g, err := s.store.AddGroup(ctx, name, parentID, groupType, nextDisplayOrder(siblings))
	if err != nil {
		return nil, types.WrapPersistence("add group", err)
	}
	s.logger.Info("group added", "group_id", g.ID, "parent_id", parentAttr(parentID), "type", groupType)

	listing, err := s.store.GetGroups(ctx, parentID)
	if err != nil {
		return nil, types.WrapPersistence("get groups", err)
	}
	return listing, nil
}

// nextDisplayOrder places a new group after its siblings: 0 for the first
// child, otherwise one past the largest existing order.
func nextDisplayOrder(siblings []types.Group) int {
	if len(siblings) == 0 {
		return 0
	}
	highest := siblings[0].DisplayOrder
	for _, g := range siblings[1:] {
		highest = max(highest, g.DisplayOrder)
	}
	return highest + 1
}

// RenameGroup renames one group and returns the rebuilt forest.
func (s *Service) RenameGroup(ctx context.Context, id int64, newName string) ([]*TreeNode, error) {
	name, err := types.ValidateName(newName)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetGroupByID(ctx, id); err != nil {
		return nil, types.WrapPersistence("get group", err)
	}
	if err := s.store.UpdateGroupName(ctx, id, name); err != nil {
		return nil, types.WrapPersistence("update group name", err)
	}
	s.logger.Info("group renamed", "group_id", id)
	return s.Tree(ctx)
}

// DeleteGroupRecursive removes group and every descendant in one batch.
// Returns the deleted IDs, group.ID first.
func (s *Service) DeleteGroupRecursive(ctx context.Context, group types.Group) ([]int64, error) {
	release, err := s.guard.acquire(ctx, structureScope, siblingScope(group.ParentID))
	if err != nil {
		return nil, err
	}
	defer release()

	all, err := s.store.GetAllGroups(ctx)
	if err != nil {
		return nil, types.WrapPersistence("get all groups", err)
	}
	if _, ok := indexByID(all)[group.ID]; !ok {
		return nil, fmt.Errorf("group %d: %w", group.ID, types.ErrNotFound)
	}

	ids := append([]int64{group.ID}, SortedIDs(DescendantIDs(all, group.ID))...)
	if err := s.store.DeleteGroups(ctx, ids); err != nil {
		return nil, types.WrapPersistence("delete groups", err)
	}
	s.logger.Info("groups deleted", "group_id", group.ID, "count", len(ids))
	return ids, nil
}

// ListChildren returns the direct children of parentID (nil = roots).
func (s *Service) ListChildren(ctx context.Context, parentID *int64) ([]types.Group, error) {
	groups, err := s.store.GetGroups(ctx, parentID)
	if err != nil {
		return nil, types.WrapPersistence("get groups", err)
	}
	return groups, nil
}

// Tree returns the full forest. Orphaned rows are left out and logged.
func (s *Service) Tree(ctx context.Context) ([]*TreeNode, error) {
	all, err := s.store.GetAllGroups(ctx)
	if err != nil {
		return nil, types.WrapPersistence("get all groups", err)
	}
	for _, o := range FindOrphans(all) {
		s.logger.Warn("orphaned group left out of tree", "group_id", o.ID, "parent_id", *o.ParentID)
	}
	return BuildForest(all), nil
}

// AlbumTree returns the forest pruned to albums and the folders leading to
// them. Branches without any album are dropped.
func (s *Service) AlbumTree(ctx context.Context) ([]*TreeNode, error) {
	all, err := s.store.GetAllGroups(ctx)
	if err != nil {
		return nil, types.WrapPersistence("get all groups", err)
	}
	byID := indexByID(all)

	keep := make(map[int64]bool)
	for _, g := range all {
		if !g.IsAlbum() {
			continue
		}
		// Walk up until an already-kept ancestor, a root, or a loop.
		for cur, ok := g, true; ok && !keep[cur.ID]; {
			keep[cur.ID] = true
			if cur.ParentID == nil {
				break
			}
			cur, ok = byID[*cur.ParentID]
		}
	}

	pruned := make([]types.Group, 0, len(keep))
	for _, g := range all {
		if keep[g.ID] {
			pruned = append(pruned, g)
		}
	}
	return BuildForest(pruned), nil
}

// AvailableParents returns the folder forest a group may be moved under:
// group itself and its descendants are excluded. A nil group (e.g. choosing
// a parent for a new group) leaves every folder available.
func (s *Service) AvailableParents(ctx context.Context, group *types.Group) ([]*TreeNode, error) {
	all, err := s.store.GetAllGroups(ctx)
	if err != nil {
		return nil, types.WrapPersistence("get all groups", err)
	}

	excluded := map[int64]struct{}{}
	if group != nil {
		excluded = DescendantIDs(all, group.ID)
		excluded[group.ID] = struct{}{}
	}

	folders := make([]types.Group, 0, len(all))
	for _, g := range all {
		if _, skip := excluded[g.ID]; skip || !g.IsFolder() {
			continue
		}
		folders = append(folders, g)
	}
	return BuildForest(folders), nil
}

// EpisodeMoveTargets lists every album except currentAlbumID, for moving an
// episode out of its album.
func (s *Service) EpisodeMoveTargets(ctx context.Context, currentAlbumID int64) ([]types.Group, error) {
	albums, err := s.store.FindAlbumGroups(ctx)
	if err != nil {
		return nil, types.WrapPersistence("find album groups", err)
	}
	targets := make([]types.Group, 0, len(albums))
	for _, a := range albums {
		if a.ID != currentAlbumID {
			targets = append(targets, a)
		}
	}
	return targets, nil
}

// PathTo returns the breadcrumb path from the root down to id, for seeding
// a navigator from a deep link. Returns ErrNotFound if id or an ancestor is
// missing and ErrCycleDetected on a looping parent chain.
func (s *Service) PathTo(ctx context.Context, id int64) ([]types.Group, error) {
	all, err := s.store.GetAllGroups(ctx)
	if err != nil {
		return nil, types.WrapPersistence("get all groups", err)
	}
	return AncestorPath(all, id)
}

// GroupOrNil looks up one group for display prefetching. Lookup failures of
// any kind degrade to nil; they are logged, never returned.
func (s *Service) GroupOrNil(ctx context.Context, id int64) *types.Group {
	g, err := s.store.GetGroupByID(ctx, id)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			s.logger.Debug("group lookup failed", "group_id", id, "error", err)
		}
		return nil
	}
	return g
}

// parentScopes returns the distinct sibling scopes of groups.
func parentScopes(groups []types.Group) []scope {
	seen := make(map[scope]bool)
	var scopes []scope
	for _, g := range groups {
		sc := siblingScope(g.ParentID)
		if !seen[sc] {
			seen[sc] = true
			scopes = append(scopes, sc)
		}
	}
	return scopes
}

// parentAttr renders a parent reference for log attributes.
func parentAttr(parentID *int64) any {
	if parentID == nil {
		return "root"
	}
	return *parentID
}
