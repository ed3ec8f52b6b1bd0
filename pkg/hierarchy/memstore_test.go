package hierarchy

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mesh-intelligence/grouptree/pkg/types"
)

// memStore is an in-memory types.GroupStore for service tests. failOn makes
// the named operation return the given error.
type memStore struct {
	mu     sync.Mutex
	rows   []types.Group
	nextID int64
	failOn map[string]error
	writes []string // names of mutating calls, in order

	// hook runs at the start of each call, outside the lock.
	hook func(op string)
}

var _ types.GroupStore = (*memStore)(nil)

func newMemStore(rows ...types.Group) *memStore {
	s := &memStore{failOn: map[string]error{}, nextID: 1}
	for _, g := range rows {
		s.rows = append(s.rows, g)
		s.nextID = max(s.nextID, g.ID+1)
	}
	return s
}

func (s *memStore) enter(op string) error {
	if s.hook != nil {
		s.hook(op)
	}
	s.mu.Lock()
	return s.failOn[op]
}

func (s *memStore) GetAllGroups(ctx context.Context) ([]types.Group, error) {
	err := s.enter("GetAllGroups")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.rows), nil
}

func (s *memStore) GetGroups(ctx context.Context, parentID *int64) ([]types.Group, error) {
	err := s.enter("GetGroups")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []types.Group
	for _, g := range s.rows {
		if g.ChildOf(parentID) {
			out = append(out, g)
		}
	}
	slices.SortStableFunc(out, func(a, b types.Group) int {
		return cmp.Or(cmp.Compare(a.DisplayOrder, b.DisplayOrder), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *memStore) GetGroupByID(ctx context.Context, id int64) (*types.Group, error) {
	err := s.enter("GetGroupByID")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if i := s.indexLocked(id); i >= 0 {
		g := s.rows[i]
		return &g, nil
	}
	return nil, fmt.Errorf("group %d: %w", id, types.ErrNotFound)
}

func (s *memStore) FindAlbumGroups(ctx context.Context) ([]types.Group, error) {
	err := s.enter("FindAlbumGroups")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []types.Group
	for _, g := range s.rows {
		if g.IsAlbum() {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *memStore) AddGroup(ctx context.Context, name string, parentID *int64, groupType string, displayOrder int) (*types.Group, error) {
	err := s.enter("AddGroup")
	defer s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	g := types.Group{ID: s.nextID, ParentID: parentID, Name: name, GroupType: groupType, DisplayOrder: displayOrder}
	s.nextID++
	s.rows = append(s.rows, g)
	s.writes = append(s.writes, "AddGroup")
	return &g, nil
}

func (s *memStore) UpdateGroupParent(ctx context.Context, id int64, newParentID *int64) error {
	err := s.enter("UpdateGroupParent")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("group %d: %w", id, types.ErrNotFound)
	}
	s.rows[i].ParentID = newParentID
	s.writes = append(s.writes, "UpdateGroupParent")
	return nil
}

func (s *memStore) UpdateGroupName(ctx context.Context, id int64, newName string) error {
	err := s.enter("UpdateGroupName")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("group %d: %w", id, types.ErrNotFound)
	}
	s.rows[i].Name = newName
	s.writes = append(s.writes, "UpdateGroupName")
	return nil
}

func (s *memStore) UpdateOrders(ctx context.Context, updates []types.OrderUpdate) error {
	err := s.enter("UpdateOrders")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	for _, u := range updates {
		if i := s.indexLocked(u.ID); i >= 0 {
			s.rows[i].DisplayOrder = u.DisplayOrder
		}
	}
	s.writes = append(s.writes, "UpdateOrders")
	return nil
}

func (s *memStore) DeleteGroups(ctx context.Context, ids []int64) error {
	err := s.enter("DeleteGroups")
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	s.rows = slices.DeleteFunc(s.rows, func(g types.Group) bool {
		return slices.Contains(ids, g.ID)
	})
	s.writes = append(s.writes, "DeleteGroups")
	return nil
}

func (s *memStore) indexLocked(id int64) int {
	return slices.IndexFunc(s.rows, func(g types.Group) bool { return g.ID == id })
}

// group looks up a row directly, bypassing failure injection.
func (s *memStore) group(id int64) types.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[s.indexLocked(id)]
}

func (s *memStore) writeLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.writes)
}

// Fixture helpers.

func folder(id int64, parent *int64, order int) types.Group {
	return types.Group{ID: id, ParentID: parent, Name: fmt.Sprintf("folder-%d", id), GroupType: types.GroupTypeFolder, DisplayOrder: order}
}

func album(id int64, parent *int64, order int) types.Group {
	return types.Group{ID: id, ParentID: parent, Name: fmt.Sprintf("album-%d", id), GroupType: types.GroupTypeAlbum, DisplayOrder: order}
}

func ref(id int64) *int64 { return types.ParentRef(id) }

func ids(groups []types.Group) []int64 {
	out := make([]int64, len(groups))
	for i, g := range groups {
		out[i] = g.ID
	}
	return out
}

func nodeIDs(nodes []*TreeNode) []int64 {
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.Group.ID
	}
	return out
}
