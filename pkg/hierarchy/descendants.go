package hierarchy

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/grouptree/pkg/types"
)

// DescendantIDs returns every ID reachable from targetID by following child
// links through rows. targetID itself is never included, even when a cycle
// leads back to it. Terminates on cyclic data.
func DescendantIDs(rows []types.Group, targetID int64) map[int64]struct{} {
	children := make(map[int64][]int64, len(rows))
	for _, g := range rows {
		if g.ParentID != nil {
			children[*g.ParentID] = append(children[*g.ParentID], g.ID)
		}
	}

	found := make(map[int64]struct{})
	stack := append([]int64(nil), children[targetID]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == targetID {
			continue
		}
		if _, seen := found[id]; seen {
			continue
		}
		found[id] = struct{}{}
		stack = append(stack, children[id]...)
	}
	return found
}

// SortedIDs returns the members of an ID set in ascending order.
func SortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// AncestorPath returns the chain of groups from the root down to id,
// inclusive. Returns ErrNotFound if id or any ancestor is missing from rows
// and ErrCycleDetected if the parent chain loops.
func AncestorPath(rows []types.Group, id int64) ([]types.Group, error) {
	byID := indexByID(rows)

	var chain []types.Group
	seen := make(map[int64]bool)
	next := &id
	for next != nil {
		if seen[*next] {
			return nil, fmt.Errorf("group %d: %w", id, types.ErrCycleDetected)
		}
		seen[*next] = true

		g, ok := byID[*next]
		if !ok {
			return nil, fmt.Errorf("group %d: %w", *next, types.ErrNotFound)
		}
		chain = append(chain, g)
		next = g.ParentID
	}

	slices.Reverse(chain)
	return chain, nil
}
