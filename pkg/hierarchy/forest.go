package hierarchy

import (
	"sort"

	"github.com/mesh-intelligence/grouptree/pkg/types"
)

// TreeNode is a group with its children, ordered by DisplayOrder.
type TreeNode struct {
	Group    types.Group `json:"group"`
	Children []*TreeNode `json:"children"`
}

// Walk visits n and its subtree depth-first, parents before children.
// depth is 0 for n itself.
func (n *TreeNode) Walk(fn func(node *TreeNode, depth int)) {
	n.walk(fn, 0)
}

func (n *TreeNode) walk(fn func(*TreeNode, int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// BuildForest assembles the root-level trees from an unordered flat
// collection. Children are sorted by DisplayOrder, ties kept in input order.
//
// Rows whose parent does not exist are orphans and are left out, as are
// rows only reachable through a parent cycle. Album rows that wrongly have
// children still get them attached; the album-leaf rule is enforced on
// write, not here.
func BuildForest(rows []types.Group) []*TreeNode {
	children := make(map[int64][]int, len(rows))
	var roots []int
	for i, g := range rows {
		if g.ParentID == nil {
			roots = append(roots, i)
			continue
		}
		children[*g.ParentID] = append(children[*g.ParentID], i)
	}

	// attached guards against duplicate IDs re-entering a subtree.
	attached := make([]bool, len(rows))
	var build func(idx int) *TreeNode
	build = func(idx int) *TreeNode {
		attached[idx] = true
		node := &TreeNode{Group: rows[idx]}
		for _, c := range sortByOrder(rows, children[rows[idx].ID]) {
			if attached[c] {
				continue
			}
			node.Children = append(node.Children, build(c))
		}
		return node
	}

	forest := make([]*TreeNode, 0, len(roots))
	for _, r := range sortByOrder(rows, roots) {
		forest = append(forest, build(r))
	}
	return forest
}

// sortByOrder returns idx sorted by the DisplayOrder of the rows it points
// at. The input slice is not modified.
func sortByOrder(rows []types.Group, idx []int) []int {
	if len(idx) < 2 {
		return idx
	}
	sorted := make([]int, len(idx))
	copy(sorted, idx)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rows[sorted[i]].DisplayOrder < rows[sorted[j]].DisplayOrder
	})
	return sorted
}

// FindOrphans returns the rows whose ParentID references a group that is
// not in rows, in input order. BuildForest drops these rows.
func FindOrphans(rows []types.Group) []types.Group {
	ids := make(map[int64]struct{}, len(rows))
	for _, g := range rows {
		ids[g.ID] = struct{}{}
	}
	var orphans []types.Group
	for _, g := range rows {
		if g.ParentID == nil {
			continue
		}
		if _, ok := ids[*g.ParentID]; !ok {
			orphans = append(orphans, g)
		}
	}
	return orphans
}

// indexByID maps group IDs to rows. On duplicate IDs the first row wins.
func indexByID(rows []types.Group) map[int64]types.Group {
	byID := make(map[int64]types.Group, len(rows))
	for _, g := range rows {
		if _, ok := byID[g.ID]; !ok {
			byID[g.ID] = g
		}
	}
	return byID
}
