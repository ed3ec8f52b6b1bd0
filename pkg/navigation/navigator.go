// Package navigation tracks the user's position in the group hierarchy as a
// breadcrumb path and derives the route that addresses it.
package navigation

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/mesh-intelligence/grouptree/pkg/types"
)

// Navigator holds the breadcrumb path from the root to the current group.
// An empty path is the root view. All transitions are synchronous and
// mutually atomic; a Navigator is safe for concurrent use.
type Navigator struct {
	mu   sync.Mutex
	path []types.Group
}

// New returns a Navigator at the root view.
func New() *Navigator {
	return &Navigator{}
}

// Path returns a copy of the current breadcrumb path.
func (n *Navigator) Path() []types.Group {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]types.Group(nil), n.path...)
}

// Len returns the number of groups on the path.
func (n *Navigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.path)
}

// Current returns a copy of the last group on the path, or nil at the root
// view.
func (n *Navigator) Current() *types.Group {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.currentLocked()
}

func (n *Navigator) currentLocked() *types.Group {
	if len(n.path) == 0 {
		return nil
	}
	g := n.path[len(n.path)-1]
	return &g
}

// URL returns the route for the current position. An album is addressed on
// its own as /episode-list/<id>; anything else joins every path ID under
// the root, and the root view is "/".
func (n *Navigator) URL() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if cur := n.currentLocked(); cur != nil && cur.IsAlbum() {
		return EpisodeListURL(cur.ID)
	}
	segments := make([]string, len(n.path))
	for i, g := range n.path {
		segments[i] = strconv.FormatInt(g.ID, 10)
	}
	return "/" + strings.Join(segments, "/")
}

// SetPath replaces the whole path, e.g. with a parent chain fetched for a
// deep link. The path is taken as given.
func (n *Navigator) SetPath(path []types.Group) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = append([]types.Group(nil), path...)
}

// PushGroup appends g to the path. The caller guarantees that g is a child
// of the current group (or a root at the root view); see PushChild for the
// checked variant.
func (n *Navigator) PushGroup(g types.Group) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = append(n.path, g)
}

// PushChild appends g only if its parent is the current group, or if it is
// a root and the path is empty. Returns ErrNotChildOfCurrent otherwise and
// leaves the path unchanged.
func (n *Navigator) PushChild(g types.Group) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var want *int64
	if cur := n.currentLocked(); cur != nil {
		want = &cur.ID
	}
	if !g.ChildOf(want) {
		return fmt.Errorf("group %d: %w", g.ID, types.ErrNotChildOfCurrent)
	}
	n.path = append(n.path, g)
	return nil
}

// PopTo truncates the path so index is the last element. A negative index
// clears the path, like PopToRoot. It reports whether the path changed:
// false when index is already the last element, or lies past it.
func (n *Navigator) PopTo(index int) bool {
	if index < 0 {
		return n.PopToRoot()
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if index >= len(n.path)-1 {
		return false
	}
	n.path = n.path[:index+1:index+1]
	return true
}

// PopToRoot clears the path. It reports whether the path changed, so it is
// false on an already empty path.
func (n *Navigator) PopToRoot() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.path) == 0 {
		return false
	}
	n.path = nil
	return true
}

// Reset clears the path unconditionally.
func (n *Navigator) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = nil
}
