package hierarchy

import (
	"context"
	"sync"
)

// scope names a set of writes that must not interleave: one sibling set
// (keyed by parent ID, or the root level), or the structure of the whole
// forest.
type scope struct {
	kind scopeKind
	id   int64
}

type scopeKind int

const (
	scopeRoot scopeKind = iota
	scopeParent
	scopeStructure
)

// structureScope is held by every write that can change the parent
// relation. Cycle checks read the whole forest, so they need it stable.
var structureScope = scope{kind: scopeStructure}

// siblingScope returns the scope of the sibling set under parentID.
func siblingScope(parentID *int64) scope {
	if parentID == nil {
		return scope{kind: scopeRoot}
	}
	return scope{kind: scopeParent, id: *parentID}
}

// scopeGuard lets at most one operation hold a given scope. An operation
// takes all its scopes at once or waits, so two operations can never each
// hold half of what the other needs.
type scopeGuard struct {
	mu   sync.Mutex
	held map[scope]chan struct{}
}

func newScopeGuard() *scopeGuard {
	return &scopeGuard{held: make(map[scope]chan struct{})}
}

// acquire blocks until every scope in scopes is free, then holds them all.
// Returns ctx.Err() if ctx ends first. The returned release must be called
// exactly once.
func (g *scopeGuard) acquire(ctx context.Context, scopes ...scope) (release func(), err error) {
	for {
		g.mu.Lock()
		busy := g.firstBusyLocked(scopes)
		if busy == nil {
			done := make(chan struct{})
			for _, s := range scopes {
				g.held[s] = done
			}
			g.mu.Unlock()
			return func() { g.release(scopes, done) }, nil
		}
		g.mu.Unlock()

		select {
		case <-busy:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (g *scopeGuard) firstBusyLocked(scopes []scope) chan struct{} {
	for _, s := range scopes {
		if ch, ok := g.held[s]; ok {
			return ch
		}
	}
	return nil
}

func (g *scopeGuard) release(scopes []scope, done chan struct{}) {
	g.mu.Lock()
	for _, s := range scopes {
		if g.held[s] == done {
			delete(g.held, s)
		}
	}
	g.mu.Unlock()
	close(done)
}
