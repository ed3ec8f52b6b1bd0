// Package hierarchy is the group hierarchy engine. It rebuilds tree views
// from flat parent-pointer rows, resolves descendant sets for cycle
// prevention, and validates and applies moves, adds, renames, reorders, and
// deletes through a types.GroupStore.
//
// Trees returned here are snapshots. Any mutation makes them stale; callers
// re-fetch instead of patching them.
package hierarchy
