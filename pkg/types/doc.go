// Package types defines the Group entity, the GroupStore and Backend
// interfaces, and the standard error values shared by the hierarchy engine,
// the navigator, and the storage backends.
//
// Groups are persisted as flat rows with a parent reference. Nothing in this
// package builds trees; see package hierarchy for that.
package types
