package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/grouptree/pkg/types"
)

func sampleRows() []types.Group {
	return []types.Group{
		folder(1, nil, 0),
		folder(2, ref(1), 0),
		folder(3, ref(2), 0),
		album(4, ref(3), 0),
		album(5, ref(1), 1),
		folder(6, nil, 1),
		album(7, ref(6), 0),
	}
}

func TestDescendantIDs(t *testing.T) {
	tests := []struct {
		name   string
		rows   []types.Group
		target int64
		want   []int64
	}{
		{name: "whole subtree", rows: sampleRows(), target: 1, want: []int64{2, 3, 4, 5}},
		{name: "inner folder", rows: sampleRows(), target: 2, want: []int64{3, 4}},
		{name: "leaf has none", rows: sampleRows(), target: 4, want: []int64{}},
		{name: "unknown target has none", rows: sampleRows(), target: 42, want: []int64{}},
		{name: "empty rows", rows: nil, target: 1, want: []int64{}},
		{
			name:   "cycle through the target excludes the target",
			rows:   []types.Group{folder(1, ref(3), 0), folder(2, ref(1), 0), folder(3, ref(2), 0)},
			target: 1,
			want:   []int64{2, 3},
		},
		{
			name:   "cycle below the target terminates",
			rows:   []types.Group{folder(1, nil, 0), folder(2, ref(1), 0), folder(3, ref(4), 0), folder(4, ref(3), 0), folder(5, ref(2), 0)},
			target: 1,
			want:   []int64{2, 5},
		},
		{
			name:   "self-parented row",
			rows:   []types.Group{folder(1, ref(1), 0), album(2, ref(1), 0)},
			target: 1,
			want:   []int64{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DescendantIDs(tt.rows, tt.target)
			assert.Equal(t, tt.want, SortedIDs(got))
		})
	}
}

func TestDescendantIDsContainsEveryReachableRow(t *testing.T) {
	rows := sampleRows()
	byID := indexByID(rows)

	// For every pair (a, b) with b reachable from a via parent links,
	// b must be in a's descendant set.
	for _, b := range rows {
		seen := map[int64]bool{}
		for p := b.ParentID; p != nil && !seen[*p]; {
			seen[*p] = true
			got := DescendantIDs(rows, *p)
			assert.Contains(t, got, b.ID, "%d should descend from %d", b.ID, *p)
			p = byID[*p].ParentID
		}
	}
}

func TestAncestorPath(t *testing.T) {
	t.Run("root to leaf", func(t *testing.T) {
		path, err := AncestorPath(sampleRows(), 4)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3, 4}, ids(path))
	})

	t.Run("root alone", func(t *testing.T) {
		path, err := AncestorPath(sampleRows(), 6)
		require.NoError(t, err)
		assert.Equal(t, []int64{6}, ids(path))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := AncestorPath(sampleRows(), 99)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("dangling ancestor", func(t *testing.T) {
		rows := []types.Group{folder(2, ref(50), 0), album(3, ref(2), 0)}
		_, err := AncestorPath(rows, 3)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("looping chain", func(t *testing.T) {
		rows := []types.Group{folder(1, ref(2), 0), folder(2, ref(1), 0), album(3, ref(1), 0)}
		_, err := AncestorPath(rows, 3)
		assert.ErrorIs(t, err, types.ErrCycleDetected)
	})

	t.Run("each entry is a child of the one before", func(t *testing.T) {
		path, err := AncestorPath(sampleRows(), 4)
		require.NoError(t, err)
		assert.Nil(t, path[0].ParentID)
		for i := 1; i < len(path); i++ {
			require.NotNil(t, path[i].ParentID)
			assert.Equal(t, path[i-1].ID, *path[i].ParentID)
		}
	})
}
