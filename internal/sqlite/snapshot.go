package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/grouptree/pkg/types"
)

// Snapshot errors. Both satisfy errors.Is(err, types.ErrValidation).
var (
	ErrInvalidSnapshot   = fmt.Errorf("%w: snapshot breaks the group hierarchy", types.ErrValidation)
	ErrSnapshotTruncated = fmt.Errorf("%w: snapshot is truncated", ErrInvalidSnapshot)
)

// SnapshotHeader is the first line of an exported snapshot.
type SnapshotHeader struct {
	SnapshotID string    `json:"snapshot_id"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
}

// snapshotLine decodes either a header or a group record.
type snapshotLine struct {
	SnapshotHeader
	types.Group
}

// Export writes every group to path as JSONL: one header line, then one
// line per group in ID order. The file is replaced atomically.
func (b *Backend) Export(ctx context.Context, path string) (SnapshotHeader, error) {
	groups, err := b.GetAllGroups(ctx)
	if err != nil {
		return SnapshotHeader{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return SnapshotHeader{}, fmt.Errorf("generating snapshot id: %w", err)
	}
	header := SnapshotHeader{SnapshotID: id.String(), ExportedAt: time.Now().UTC(), Count: len(groups)}

	if err := writeSnapshotFile(path, header, groups); err != nil {
		return SnapshotHeader{}, err
	}
	b.logger.Info("snapshot exported", "snapshot_id", header.SnapshotID, "count", header.Count, "path", path)
	return header, nil
}

// Import replaces every group with the records in the JSONL file at path,
// keeping their IDs. Malformed lines are skipped. The records must form a
// valid hierarchy on their own; otherwise nothing is written. The
// replacement is one transaction.
func (b *Backend) Import(ctx context.Context, path string) (int, error) {
	header, groups, err := readSnapshotFile(path)
	if err != nil {
		return 0, err
	}
	if header != nil && len(groups) < header.Count {
		return 0, fmt.Errorf("%w: want %d groups, found %d", ErrSnapshotTruncated, header.Count, len(groups))
	}
	if err := checkSnapshot(groups); err != nil {
		return 0, err
	}

	err = b.write(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM episode_groups"); err != nil {
			return fmt.Errorf("clearing groups: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO episode_groups (id, parent_id, name, group_type, display_order, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		now := timestamp()
		for _, g := range groups {
			if _, err := stmt.ExecContext(ctx, g.ID, nullableID(g.ParentID), g.Name, g.GroupType, g.DisplayOrder, now, now); err != nil {
				return fmt.Errorf("inserting group %d: %w", g.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	b.logger.Info("snapshot imported", "count", len(groups), "path", path)
	return len(groups), nil
}

// checkSnapshot applies the rules every writer keeps: a name and known
// type on each row, unique IDs, parents that exist and are folders, and
// parent chains that end at a root.
func checkSnapshot(groups []types.Group) error {
	byID := make(map[int64]types.Group, len(groups))
	for _, g := range groups {
		if g.Name == "" {
			return fmt.Errorf("group %d: %w", g.ID, types.ErrInvalidName)
		}
		if !types.ValidGroupType(g.GroupType) {
			return fmt.Errorf("group %d: %w", g.ID, types.ErrInvalidGroupType)
		}
		if _, dup := byID[g.ID]; dup {
			return fmt.Errorf("%w: group %d appears twice", ErrInvalidSnapshot, g.ID)
		}
		byID[g.ID] = g
	}

	for _, g := range groups {
		if g.ParentID == nil {
			continue
		}
		parent, ok := byID[*g.ParentID]
		if !ok {
			return fmt.Errorf("%w: group %d: parent %d is missing", ErrInvalidSnapshot, g.ID, *g.ParentID)
		}
		if !parent.IsFolder() {
			return fmt.Errorf("%w: group %d: %w", ErrInvalidSnapshot, g.ID, types.ErrInvalidParentType)
		}
	}

	rooted := make(map[int64]bool, len(groups))
	for _, g := range groups {
		seen := make(map[int64]bool)
		var chain []int64
		for cur := g; cur.ParentID != nil && !rooted[cur.ID]; cur = byID[*cur.ParentID] {
			if seen[cur.ID] {
				return fmt.Errorf("%w: group %d: %w", ErrInvalidSnapshot, g.ID, types.ErrCycleDetected)
			}
			seen[cur.ID] = true
			chain = append(chain, cur.ID)
		}
		for _, id := range chain {
			rooted[id] = true
		}
	}
	return nil
}
