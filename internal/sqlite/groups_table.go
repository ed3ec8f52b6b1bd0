package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/grouptree/pkg/types"
)

const selectGroupColumns = "SELECT id, parent_id, name, group_type, display_order FROM episode_groups"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (types.Group, error) {
	var (
		g      types.Group
		parent sql.NullInt64
	)
	if err := row.Scan(&g.ID, &parent, &g.Name, &g.GroupType, &g.DisplayOrder); err != nil {
		return types.Group{}, err
	}
	if parent.Valid {
		g.ParentID = &parent.Int64
	}
	return g, nil
}

func queryGroups(ctx context.Context, db *sql.DB, query string, args ...any) ([]types.Group, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close()

	groups := []types.Group{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// nullableID maps a parent reference to a SQL value.
func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// GetAllGroups returns every row in ID order.
func (b *Backend) GetAllGroups(ctx context.Context) ([]types.Group, error) {
	var groups []types.Group
	err := b.read(func(db *sql.DB) error {
		var err error
		groups, err = queryGroups(ctx, db, selectGroupColumns+" ORDER BY id")
		return err
	})
	return groups, err
}

// GetGroups returns the children of parentID, or the roots for nil.
func (b *Backend) GetGroups(ctx context.Context, parentID *int64) ([]types.Group, error) {
	var groups []types.Group
	err := b.read(func(db *sql.DB) error {
		var err error
		if parentID == nil {
			groups, err = queryGroups(ctx, db,
				selectGroupColumns+" WHERE parent_id IS NULL ORDER BY display_order, id")
		} else {
			groups, err = queryGroups(ctx, db,
				selectGroupColumns+" WHERE parent_id = ? ORDER BY display_order, id", *parentID)
		}
		return err
	})
	return groups, err
}

// GetGroupByID returns one group or ErrNotFound.
func (b *Backend) GetGroupByID(ctx context.Context, id int64) (*types.Group, error) {
	var g types.Group
	err := b.read(func(db *sql.DB) error {
		var err error
		g, err = scanGroup(db.QueryRowContext(ctx, selectGroupColumns+" WHERE id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("group %d: %w", id, types.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("getting group %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// FindAlbumGroups returns every album in ID order.
func (b *Backend) FindAlbumGroups(ctx context.Context) ([]types.Group, error) {
	var groups []types.Group
	err := b.read(func(db *sql.DB) error {
		var err error
		groups, err = queryGroups(ctx, db,
			selectGroupColumns+" WHERE group_type = ? ORDER BY id", types.GroupTypeAlbum)
		return err
	})
	return groups, err
}

// AddGroup inserts one row. The backend checks only what the table enforces
// (name present, known type); tree rules belong to the caller.
func (b *Backend) AddGroup(ctx context.Context, name string, parentID *int64, groupType string, displayOrder int) (*types.Group, error) {
	if name == "" {
		return nil, types.ErrInvalidName
	}
	if !types.ValidGroupType(groupType) {
		return nil, types.ErrInvalidGroupType
	}

	g := types.Group{ParentID: parentID, Name: name, GroupType: groupType, DisplayOrder: displayOrder}
	err := b.write(ctx, func(tx *sql.Tx) error {
		now := timestamp()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO episode_groups (parent_id, name, group_type, display_order, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			nullableID(parentID), name, groupType, displayOrder, now, now)
		if err != nil {
			return fmt.Errorf("inserting group: %w", err)
		}
		g.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.logger.Debug("group inserted", "group_id", g.ID)
	return &g, nil
}

// UpdateGroupParent reassigns the parent of one group.
func (b *Backend) UpdateGroupParent(ctx context.Context, id int64, newParentID *int64) error {
	return b.write(ctx, func(tx *sql.Tx) error {
		return updateOne(ctx, tx, id,
			"UPDATE episode_groups SET parent_id = ?, updated_at = ? WHERE id = ?",
			nullableID(newParentID), timestamp(), id)
	})
}

// UpdateGroupName renames one group.
func (b *Backend) UpdateGroupName(ctx context.Context, id int64, newName string) error {
	if newName == "" {
		return types.ErrInvalidName
	}
	return b.write(ctx, func(tx *sql.Tx) error {
		return updateOne(ctx, tx, id,
			"UPDATE episode_groups SET name = ?, updated_at = ? WHERE id = ?",
			newName, timestamp(), id)
	})
}

func updateOne(ctx context.Context, tx *sql.Tx, id int64, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating group %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %d: %w", id, types.ErrNotFound)
	}
	return nil
}

// UpdateOrders writes all display orders in one transaction. Unknown IDs
// are skipped.
func (b *Backend) UpdateOrders(ctx context.Context, updates []types.OrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return b.write(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"UPDATE episode_groups SET display_order = ?, updated_at = ? WHERE id = ?")
		if err != nil {
			return fmt.Errorf("preparing order update: %w", err)
		}
		defer stmt.Close()

		now := timestamp()
		for _, u := range updates {
			if _, err := stmt.ExecContext(ctx, u.DisplayOrder, now, u.ID); err != nil {
				return fmt.Errorf("updating order of group %d: %w", u.ID, err)
			}
		}
		return nil
	})
}

// DeleteGroups removes all listed rows in one transaction. Unknown IDs are
// skipped.
func (b *Backend) DeleteGroups(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return b.write(ctx, func(tx *sql.Tx) error {
		placeholders := make([]string, len(ids))
		args := make([]any, len(ids))
		for i, id := range ids {
			placeholders[i] = "?"
			args[i] = id
		}
		query := "DELETE FROM episode_groups WHERE id IN (" + strings.Join(placeholders, ",") + ")"
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("deleting groups: %w", err)
		}
		return nil
	})
}
