package sqlite

// Schema DDL. parent_id has no foreign key; readers must cope with rows
// whose parent is missing.
const (
	createEpisodeGroups = `CREATE TABLE IF NOT EXISTS episode_groups (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    parent_id INTEGER,
    name TEXT NOT NULL,
    group_type TEXT NOT NULL CHECK (group_type IN ('folder', 'album')),
    display_order INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	idxGroupsParentOrder = `CREATE INDEX IF NOT EXISTS idx_episode_groups_parent_order ON episode_groups(parent_id, display_order);`
	idxGroupsType        = `CREATE INDEX IF NOT EXISTS idx_episode_groups_type ON episode_groups(group_type);`
)

// schemaDDL lists all statements in the order they must run.
var schemaDDL = []string{
	createEpisodeGroups,
	idxGroupsParentOrder,
	idxGroupsType,
}

// pragmas applied on every Attach.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout = 5000",
}
