// Package sqlite implements the SQLite storage backend for grouptree.
// Groups live in one flat table keyed by an autoincrement ID; the parent
// relation is a plain nullable column. A file lock on the data directory
// keeps a second process from writing the same store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/grouptree/pkg/types"
)

// File names inside the data directory.
const (
	dbFileName   = "grouptree.db"
	lockFileName = "grouptree.lock"
)

// Backend implements types.Backend on top of SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	lock     *flock.Flock
	logger   *slog.Logger
}

var _ types.Backend = (*Backend)(nil)

// NewBackend creates a new SQLite backend instance. The backend is not
// attached; call Attach with a Config to initialize. A nil logger discards
// logs.
func NewBackend(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{logger: logger.With("component", "sqlite")}
}

// Attach opens (or creates) the database in config.DataDir and applies the
// schema. Returns ErrAlreadyAttached if already attached and
// ErrBackendLocked if another process holds the data directory.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", dataDir, types.ErrBackendLocked)
	}

	db, err := openDB(filepath.Join(dataDir, dbFileName))
	if err != nil {
		_ = lock.Unlock()
		return err
	}

	b.db = db
	b.lock = lock
	b.config = config
	b.attached = true
	b.logger.Debug("backend attached", "data_dir", dataDir)
	return nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps transactions and pragmas on the same handle.
	db.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return db, nil
}

// Detach closes the database and releases the data directory lock.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	var closeErr error
	if b.db != nil {
		closeErr = b.db.Close()
		b.db = nil
	}
	if b.lock != nil {
		if err := b.lock.Unlock(); err != nil && closeErr == nil {
			closeErr = fmt.Errorf("release lock: %w", err)
		}
		b.lock = nil
	}
	b.attached = false
	b.logger.Debug("backend detached")
	return closeErr
}

// read runs fn under the read lock with an attached database.
func (b *Backend) read(fn func(db *sql.DB) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.ErrBackendDetached
	}
	return fn(b.db)
}

// write runs fn inside one transaction under the write lock. The
// transaction commits only if fn returns nil.
func (b *Backend) write(ctx context.Context, fn func(tx *sql.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrBackendDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
