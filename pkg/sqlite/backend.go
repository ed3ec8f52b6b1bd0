// Package sqlite exposes the SQLite group store while keeping the
// implementation internal.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/grouptree/internal/sqlite"
	"github.com/mesh-intelligence/grouptree/pkg/types"
)

// NewBackend creates a new SQLite backend instance. The backend is not
// attached; call Attach with a Config to initialize. A nil logger discards
// logs.
//
// Example:
//
//	backend := sqlite.NewBackend(nil)
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".grouptree",
//	})
//	defer backend.Detach()
func NewBackend(logger *slog.Logger) types.Backend {
	return sqlite.NewBackend(logger)
}
