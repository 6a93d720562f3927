package cli

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/roach88/spdxstore/internal/store"
	"github.com/roach88/spdxstore/internal/store/memstore"
	"github.com/roach88/spdxstore/internal/store/sqlstore"
)

// Backend names accepted by --backend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// ValidBackends lists the accepted --backend values.
var ValidBackends = []string{BackendMemory, BackendSQLite}

// openBackend opens a store of the named kind. The returned close function
// must be called when the store is no longer needed.
//
// path is ignored for the memory backend. An empty sqlite path opens a
// private in-memory database.
func openBackend(backend, path string, logger *zap.Logger) (store.ModelStore, func() error, error) {
	switch backend {
	case BackendMemory:
		if path != "" {
			return nil, nil, fmt.Errorf("--db is only valid with --backend %s", BackendSQLite)
		}
		return memstore.New(memstore.WithLogger(logger)), func() error { return nil }, nil
	case BackendSQLite:
		if path == "" {
			path = ":memory:"
		}
		st, err := sqlstore.Open(path, sqlstore.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q: must be one of %v", backend, ValidBackends)
	}
}

// openDatabase opens an existing SQLite store file named by the given flag.
func openDatabase(flag, path string, logger *zap.Logger) (*sqlstore.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("--%s is required", flag)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database not found: %s", path)
	}
	return sqlstore.Open(path, sqlstore.WithLogger(logger))
}
