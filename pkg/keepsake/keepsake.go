// Package keepsake is the public entry point to the local store. Open picks
// a backend from the configuration; the internal packages stay hidden.
//
// Example:
//
//	store, err := keepsake.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: dataDir,
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package keepsake

import (
	"github.com/mesh-intelligence/keepsake/internal/memory"
	"github.com/mesh-intelligence/keepsake/internal/sqlite"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// Version is the release version, set at build time with
// -ldflags "-X github.com/mesh-intelligence/keepsake/pkg/keepsake.Version=...".
var Version = "0.1.0"

// Open validates config and returns an unopened store for its backend. The
// store opens itself on first use; call Store.Open to surface open errors
// early.
func Open(config types.Config) (types.Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Backend {
	case types.BackendMemory:
		return memory.NewBackend(config), nil
	default:
		return sqlite.NewBackend(config), nil
	}
}
