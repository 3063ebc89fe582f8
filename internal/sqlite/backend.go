// Package sqlite implements the durable store backend on SQLite. Each
// collection is a table of record JSON keyed by the collection's key field;
// secondary indexes are expression indexes over the declared fields. The
// schema is versioned with golang-migrate.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/mesh-intelligence/keepsake/internal/sqlite/migrations"
	"github.com/mesh-intelligence/keepsake/pkg/types"

	// Import SQLite driver for database/sql
	_ "modernc.org/sqlite"
)

// DBFileName is the fixed name of the database file inside DataDir.
const DBFileName = "keepsake.db"

// Backend implements types.Store on a single SQLite file. The handle is
// opened on first use and kept until Close.
type Backend struct {
	mu     sync.RWMutex
	config types.Config
	logger *slog.Logger
	db     *sql.DB
}

// NewBackend returns a backend for config. Nothing touches the disk until
// Open or the first operation.
func NewBackend(config types.Config) *Backend {
	return &Backend{
		config: config,
		logger: config.LoggerOrDiscard().With("backend", types.BackendSQLite),
	}
}

// Path returns the location of the database file.
func (b *Backend) Path() string {
	dataDir := b.config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, DBFileName)
}

// Open creates the database file if needed and migrates it to
// types.SchemaVersion. Calling Open on an open backend is a no-op.
func (b *Backend) Open(ctx context.Context) error {
	_, err := b.handle(ctx)
	return err
}

// Close releases the database handle. Close is idempotent; a later
// operation opens the store again.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	b.logger.Debug("store closed")
	return nil
}

// handle returns the open database, opening it on first use. A failed open
// leaves the backend closed so that the next call tries again.
func (b *Backend) handle(ctx context.Context) (*sql.DB, error) {
	b.mu.RLock()
	db := b.db
	b.mu.RUnlock()
	if db != nil {
		return db, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db != nil {
		return b.db, nil
	}
	db, err := b.open(ctx)
	if err != nil {
		b.logger.Warn("store open failed", "path", b.Path(), "error", err)
		return nil, types.Unavailable(err)
	}
	b.db = db
	b.logger.Info("store opened", "path", b.Path(), "schema_version", types.SchemaVersion)
	return db, nil
}

func (b *Backend) open(ctx context.Context) (*sql.DB, error) {
	path := b.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving database path: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(absPath))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := b.migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// migrate brings the schema up to types.SchemaVersion. A database written by
// a newer release, or left dirty by an interrupted migration, is refused.
func (b *Backend) migrate(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("initialising migrate driver: %w", err)
	}

	source, err := iofs.New(migrations.Files, ".")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}
	defer func() {
		_ = source.Close()
	}()

	// The migrator is not closed: closing it closes db.
	migrator, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	version, dirty, err := migrator.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		version = 0
	case err != nil:
		return fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("%w: schema version %d is dirty", types.ErrVersionConflict, version)
	}
	if version > uint(types.SchemaVersion) {
		return fmt.Errorf("%w: database has schema version %d, this build supports %d",
			types.ErrVersionConflict, version, types.SchemaVersion)
	}

	if err := migrator.Migrate(uint(types.SchemaVersion)); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	if version < uint(types.SchemaVersion) {
		b.logger.Info("schema migrated", "from", version, "to", types.SchemaVersion)
	}
	return nil
}

// Compile-time interface check.
var _ types.Store = (*Backend)(nil)
