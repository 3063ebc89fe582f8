package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepsake/internal/storetest"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

func newTestBackend(t *testing.T, dataDir string) *Backend {
	t.Helper()
	b := NewBackend(types.Config{Backend: types.BackendSQLite, DataDir: dataDir})
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// rawDB opens the database file next to the backend, for poking at the
// schema from outside.
func rawDB(t *testing.T, dataDir string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBackendConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Store {
		return NewBackend(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	})
}

func TestBackend_OpenCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	b := newTestBackend(t, dir)

	_, err := os.Stat(b.Path())
	assert.True(t, os.IsNotExist(err), "nothing is created before first use")

	require.NoError(t, b.Open(context.Background()))
	_, err = os.Stat(filepath.Join(dir, DBFileName))
	assert.NoError(t, err)
}

func TestBackend_SchemaObjects(t *testing.T) {
	dir := t.TempDir()
	b := newTestBackend(t, dir)
	require.NoError(t, b.Open(context.Background()))
	require.NoError(t, b.Close())

	db := rawDB(t, dir)
	for _, c := range types.AppSchema.Collections {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, c.Name).Scan(&name)
		require.NoError(t, err, "table %s", c.Name)

		for _, idx := range c.Indexes {
			err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?`,
				indexName(c.Name, idx.Name)).Scan(&name)
			assert.NoError(t, err, "index %s.%s", c.Name, idx.Name)
		}
	}

	var version int
	var dirty bool
	require.NoError(t, db.QueryRow(`SELECT version, dirty FROM schema_migrations`).Scan(&version, &dirty))
	assert.Equal(t, types.SchemaVersion, version)
	assert.False(t, dirty)
}

func TestBackend_IndexLookupUsesIndex(t *testing.T) {
	dir := t.TempDir()
	b := newTestBackend(t, dir)
	db, err := b.handle(context.Background())
	require.NoError(t, err)

	st, err := lookup(types.CollectionAccounts)
	require.NoError(t, err)
	query, err := st.byIndex("date")
	require.NoError(t, err)

	rows, err := db.Query("EXPLAIN QUERY PLAN "+query, "2026-10-01")
	require.NoError(t, err)
	defer rows.Close()

	var plan string
	for rows.Next() {
		var id, parent, notused int
		var detail string
		require.NoError(t, rows.Scan(&id, &parent, &notused, &detail))
		plan += detail + "\n"
	}
	assert.Contains(t, plan, indexName(types.CollectionAccounts, "date"))
}

func TestBackend_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := newTestBackend(t, dir)
	storetest.Seed(t, first)
	want, err := first.ExportAll(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := newTestBackend(t, dir)
	got, err := second.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want.Collections, got.Collections)
}

func TestBackend_NewerSchemaRefused(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b := newTestBackend(t, dir)
	require.NoError(t, b.Open(ctx))
	require.NoError(t, b.Close())

	_, err := rawDB(t, dir).Exec(`UPDATE schema_migrations SET version = 99`)
	require.NoError(t, err)

	err = newTestBackend(t, dir).Open(ctx)
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
	assert.ErrorIs(t, err, types.ErrVersionConflict)
}

func TestBackend_DirtySchemaRefused(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b := newTestBackend(t, dir)
	require.NoError(t, b.Open(ctx))
	require.NoError(t, b.Close())

	_, err := rawDB(t, dir).Exec(`UPDATE schema_migrations SET dirty = 1`)
	require.NoError(t, err)

	_, _, err = newTestBackend(t, dir).Get(ctx, types.CollectionAccounts, "a")
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
}

func TestBackend_FailedOpenIsRetried(t *testing.T) {
	ctx := context.Background()
	parent := t.TempDir()
	dir := filepath.Join(parent, "data")

	// A regular file where the data directory should be.
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0o600))
	b := newTestBackend(t, dir)

	_, err := b.GetAll(ctx, types.CollectionDiaries)
	assert.ErrorIs(t, err, types.ErrStoreUnavailable)
	assert.Equal(t, "d", b.GetSetting(ctx, "theme", "d"), "settings degrade while unavailable")

	require.NoError(t, os.Remove(dir))
	recs, err := b.GetAll(ctx, types.CollectionDiaries)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestBackend_UniqueConstraintMapsToDuplicate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := newTestBackend(t, dir)
	db, err := b.handle(ctx)
	require.NoError(t, err)

	// AppSchema declares no unique index; add one to check the mapping.
	_, err = db.Exec(`CREATE UNIQUE INDEX idx_foods_name_unique ON foods (json_extract(data, '$.name'))`)
	require.NoError(t, err)

	_, err = b.Add(ctx, types.CollectionFoods, &types.Food{ID: "f1", Name: "hotpot"})
	require.NoError(t, err)

	_, err = b.Add(ctx, types.CollectionFoods, &types.Food{ID: "f2", Name: "hotpot"})
	assert.ErrorIs(t, err, types.ErrDuplicateKey)

	err = b.Update(ctx, types.CollectionFoods, &types.Food{ID: "f2", Name: "hotpot"})
	assert.ErrorIs(t, err, types.ErrDuplicateKey)
}
