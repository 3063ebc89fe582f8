// Package storetest holds the behaviour every types.Store backend must show.
// Backend packages call Run from their tests with a constructor returning a
// fresh, empty store.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// Factory returns a fresh, empty store. The store is closed by Run.
type Factory func(t *testing.T) types.Store

// Run executes the full suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	open := func(t *testing.T) types.Store {
		t.Helper()
		s := newStore(t)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}

	t.Run("Open", func(t *testing.T) { testOpen(t, open) })
	t.Run("AddGet", func(t *testing.T) { testAddGet(t, open) })
	t.Run("GetAll", func(t *testing.T) { testGetAll(t, open) })
	t.Run("UpdateDelete", func(t *testing.T) { testUpdateDelete(t, open) })
	t.Run("InvalidInput", func(t *testing.T) { testInvalidInput(t, open) })
	t.Run("GetByIndex", func(t *testing.T) { testGetByIndex(t, open) })
	t.Run("Settings", func(t *testing.T) { testSettings(t, open) })
	t.Run("MonthlyExpense", func(t *testing.T) { testMonthlyExpense(t, open) })
	t.Run("ExportImport", func(t *testing.T) { testExportImport(t, open) })
	t.Run("ImportFailure", func(t *testing.T) { testImportFailure(t, open) })
	t.Run("Concurrent", func(t *testing.T) { testConcurrent(t, open) })
	t.Run("Properties", func(t *testing.T) { testProperties(t, open) })
}

func testOpen(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	require.NoError(t, s.Open(ctx))
	_, err := s.Add(ctx, types.CollectionDiaries, diary("2026-10-01", "first"))
	require.NoError(t, err)

	require.NoError(t, s.Open(ctx), "second Open is a no-op")
	_, found, err := s.Get(ctx, types.CollectionDiaries, "2026-10-01")
	require.NoError(t, err)
	assert.True(t, found, "double open keeps data")

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "Close is idempotent")

	_, found, err = s.Get(ctx, types.CollectionDiaries, "2026-10-01")
	require.NoError(t, err, "operations reopen lazily after Close")
	assert.True(t, found)
}

func testAddGet(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	rec := expense("a1", 12.5, "food", "2026-10-03")
	id, err := s.Add(ctx, types.CollectionAccounts, rec)
	require.NoError(t, err)
	assert.Equal(t, "a1", id)

	got, found, err := s.Get(ctx, types.CollectionAccounts, "a1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec, got)

	_, err = s.Add(ctx, types.CollectionAccounts, expense("a1", 99, "other", "2026-10-04"))
	assert.ErrorIs(t, err, types.ErrDuplicateKey)

	got, _, err = s.Get(ctx, types.CollectionAccounts, "a1")
	require.NoError(t, err)
	assert.Equal(t, rec, got, "failed Add leaves the record unchanged")

	got, found, err = s.Get(ctx, types.CollectionAccounts, "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)

	// Same identifier in another collection is independent.
	_, err = s.Add(ctx, types.CollectionFoods, &types.Food{ID: "a1", Name: "noodles"})
	assert.NoError(t, err)
}

func testGetAll(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	recs, err := s.GetAll(ctx, types.CollectionPhotos)
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	for _, id := range []string{"c", "a", "b"} {
		_, err := s.Add(ctx, types.CollectionGames, &types.Game{ID: id, GameType: types.GameDice})
		require.NoError(t, err)
	}
	recs, err = s.GetAll(ctx, types.CollectionGames)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(recs))
}

func testUpdateDelete(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	// Update on a missing id inserts.
	food := &types.Food{ID: "f1", Name: "dumplings", Tags: []string{"winter"}}
	require.NoError(t, s.Update(ctx, types.CollectionFoods, food))

	food.Favorite = true
	require.NoError(t, s.Update(ctx, types.CollectionFoods, food))

	got, found, err := s.Get(ctx, types.CollectionFoods, "f1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, food, got)

	all, err := s.GetAll(ctx, types.CollectionFoods)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.Delete(ctx, types.CollectionFoods, "f1"))
	_, found, err = s.Get(ctx, types.CollectionFoods, "f1")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, s.Delete(ctx, types.CollectionFoods, "f1"), "deleting a missing record succeeds")
}

func testInvalidInput(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	_, err := s.Add(ctx, "todos", &types.Food{ID: "x", Name: "x"})
	assert.ErrorIs(t, err, types.ErrUnknownCollection)
	_, _, err = s.Get(ctx, "todos", "x")
	assert.ErrorIs(t, err, types.ErrUnknownCollection)
	_, err = s.GetAll(ctx, "todos")
	assert.ErrorIs(t, err, types.ErrUnknownCollection)

	_, err = s.Add(ctx, types.CollectionFoods, &types.Food{Name: "no id"})
	assert.ErrorIs(t, err, types.ErrInvalidID)
	assert.ErrorIs(t, s.Update(ctx, types.CollectionFoods, &types.Food{Name: "no id"}), types.ErrInvalidID)

	// An empty identifier is never stored: reads miss and deletes succeed.
	rec, found, err := s.Get(ctx, types.CollectionFoods, "")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, rec)
	assert.NoError(t, s.Delete(ctx, types.CollectionFoods, ""))

	_, err = s.Add(ctx, types.CollectionFoods, diary("2026-10-01", "wrong collection"))
	assert.ErrorIs(t, err, types.ErrInvalidData)
	assert.ErrorIs(t, s.Update(ctx, types.CollectionFoods, nil), types.ErrInvalidData)
}

func testGetByIndex(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	for _, rec := range []*types.Account{
		expense("a1", 10, "food", "2026-10-01"),
		expense("a2", 20, "rent", "2026-10-02"),
		income("a3", 500, "salary", "2026-10-01"),
	} {
		_, err := s.Add(ctx, types.CollectionAccounts, rec)
		require.NoError(t, err)
	}

	recs, err := s.GetByIndex(ctx, types.CollectionAccounts, "type", types.AccountExpense)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, ids(recs))

	recs, err = s.GetByIndex(ctx, types.CollectionAccounts, "date", "2026-10-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a3"}, ids(recs))

	recs, err = s.GetByIndex(ctx, types.CollectionAccounts, "date", "1999-01-01")
	require.NoError(t, err)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	_, err = s.GetByIndex(ctx, types.CollectionAccounts, "category", "food")
	assert.ErrorIs(t, err, types.ErrIndexNotFound)
	_, err = s.GetByIndex(ctx, types.CollectionSettings, "value", 1)
	assert.ErrorIs(t, err, types.ErrIndexNotFound)

	// The index follows updates and deletes.
	require.NoError(t, s.Update(ctx, types.CollectionAccounts, income("a1", 10, "refund", "2026-10-01")))
	require.NoError(t, s.Delete(ctx, types.CollectionAccounts, "a2"))
	recs, err = s.GetByIndex(ctx, types.CollectionAccounts, "type", types.AccountExpense)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func testSettings(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	assert.Equal(t, "light", s.GetSetting(ctx, "theme", "light"))
	assert.Nil(t, s.GetSetting(ctx, "theme", nil))

	require.NoError(t, s.SetSetting(ctx, "theme", "dark"))
	assert.Equal(t, "dark", s.GetSetting(ctx, "theme", "light"))

	require.NoError(t, s.SetSetting(ctx, types.SettingMonthlyBudget, 3000))
	assert.Equal(t, float64(3000), s.GetSetting(ctx, types.SettingMonthlyBudget, 0))
	assert.Equal(t, 3000, types.SettingAs(ctx, s, types.SettingMonthlyBudget, 0))
	assert.Equal(t, 7, types.SettingAs(ctx, s, "missing", 7))
	assert.Equal(t, 7, types.SettingAs(ctx, s, "theme", 7), "mistyped value falls back to the default")

	require.NoError(t, s.SetSetting(ctx, "reminders", map[string]any{"enabled": true, "hour": 21}))
	assert.Equal(t, map[string]any{"enabled": true, "hour": float64(21)}, s.GetSetting(ctx, "reminders", nil))

	assert.ErrorIs(t, s.SetSetting(ctx, "", "x"), types.ErrInvalidID)
	assert.Equal(t, "d", s.GetSetting(ctx, "", "d"), "read failure degrades to the default")

	recs, err := s.GetAll(ctx, types.CollectionSettings)
	require.NoError(t, err)
	assert.Equal(t, []string{types.SettingMonthlyBudget, "reminders", "theme"}, ids(recs))
}

// testMonthlyExpense mirrors the home page: the month's expense total is the
// sum over expense records dated in the month.
func testMonthlyExpense(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	for _, rec := range []*types.Account{
		expense("e1", 50, "food", "2026-10-03"),
		expense("e2", 30, "transport", "2026-10-18"),
		income("i1", 200, "salary", "2026-10-05"),
		expense("e0", 70, "food", "2026-09-30"),
	} {
		_, err := s.Add(ctx, types.CollectionAccounts, rec)
		require.NoError(t, err)
	}

	recs, err := s.GetByIndex(ctx, types.CollectionAccounts, "type", types.AccountExpense)
	require.NoError(t, err)
	total := 0.0
	for _, r := range recs {
		a := r.(*types.Account)
		if a.Date[:7] == "2026-10" {
			total += a.Amount
		}
	}
	assert.Equal(t, 80.0, total)
}

func testExportImport(t *testing.T, open Factory) {
	ctx := context.Background()
	src := open(t)
	Seed(t, src)

	snap, err := src.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.SchemaVersion, snap.SchemaVersion)
	assert.False(t, snap.ExportDate.IsZero())
	for _, name := range types.StandardCollectionNames {
		assert.Contains(t, snap.Collections, name)
	}

	dst := open(t)
	_, err = dst.Add(ctx, types.CollectionDiaries, diary("2020-01-01", "kept"))
	require.NoError(t, err)
	require.NoError(t, dst.ImportAll(ctx, snap))

	for _, name := range types.StandardCollectionNames {
		want, err := src.GetAll(ctx, name)
		require.NoError(t, err)
		got, err := dst.GetAll(ctx, name)
		require.NoError(t, err)
		if name == types.CollectionDiaries {
			assert.Equal(t, append([]string{"2020-01-01"}, ids(want)...), ids(got), "import is additive")
			continue
		}
		assert.Equal(t, want, got, name)
	}

	// Re-importing the same snapshot changes nothing.
	require.NoError(t, dst.ImportAll(ctx, snap))
	again, err := dst.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Len()+1, again.Len())

	// Collections absent from the snapshot are left alone.
	partial := types.NewSnapshot(snap.ExportDate)
	partial.Collections[types.CollectionFoods] = []types.Record{&types.Food{ID: "new", Name: "soup"}}
	require.NoError(t, dst.ImportAll(ctx, partial))
	accounts, err := dst.GetAll(ctx, types.CollectionAccounts)
	require.NoError(t, err)
	assert.Len(t, accounts, len(snap.Collections[types.CollectionAccounts]))
}

func testImportFailure(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	snap := types.NewSnapshot(snapshotTime)
	snap.Collections[types.CollectionAccounts] = []types.Record{
		expense("a1", 1, "x", "2026-10-01"),
		expense("a2", 2, "x", "2026-10-02"),
	}
	snap.Collections[types.CollectionDiaries] = []types.Record{
		diary("2026-10-01", "ok"),
		&types.Food{ID: "misplaced", Name: "x"},
	}

	err := s.ImportAll(ctx, snap)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrImportFailed)
	assert.ErrorIs(t, err, types.ErrInvalidData)

	var ie *types.ImportError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, types.CollectionDiaries, ie.Collection)
	assert.Equal(t, "misplaced", ie.ID)
	assert.Equal(t, 3, ie.Applied)

	accounts, err := s.GetAll(ctx, types.CollectionAccounts)
	require.NoError(t, err)
	assert.Len(t, accounts, 2, "collections written before the failure stay written")

	newer := types.NewSnapshot(snapshotTime)
	newer.SchemaVersion = types.SchemaVersion + 1
	newer.Collections[types.CollectionFoods] = []types.Record{&types.Food{ID: "f", Name: "x"}}
	err = s.ImportAll(ctx, newer)
	assert.ErrorIs(t, err, types.ErrImportFailed)
	assert.ErrorIs(t, err, types.ErrVersionConflict)
	foods, err := s.GetAll(ctx, types.CollectionFoods)
	require.NoError(t, err)
	assert.Empty(t, foods, "a newer snapshot is rejected before any write")

	unknown := types.NewSnapshot(snapshotTime)
	unknown.Collections["todos"] = nil
	assert.ErrorIs(t, s.ImportAll(ctx, unknown), types.ErrUnknownCollection)

	assert.ErrorIs(t, s.ImportAll(ctx, nil), types.ErrImportFailed)
}

func testConcurrent(t *testing.T, open Factory) {
	ctx := context.Background()
	s := open(t)

	const workers, perWorker = 4, 10
	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				id := fmt.Sprintf("w%d-%02d", w, i)
				if _, err := s.Add(ctx, types.CollectionGames, &types.Game{ID: id, GameType: types.GameDraw}); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	recs, err := s.GetAll(ctx, types.CollectionGames)
	require.NoError(t, err)
	assert.Len(t, recs, workers*perWorker)
	assert.True(t, sort.StringsAreSorted(ids(recs)))
}
