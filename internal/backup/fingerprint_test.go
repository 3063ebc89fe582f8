package backup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepsake/internal/memory"
	"github.com/mesh-intelligence/keepsake/internal/storetest"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

func TestCompute(t *testing.T) {
	a := sampleSnapshot()
	b := sampleSnapshot()
	b.ExportDate = time.Now()
	accounts := b.Collections[types.CollectionAccounts]
	accounts[0], accounts[1] = accounts[1], accounts[0]

	fa, err := Compute(a)
	require.NoError(t, err)
	fb, err := Compute(b)
	require.NoError(t, err)
	assert.True(t, fa.Equal(fb), "record order and export date do not matter")
	assert.Len(t, fa[types.CollectionAccounts], 32)

	b.Collections[types.CollectionDiaries][0].(*types.Diary).Content = "edited"
	fb, err = Compute(b)
	require.NoError(t, err)
	assert.False(t, fa.Equal(fb))
	assert.Equal(t, []string{types.CollectionDiaries}, fa.Diff(fb))

	delete(b.Collections, types.CollectionSettings)
	fb, err = Compute(b)
	require.NoError(t, err)
	assert.Equal(t, []string{types.CollectionDiaries, types.CollectionSettings}, fa.Diff(fb))
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	src := memory.NewBackend(types.Config{})
	storetest.Seed(t, src)
	snap, err := src.ExportAll(ctx)
	require.NoError(t, err)

	dst := memory.NewBackend(types.Config{})
	_, err = dst.Add(ctx, types.CollectionFoods, &types.Food{ID: "extra", Name: "kept"})
	require.NoError(t, err)
	require.NoError(t, dst.ImportAll(ctx, snap))
	assert.NoError(t, Verify(ctx, dst, snap), "extra records do not fail verification")

	require.NoError(t, dst.Update(ctx, types.CollectionAccounts,
		&types.Account{ID: "acc-1", Type: types.AccountExpense, Amount: 1, Category: "food", Date: "2026-10-03"}))
	err = Verify(ctx, dst, snap)
	assert.ErrorIs(t, err, ErrVerifyFailed)
	assert.Contains(t, err.Error(), types.CollectionAccounts)
}
