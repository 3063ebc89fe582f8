package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepsake/internal/storetest"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

func TestBackendConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) types.Store {
		return NewBackend(types.Config{Backend: types.BackendMemory})
	})
}

func TestBackend_UniqueIndex(t *testing.T) {
	ctx := context.Background()
	schema := types.Schema{
		Version: 1,
		Collections: []types.CollectionSchema{
			{Name: types.CollectionFoods, KeyField: "id", Indexes: []types.IndexSpec{
				{Name: "name", Field: "name", Unique: true},
			}},
		},
	}
	b := NewBackendWithSchema(types.Config{}, schema)

	_, err := b.Add(ctx, types.CollectionFoods, &types.Food{ID: "f1", Name: "hotpot"})
	require.NoError(t, err)

	_, err = b.Add(ctx, types.CollectionFoods, &types.Food{ID: "f2", Name: "hotpot"})
	assert.ErrorIs(t, err, types.ErrDuplicateKey)

	err = b.Update(ctx, types.CollectionFoods, &types.Food{ID: "f2", Name: "hotpot"})
	assert.ErrorIs(t, err, types.ErrDuplicateKey)

	// Rewriting the holder of the value is not a conflict.
	require.NoError(t, b.Update(ctx, types.CollectionFoods, &types.Food{ID: "f1", Name: "hotpot", Favorite: true}))

	_, err = b.Add(ctx, types.CollectionDiaries, &types.Diary{ID: "d"})
	assert.ErrorIs(t, err, types.ErrUnknownCollection, "only declared collections exist")
}

func TestBackend_IsolatesCallerMemory(t *testing.T) {
	ctx := context.Background()
	b := NewBackend(types.Config{})

	food := &types.Food{ID: "f1", Name: "noodles", Tags: []string{"quick"}}
	require.NoError(t, b.Update(ctx, types.CollectionFoods, food))
	food.Tags[0] = "changed"

	got, found, err := b.Get(ctx, types.CollectionFoods, "f1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"quick"}, got.(*types.Food).Tags)

	got.(*types.Food).Name = "edited"
	again, _, err := b.Get(ctx, types.CollectionFoods, "f1")
	require.NoError(t, err)
	assert.Equal(t, "noodles", again.(*types.Food).Name)
}

func TestBackend_NumericIndexValues(t *testing.T) {
	ctx := context.Background()
	schema := types.Schema{
		Version: 1,
		Collections: []types.CollectionSchema{
			{Name: types.CollectionFoods, KeyField: "id", Indexes: []types.IndexSpec{
				{Name: "cookTime", Field: "cookTime"},
				{Name: "favorite", Field: "favorite"},
			}},
		},
	}
	b := NewBackendWithSchema(types.Config{}, schema)
	require.NoError(t, b.Update(ctx, types.CollectionFoods, &types.Food{ID: "f1", Name: "a", CookTime: 15, Favorite: true}))
	require.NoError(t, b.Update(ctx, types.CollectionFoods, &types.Food{ID: "f2", Name: "b", CookTime: 30}))

	for _, v := range []any{15, int64(15), 15.0} {
		recs, err := b.GetByIndex(ctx, types.CollectionFoods, "cookTime", v)
		require.NoError(t, err)
		assert.Len(t, recs, 1, "value %v (%T)", v, v)
	}

	recs, err := b.GetByIndex(ctx, types.CollectionFoods, "favorite", false)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "f2", recs[0].RecordID())

	_, err = b.GetByIndex(ctx, types.CollectionFoods, "cookTime", []int{15})
	assert.ErrorIs(t, err, types.ErrInvalidData)
}
