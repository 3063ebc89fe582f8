package storetest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

func testProperties(t *testing.T, open Factory) {
	ctx := context.Background()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	// All properties share one store; identifiers are namespaced by run so
	// that runs do not see each other's records.
	runs := 0
	next := func(prefix string) string {
		runs++
		return fmt.Sprintf("%s-%04d-", prefix, runs)
	}

	s := open(t)

	properties.Property("Add then Get returns an equal record", prop.ForAll(
		func(id, name string, cookTime int, favorite bool) bool {
			rec := &types.Food{ID: next("food") + id, Name: name, CookTime: cookTime, Favorite: favorite}
			if _, err := s.Add(ctx, types.CollectionFoods, rec); err != nil {
				return false
			}
			got, found, err := s.Get(ctx, types.CollectionFoods, rec.ID)
			return err == nil && found && assertEqualFood(rec, got)
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.IntRange(0, 600),
		gen.Bool(),
	))

	properties.Property("a second Add of the same identifier fails and keeps the first", prop.ForAll(
		func(id string, first, second float64) bool {
			key := next("dup") + id
			if _, err := s.Add(ctx, types.CollectionAccounts, expense(key, first, "a", "2026-01-01")); err != nil {
				return false
			}
			_, err := s.Add(ctx, types.CollectionAccounts, expense(key, second, "b", "2026-01-02"))
			if !isDuplicate(err) {
				return false
			}
			got, _, err := s.Get(ctx, types.CollectionAccounts, key)
			return err == nil && got.(*types.Account).Amount == first
		},
		gen.Identifier(),
		gen.Float64Range(0.01, 1e6),
		gen.Float64Range(0.01, 1e6),
	))

	properties.Property("deleting a missing identifier succeeds and changes nothing", prop.ForAll(
		func(id string) bool {
			before, err := s.GetAll(ctx, types.CollectionIngredients)
			if err != nil {
				return false
			}
			if err := s.Delete(ctx, types.CollectionIngredients, next("absent")+id); err != nil {
				return false
			}
			after, err := s.GetAll(ctx, types.CollectionIngredients)
			return err == nil && len(before) == len(after)
		},
		gen.Identifier(),
	))

	properties.Property("GetByIndex returns exactly the records with the value", prop.ForAll(
		func(picks []int) bool {
			prefix := next("ing")
			want := map[string]int{}
			for i, p := range picks {
				rec := &types.Ingredient{ID: fmt.Sprintf("%s%03d", prefix, i), Name: "item", Category: prefix + pantryCategories[p]}
				if _, err := s.Add(ctx, types.CollectionIngredients, rec); err != nil {
					return false
				}
				want[rec.Category]++
			}
			for category, n := range want {
				recs, err := s.GetByIndex(ctx, types.CollectionIngredients, "category", category)
				if err != nil || len(recs) != n {
					return false
				}
				for _, r := range recs {
					if r.(*types.Ingredient).Category != category {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(pantryCategories)-1)),
	))

	properties.Property("GetSetting on an absent key returns the default", prop.ForAll(
		func(key string, def int) bool {
			return s.GetSetting(ctx, next("unset")+key, def) == def
		},
		gen.Identifier(),
		gen.Int(),
	))

	// restored receives every snapshot of s, so after each import both
	// stores hold the same records.
	restored := open(t)
	properties.Property("ImportAll of ExportAll reproduces every collection", prop.ForAll(
		func(amounts []float64, content, name string) bool {
			prefix := next("rt")
			for i, a := range amounts {
				if err := s.Update(ctx, types.CollectionAccounts, income(fmt.Sprintf("%s%03d", prefix, i), a, "x", "2026-05-01")); err != nil {
					return false
				}
			}
			if err := s.Update(ctx, types.CollectionDiaries, &types.Diary{ID: prefix, Date: "2026-05-01", Content: content}); err != nil {
				return false
			}
			if err := s.Update(ctx, types.CollectionFoods, &types.Food{ID: prefix, Name: name, Tags: []string{content}}); err != nil {
				return false
			}
			if err := s.SetSetting(ctx, prefix, amounts); err != nil {
				return false
			}

			snap, err := s.ExportAll(ctx)
			if err != nil {
				return false
			}
			if err := s.ImportAll(ctx, snap); err != nil {
				return false
			}
			if err := restored.ImportAll(ctx, snap); err != nil {
				return false
			}
			again, err := s.ExportAll(ctx)
			if err != nil {
				return false
			}
			copied, err := restored.ExportAll(ctx)
			if err != nil {
				return false
			}
			for _, name := range types.StandardCollectionNames {
				if !reflect.DeepEqual(snap.Collections[name], again.Collections[name]) ||
					!reflect.DeepEqual(snap.Collections[name], copied.Collections[name]) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(3, gen.Float64Range(0.01, 1e4)),
		gen.AlphaString(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

var pantryCategories = []string{"veg", "meat", "spice", "dairy"}

func assertEqualFood(want *types.Food, got types.Record) bool {
	f, ok := got.(*types.Food)
	return ok && f.ID == want.ID && f.Name == want.Name && f.CookTime == want.CookTime && f.Favorite == want.Favorite
}

func isDuplicate(err error) bool {
	return errors.Is(err, types.ErrDuplicateKey)
}
