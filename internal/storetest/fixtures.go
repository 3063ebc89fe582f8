package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

var snapshotTime = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func expense(id string, amount float64, category, date string) *types.Account {
	return &types.Account{ID: id, Type: types.AccountExpense, Amount: amount, Category: category, Date: date}
}

func income(id string, amount float64, category, date string) *types.Account {
	return &types.Account{ID: id, Type: types.AccountIncome, Amount: amount, Category: category, Date: date}
}

func diary(date, content string) *types.Diary {
	return &types.Diary{ID: date, Date: date, Content: content}
}

func ids(recs []types.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.RecordID()
	}
	return out
}

// Seed fills s with a few records in every collection: four accounts (80
// spent and 200 earned in October 2026, 120 spent in December 2025), two
// October 2026 diaries and one record in each other collection.
func Seed(t *testing.T, s types.Store) {
	t.Helper()
	ctx := context.Background()
	score := 6
	records := []types.Record{
		expense("acc-1", 50, "food", "2026-10-03"),
		expense("acc-2", 30, "transport", "2026-10-18"),
		income("acc-3", 200, "salary", "2026-10-05"),
		expense("acc-4", 120, "gifts", "2025-12-24"),
		diary("2026-10-01", "autumn walk"),
		&types.Diary{ID: "2026-10-02", Date: "2026-10-02", Content: "rain", Mood: "calm", Tags: []string{"home"}},
		&types.Game{ID: "game-1", GameType: types.GameDice, Player: "A", Score: &score, PlayedAt: "2026-10-02T20:00:00Z"},
		&types.Food{ID: "food-1", Name: "hotpot", Favorite: true, Ingredients: []string{"beef", "tofu"}, CookTime: 40, Difficulty: types.DifficultyMedium},
		&types.Ingredient{ID: "ing-1", Name: "tofu", Category: "soy", Quantity: 1, Unit: "box", Threshold: 2},
		&types.Photo{ID: "photo-1", Src: "data:image/jpeg;base64,AA==", Date: "2026-10-02", Tags: []string{"sunset"},
			Categories: &types.PhotoCategories{TimeKey: "2026-10", SceneKey: "outdoor"}},
		&types.Setting{Key: types.SettingMonthlyBudget, Value: float64(3000)},
	}
	for _, rec := range records {
		_, err := s.Add(ctx, rec.Collection(), rec)
		require.NoError(t, err)
	}
}
