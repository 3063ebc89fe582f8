package summary

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

func TestHome(t *testing.T) {
	ctx := context.Background()
	s := memory.NewBackend(types.Config{})
	storetest.Seed(t, s)

	stats, err := Home(ctx, s, time.Date(2026, 10, 19, 12, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Equal(t, HomeStats{
		Month:         "2026-10",
		MonthIncome:   200,
		MonthExpense:  80,
		Balance:       120,
		MonthlyBudget: 3000,
		BudgetLeft:    2920,
		DiaryCount:    2,
		PhotoCount:    1,
	}, stats)
}

func TestHomeBudget(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		budget     any
		wantLeft   float64
		wantOver   bool
		wantBudget float64
	}{
		{"no budget", nil, 0, false, 0},
		{"under budget", 100, 20, false, 100},
		{"over budget", 50, 0, true, 50},
		{"unreadable budget", "lots", 0, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.NewBackend(types.Config{})
			_, err := s.Add(ctx, types.CollectionAccounts,
				&types.Account{ID: "a", Type: types.AccountExpense, Amount: 80, Category: "food", Date: "2026-10-01"})
			require.NoError(t, err)
			if tt.budget != nil {
				require.NoError(t, s.SetSetting(ctx, types.SettingMonthlyBudget, tt.budget))
			}

			stats, err := Home(ctx, s, time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			assert.Equal(t, tt.wantBudget, stats.MonthlyBudget)
			assert.Equal(t, tt.wantLeft, stats.BudgetLeft)
			assert.Equal(t, tt.wantOver, stats.OverBudget)
		})
	}
}

func TestAnnual(t *testing.T) {
	ctx := context.Background()
	s := memory.NewBackend(types.Config{})
	storetest.Seed(t, s)
	_, err := s.Add(ctx, types.CollectionPhotos, &types.Photo{ID: "undated", Src: "x"})
	require.NoError(t, err)

	stats, err := Annual(ctx, s, 2026)
	require.NoError(t, err)
	assert.Equal(t, AnnualStats{
		Year:              2026,
		Income:            200,
		Expense:           80,
		ExpenseByCategory: map[string]float64{"food": 50, "transport": 30},
		DiaryCount:        2,
		PhotoCount:        1,
	}, stats)

	stats, err = Annual(ctx, s, 2025)
	require.NoError(t, err)
	assert.Equal(t, 120.0, stats.Expense)
	assert.Equal(t, map[string]float64{"gifts": 120}, stats.ExpenseByCategory)
	assert.Zero(t, stats.DiaryCount)
}

func TestAnnualCountsRestoredPhotos(t *testing.T) {
	ctx := context.Background()
	s := memory.NewBackend(types.Config{})

	snap := types.NewSnapshot(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	snap.Collections[types.CollectionPhotos] = []types.Record{
		&types.Photo{ID: "p1", Src: "x", CreatedAt: "2026-03-14T09:26:53.589Z"},
		&types.Photo{ID: "p2", Src: "x", CreatedAt: "2026-12-31T23:59:59Z"},
		&types.Photo{ID: "p3", Src: "x", CreatedAt: "2025-12-31T23:59:59Z"},
	}
	require.NoError(t, s.ImportAll(ctx, snap))

	stats, err := Annual(ctx, s, 2026)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.PhotoCount)

	stats, err = Annual(ctx, s, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PhotoCount)
}

func TestHomeEmptyStore(t *testing.T) {
	stats, err := Home(context.Background(), memory.NewBackend(types.Config{}), time.Now())
	require.NoError(t, err)
	assert.Zero(t, stats.MonthExpense)
	assert.Zero(t, stats.DiaryCount)
}
