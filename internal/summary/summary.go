// Package summary computes the figures shown on the home and annual pages
// from the records in a store.
package summary

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// HomeStats are the current-month figures of the home page.
type HomeStats struct {
	Month         string  `json:"month"` // YYYY-MM
	MonthIncome   float64 `json:"monthIncome"`
	MonthExpense  float64 `json:"monthExpense"`
	Balance       float64 `json:"balance"`
	MonthlyBudget float64 `json:"monthlyBudget"`
	BudgetLeft    float64 `json:"budgetLeft"`
	OverBudget    bool    `json:"overBudget"`
	DiaryCount    int     `json:"diaryCount"`
	PhotoCount    int     `json:"photoCount"`
}

// AnnualStats are the yearly figures of the annual page.
type AnnualStats struct {
	Year              int                `json:"year"`
	Income            float64            `json:"income"`
	Expense           float64            `json:"expense"`
	ExpenseByCategory map[string]float64 `json:"expenseByCategory"`
	DiaryCount        int                `json:"diaryCount"`
	PhotoCount        int                `json:"photoCount"`
}

// Home returns the figures for the month containing now. Diary and photo
// counts cover the whole store. The budget left never goes below zero.
func Home(ctx context.Context, s types.Store, now time.Time) (HomeStats, error) {
	month := now.Format("2006-01")
	stats := HomeStats{Month: month}

	var err error
	if stats.MonthExpense, err = sumAccounts(ctx, s, types.AccountExpense, month, nil); err != nil {
		return HomeStats{}, err
	}
	if stats.MonthIncome, err = sumAccounts(ctx, s, types.AccountIncome, month, nil); err != nil {
		return HomeStats{}, err
	}
	stats.Balance = stats.MonthIncome - stats.MonthExpense

	stats.MonthlyBudget = types.SettingAs(ctx, s, types.SettingMonthlyBudget, 0.0)
	stats.BudgetLeft = max(stats.MonthlyBudget-stats.MonthExpense, 0)
	stats.OverBudget = stats.MonthlyBudget > 0 && stats.MonthExpense > stats.MonthlyBudget

	if stats.DiaryCount, err = count(ctx, s, types.CollectionDiaries, ""); err != nil {
		return HomeStats{}, err
	}
	if stats.PhotoCount, err = count(ctx, s, types.CollectionPhotos, ""); err != nil {
		return HomeStats{}, err
	}
	return stats, nil
}

// Annual returns the totals for year. Records are assigned to a year by
// their date field; photos without a date are not counted.
func Annual(ctx context.Context, s types.Store, year int) (AnnualStats, error) {
	prefix := strconv.Itoa(year) + "-"
	stats := AnnualStats{Year: year, ExpenseByCategory: map[string]float64{}}

	var err error
	if stats.Expense, err = sumAccounts(ctx, s, types.AccountExpense, prefix, stats.ExpenseByCategory); err != nil {
		return AnnualStats{}, err
	}
	if stats.Income, err = sumAccounts(ctx, s, types.AccountIncome, prefix, nil); err != nil {
		return AnnualStats{}, err
	}
	if stats.DiaryCount, err = count(ctx, s, types.CollectionDiaries, prefix); err != nil {
		return AnnualStats{}, err
	}
	if stats.PhotoCount, err = count(ctx, s, types.CollectionPhotos, prefix); err != nil {
		return AnnualStats{}, err
	}
	return stats, nil
}

// sumAccounts adds up the accounts of kind dated with datePrefix, using the
// type index. When byCategory is non-nil it also receives per-category sums.
func sumAccounts(ctx context.Context, s types.Store, kind, datePrefix string, byCategory map[string]float64) (float64, error) {
	recs, err := s.GetByIndex(ctx, types.CollectionAccounts, "type", kind)
	if err != nil {
		return 0, fmt.Errorf("loading %s accounts: %w", kind, err)
	}
	total := 0.0
	for _, rec := range recs {
		a, ok := rec.(*types.Account)
		if !ok || !strings.HasPrefix(a.Date, datePrefix) {
			continue
		}
		total += a.Amount
		if byCategory != nil {
			byCategory[a.Category] += a.Amount
		}
	}
	return total, nil
}

// count returns the number of dated records whose date starts with
// datePrefix. An empty prefix counts every record.
func count(ctx context.Context, s types.Store, collection, datePrefix string) (int, error) {
	recs, err := s.GetAll(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", collection, err)
	}
	if datePrefix == "" {
		return len(recs), nil
	}
	n := 0
	for _, rec := range recs {
		var date string
		switch r := rec.(type) {
		case *types.Diary:
			date = r.Date
		case *types.Photo:
			date = r.Day()
		}
		if date != "" && strings.HasPrefix(date, datePrefix) {
			n++
		}
	}
	return n, nil
}
