package services

import (
	"context"
	"errors"
	"testing"

	"expensetracker/internal/core"
)

func TestStatsService_TopExpenses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i, cents := range []int64{100, 900, 300, 700, 500, 200, 800} {
		env.addEntry(t, "Spend", cents, core.Expense, daysAgo(i))
	}
	env.addEntry(t, "Salary", 100000, core.Income, daysAgo(0))

	top, err := env.stats.TopExpenses(ctx, env.user.ID)
	if err != nil {
		t.Fatalf("TopExpenses() error = %v", err)
	}
	want := []int64{900, 800, 700, 500, 300}
	if len(top) != len(want) {
		t.Fatalf("TopExpenses() returned %d entries, want %d", len(top), len(want))
	}
	for i, e := range top {
		if e.Amount.Cents != want[i] {
			t.Errorf("top[%d] = %d, want %d", i, e.Amount.Cents, want[i])
		}
	}
}

func TestStatsService_CachingAndInvalidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addEntry(t, "Lunch", 1500, core.Expense, daysAgo(0))

	first, err := env.stats.DailyTotals(ctx, env.user.ID, core.Expense)
	if err != nil {
		t.Fatalf("DailyTotals() error = %v", err)
	}
	if len(first) != 1 || first[0].Total.Cents != 1500 {
		t.Fatalf("DailyTotals() = %+v", first)
	}

	// A write that bypasses the services is not seen until invalidation
	if _, err := env.repo.CreateEntry(ctx, core.LedgerEntry{
		OwnerID:   env.user.ID,
		Title:     "Dinner",
		Amount:    core.Money{Cents: 2500},
		Direction: core.Expense,
		Date:      daysAgo(0),
	}); err != nil {
		t.Fatalf("CreateEntry() error = %v", err)
	}
	cached, _ := env.stats.DailyTotals(ctx, env.user.ID, core.Expense)
	if cached[0].Total.Cents != 1500 {
		t.Errorf("cached total = %d, want 1500", cached[0].Total.Cents)
	}

	// Writes through the ledger service invalidate the user's entries
	env.addEntry(t, "Snack", 500, core.Expense, daysAgo(1))
	fresh, _ := env.stats.DailyTotals(ctx, env.user.ID, core.Expense)
	if len(fresh) != 2 || fresh[1].Total.Cents != 4000 {
		t.Errorf("fresh totals = %+v, want 2 days with 4000 today", fresh)
	}
}

func TestStatsService_InvalidationIsPerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.newUser(t, "bob")

	if _, err := env.stats.TopExpenses(ctx, env.user.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.stats.TopExpenses(ctx, bob.ID); err != nil {
		t.Fatal(err)
	}
	if got := env.stats.Cache().Size(); got != 2 {
		t.Fatalf("cache size = %d, want 2", got)
	}

	env.stats.InvalidateUser(env.user.ID)
	if got := env.stats.Cache().Size(); got != 1 {
		t.Errorf("cache size after invalidation = %d, want 1", got)
	}
}

func TestStatsService_ZeroTTLDisablesCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stats := NewStatsService(env.repo, 0)

	env.addEntry(t, "Lunch", 1500, core.Expense, daysAgo(0))
	if _, err := stats.DailyTotals(ctx, env.user.ID, core.Expense); err != nil {
		t.Fatal(err)
	}
	if _, err := env.repo.CreateEntry(ctx, core.LedgerEntry{
		OwnerID:   env.user.ID,
		Title:     "Dinner",
		Amount:    core.Money{Cents: 2500},
		Direction: core.Expense,
		Date:      daysAgo(0),
	}); err != nil {
		t.Fatal(err)
	}

	totals, _ := stats.DailyTotals(ctx, env.user.ID, core.Expense)
	if totals[0].Total.Cents != 4000 {
		t.Errorf("total = %d, want 4000 without caching", totals[0].Total.Cents)
	}
	if stats.Cache().Size() != 0 {
		t.Errorf("cache size = %d, want 0", stats.Cache().Size())
	}
}

func TestStatsService_MonthOverview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createCategory(t, env.user.ID, "Food", core.RecurringRule{})
	env.addEntry(t, "Food", 4000, core.Expense, core.NewDate(2025, 3, 2))
	env.addEntry(t, "Salary", 200000, core.Income, core.NewDate(2025, 3, 1))
	env.addEntry(t, "Food", 9999, core.Expense, core.NewDate(2025, 2, 28))

	ov, err := env.stats.MonthOverview(ctx, env.user.ID, 2025, 3)
	if err != nil {
		t.Fatalf("MonthOverview() error = %v", err)
	}
	if ov.Expense.Cents != 4000 || ov.Income.Cents != 200000 || ov.Balance.Cents != 196000 {
		t.Errorf("overview = %+v", ov)
	}
	if len(ov.ByCategory) != 1 || ov.ByCategory[0].Name != "Food" {
		t.Errorf("ByCategory = %+v, want only Food", ov.ByCategory)
	}

	tests := []struct {
		name  string
		month int
	}{
		{"zero", 0},
		{"thirteen", 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.stats.MonthOverview(ctx, env.user.ID, 2025, tt.month); !errors.Is(err, core.ErrInvalidMonth) {
				t.Errorf("MonthOverview(%d) error = %v, want ErrInvalidMonth", tt.month, err)
			}
		})
	}

	if _, err := env.stats.DailyTotals(ctx, env.user.ID, core.Direction("Sideways")); !errors.Is(err, core.ErrInvalidDirection) {
		t.Errorf("DailyTotals(bad) error = %v, want ErrInvalidDirection", err)
	}
}

func TestStatsService_InvalidationDuringLoad(t *testing.T) {
	env := newTestEnv(t)
	key := userPrefix(env.user.ID) + "top"

	// The user writes while the first load is still reading
	stale, err := cached(env.stats, env.user.ID, key, func() (int, error) {
		env.stats.InvalidateUser(env.user.ID)
		return 1, nil
	})
	if err != nil || stale != 1 {
		t.Fatalf("cached() = %d, %v", stale, err)
	}
	if got := env.stats.Cache().Size(); got != 0 {
		t.Fatalf("cache size = %d, want the stale load dropped", got)
	}

	fresh, _ := cached(env.stats, env.user.ID, key, func() (int, error) { return 2, nil })
	if fresh != 2 {
		t.Errorf("cached() after invalidation = %d, want a fresh load", fresh)
	}
	again, _ := cached(env.stats, env.user.ID, key, func() (int, error) { return 3, nil })
	if again != 2 {
		t.Errorf("cached() = %d, want the stored fresh value", again)
	}
}
