package services

import (
	"context"
	"errors"
	"testing"

	"expensetracker/internal/core"
)

func TestCategoryService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c := env.createCategory(t, env.user.ID, "  Groceries ", core.RecurringRule{})
	if c.Name != "Groceries" {
		t.Errorf("Name = %q, want trimmed", c.Name)
	}
	if c.Rule.Direction != core.Expense || c.Rule.Cadence != core.Weekly {
		t.Errorf("rule defaults not applied: %+v", c.Rule)
	}

	notes, err := env.notifications.List(ctx, env.user.ID)
	if err != nil {
		t.Fatalf("List notifications error = %v", err)
	}
	if len(notes) != 1 || notes[0].Type != core.NotificationCategoryCreated {
		t.Fatalf("notifications = %+v, want one CATEGORY_CREATED", notes)
	}

	tests := []struct {
		name    string
		cat     core.Category
		wantErr error
	}{
		{"duplicate ignoring case", core.Category{Name: "groceries"}, core.ErrDuplicateName},
		{"empty name", core.Category{Name: "   "}, core.ErrEmptyName},
		{"monthly day out of range", core.Category{Name: "Rent", Rule: core.RecurringRule{
			Cadence: core.Monthly, MonthlyDay: intPtr(31),
		}}, core.ErrInvalidMonthlyDay},
		{"enabled without amount", core.Category{Name: "Gym", Rule: core.RecurringRule{Enabled: true}}, core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.categories.Create(ctx, env.user.ID, tt.cat)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategoryService_DefaultCategoryIsProtected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	def, err := env.repo.GetCategoryByName(ctx, env.user.ID, core.DefaultCategoryName)
	if err != nil {
		t.Fatalf("default category missing: %v", err)
	}

	def.Name = "Misc"
	if _, err := env.categories.Update(ctx, env.user.ID, def); !errors.Is(err, core.ErrDefaultCategory) {
		t.Errorf("rename default error = %v, want ErrDefaultCategory", err)
	}
	if err := env.categories.Delete(ctx, env.user.ID, def.ID); !errors.Is(err, core.ErrDefaultCategory) {
		t.Errorf("delete default error = %v, want ErrDefaultCategory", err)
	}

	// Editing the default's rule without renaming is allowed
	def.Name = "other"
	def.Rule = core.RecurringRule{Enabled: true, Amount: core.Money{Cents: 100}, Cadence: core.Monthly}
	if _, err := env.categories.Update(ctx, env.user.ID, def); err != nil {
		t.Errorf("update default rule error = %v", err)
	}
}

func TestCategoryService_RenameKeepsEntries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c := env.createCategory(t, env.user.ID, "Food", core.RecurringRule{})
	env.addEntry(t, "Food", 1200, core.Expense, daysAgo(0))

	c.Name = "Meals"
	if _, err := env.categories.Update(ctx, env.user.ID, c); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	entries, err := env.categories.Entries(ctx, env.user.ID, c.ID, "")
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries after rename = %d, want 1", len(entries))
	}
}

func TestCategoryService_DeleteReassignsToDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c := env.createCategory(t, env.user.ID, "Hobby", core.RecurringRule{})
	e := env.addEntry(t, "Hobby", 900, core.Expense, daysAgo(0))

	if err := env.categories.Delete(ctx, env.user.ID, c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := env.categories.Get(ctx, env.user.ID, c.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	def, _ := env.repo.GetCategoryByName(ctx, env.user.ID, core.DefaultCategoryName)
	got, err := env.ledger.GetEntry(ctx, env.user.ID, e.ID)
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if got.CategoryID == nil || *got.CategoryID != def.ID {
		t.Errorf("CategoryID = %v, want default %d", got.CategoryID, def.ID)
	}
}

func TestCategoryService_RuleChanges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	c := env.createCategory(t, env.user.ID, "Salary", core.RecurringRule{})

	if _, err := env.categories.SetAutoEnabled(ctx, env.user.ID, c.ID, true); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("enable without amount error = %v, want ErrInvalidAmount", err)
	}

	rule := core.RecurringRule{
		Amount:     core.Money{Cents: 250000},
		Direction:  core.Income,
		Cadence:    core.Monthly,
		MonthlyDay: intPtr(27),
	}
	if _, err := env.categories.UpdateRule(ctx, env.user.ID, c.ID, rule); err != nil {
		t.Fatalf("UpdateRule() error = %v", err)
	}
	if err := env.repo.UpdateCategoryWatermark(ctx, env.user.ID, c.ID, "27/02/2025"); err != nil {
		t.Fatalf("UpdateCategoryWatermark() error = %v", err)
	}

	got, err := env.categories.SetAutoEnabled(ctx, env.user.ID, c.ID, true)
	if err != nil {
		t.Fatalf("SetAutoEnabled() error = %v", err)
	}
	if !got.Rule.Enabled {
		t.Error("rule should be enabled")
	}

	// Editing the rule keeps the watermark
	rule.Enabled = true
	rule.MonthlyDay = intPtr(28)
	updated, err := env.categories.UpdateRule(ctx, env.user.ID, c.ID, rule)
	if err != nil {
		t.Fatalf("UpdateRule() error = %v", err)
	}
	if updated.Rule.LastFired != "27/02/2025" {
		t.Errorf("LastFired = %q, want preserved", updated.Rule.LastFired)
	}

	stored, _ := env.categories.Get(ctx, env.user.ID, c.ID)
	if stored.Rule.MonthlyDay == nil || *stored.Rule.MonthlyDay != 28 || stored.Rule.LastFired != "27/02/2025" {
		t.Errorf("stored rule = %+v", stored.Rule)
	}
}

func TestCategoryService_Totals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createCategory(t, env.user.ID, "Food", core.RecurringRule{})
	env.createCategory(t, env.user.ID, "Salary", core.RecurringRule{})
	env.addEntry(t, "Food", 3000, core.Expense, daysAgo(0))
	env.addEntry(t, "Food", 500, core.Income, daysAgo(0))
	env.addEntry(t, "Salary", 100000, core.Income, daysAgo(0))
	env.addEntry(t, "Food", 7000, core.Expense, daysAgo(40))

	totals, err := env.categories.Totals(ctx, env.user.ID, "03/2025")
	if err != nil {
		t.Fatalf("Totals() error = %v", err)
	}
	want := map[string]int64{"Salary": 100000, "Food": -2500, core.DefaultCategoryName: 0}
	if len(totals) != len(want) {
		t.Fatalf("totals = %+v", totals)
	}
	if totals[0].Name != "Salary" {
		t.Errorf("first total = %q, want Salary (descending)", totals[0].Name)
	}
	for _, ta := range totals {
		if want[ta.Name] != ta.Amount.Cents {
			t.Errorf("total %s = %d, want %d", ta.Name, ta.Amount.Cents, want[ta.Name])
		}
	}

	all, _ := env.categories.Totals(ctx, env.user.ID, "")
	for _, ta := range all {
		if ta.Name == "Food" && ta.Amount.Cents != -9500 {
			t.Errorf("all-time Food = %d, want -9500", ta.Amount.Cents)
		}
	}

	if _, err := env.categories.Totals(ctx, env.user.ID, "13/2025"); err == nil {
		t.Error("expected error for invalid month key")
	}
}
