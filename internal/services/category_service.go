package services

import (
	"context"
	"fmt"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// CategoryService manages categories and their recurring rules.
type CategoryService struct {
	storage       *storage.SQLiteRepository
	notifications *NotificationService
	cache         CacheInvalidator
}

func NewCategoryService(storage *storage.SQLiteRepository, notifications *NotificationService, cache CacheInvalidator) *CategoryService {
	return &CategoryService{
		storage:       storage,
		notifications: notifications,
		cache:         cache,
	}
}

func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, userID)
}

func (s *CategoryService) Get(ctx context.Context, userID, id int64) (core.Category, error) {
	return s.storage.GetCategory(ctx, userID, id)
}

// Create stores a new category and notifies the user. An unset rule gets the defaults.
func (s *CategoryService) Create(ctx context.Context, userID int64, c core.Category) (core.Category, error) {
	c.OwnerID = userID
	c.Name = strings.TrimSpace(c.Name)
	c.Rule = withRuleDefaults(c.Rule)
	c.Rule.LastFired = ""
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	created, err := s.storage.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.invalidate(userID)

	s.notifications.notifyQuietly(ctx, userID, core.NotificationCategoryCreated,
		"New category", fmt.Sprintf("Category %q was created.", created.Name))

	return created, nil
}

// Update renames the category and replaces its rule. The watermark is kept
// and the default category keeps its name.
func (s *CategoryService) Update(ctx context.Context, userID int64, c core.Category) (core.Category, error) {
	existing, err := s.storage.GetCategory(ctx, userID, c.ID)
	if err != nil {
		return core.Category{}, err
	}

	c.OwnerID = userID
	c.Name = strings.TrimSpace(c.Name)
	if existing.IsDefault() && !core.IsDefaultCategoryName(c.Name) {
		return core.Category{}, core.ErrDefaultCategory
	}
	c.Rule = withRuleDefaults(c.Rule)
	c.Rule.LastFired = existing.Rule.LastFired
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	if err := s.storage.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	s.invalidate(userID)
	return c, nil
}

// UpdateRule replaces only the recurring configuration.
func (s *CategoryService) UpdateRule(ctx context.Context, userID, id int64, rule core.RecurringRule) (core.Category, error) {
	c, err := s.storage.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	rule = withRuleDefaults(rule)
	rule.LastFired = c.Rule.LastFired
	c.Rule = rule
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.storage.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// SetAutoEnabled toggles the recurring rule. Enabling requires a positive amount.
func (s *CategoryService) SetAutoEnabled(ctx context.Context, userID, id int64, enabled bool) (core.Category, error) {
	c, err := s.storage.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	c.Rule.Enabled = enabled
	if err := c.Rule.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("recurring rule: %w", err)
	}
	if err := s.storage.SetCategoryAutoEnabled(ctx, userID, id, enabled); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// Delete moves the category's entries to the default category and removes it.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	c, err := s.storage.GetCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if c.IsDefault() {
		return core.ErrDefaultCategory
	}

	def, err := s.storage.EnsureDefaultCategory(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteCategory(ctx, userID, id, def.ID); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// Totals sums each category's entries, optionally for one MM/yyyy month.
func (s *CategoryService) Totals(ctx context.Context, userID int64, monthKey string) ([]core.CategoryAmount, error) {
	if monthKey != "" {
		if err := core.ValidateMonthKey(monthKey); err != nil {
			return nil, err
		}
	}
	return s.storage.CategoryTotals(ctx, userID, monthKey)
}

// Entries lists the category's entries, optionally for one MM/yyyy month.
func (s *CategoryService) Entries(ctx context.Context, userID, id int64, monthKey string) ([]core.LedgerEntry, error) {
	if _, err := s.storage.GetCategory(ctx, userID, id); err != nil {
		return nil, err
	}
	if monthKey != "" {
		if err := core.ValidateMonthKey(monthKey); err != nil {
			return nil, err
		}
	}
	return s.storage.ListEntries(ctx, userID, storage.LedgerFilter{CategoryID: &id, MonthKey: monthKey})
}

func (s *CategoryService) invalidate(userID int64) {
	if s.cache != nil {
		s.cache.InvalidateUser(userID)
	}
}

func withRuleDefaults(r core.RecurringRule) core.RecurringRule {
	def := core.DefaultRule()
	if r.Direction == "" {
		r.Direction = def.Direction
	}
	if r.Cadence == "" {
		r.Cadence = def.Cadence
	}
	return r
}
