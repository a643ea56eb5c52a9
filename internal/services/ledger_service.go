package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// LedgerPublisher announces new ledger entries to the export pipeline.
type LedgerPublisher interface {
	PublishLedgerCreated(ctx context.Context, id, ownerID int64) error
}

// CacheInvalidator drops cached read models of a user after a write.
type CacheInvalidator interface {
	InvalidateUser(userID int64)
}

// DateRange is a relative window over entry dates.
type DateRange string

const (
	RangeAll         DateRange = "all"
	RangeToday       DateRange = "today"
	RangeYesterday   DateRange = "yesterday"
	RangeLast30Days  DateRange = "last_30_days"
	RangeLast90Days  DateRange = "last_90_days"
	RangeLast365Days DateRange = "last_365_days"
)

var ErrInvalidDateRange = errors.New("invalid date range")

func ParseDateRange(s string) (DateRange, error) {
	switch r := DateRange(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RangeAll, nil
	case RangeAll, RangeToday, RangeYesterday, RangeLast30Days, RangeLast90Days, RangeLast365Days:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDateRange, s)
}

// Bounds returns the inclusive date window relative to today. Nil means unbounded.
func (r DateRange) Bounds(today core.Date) (from, to *core.Date) {
	day := func(offset int) *core.Date {
		d := core.Date{Time: today.AddDate(0, 0, offset)}
		return &d
	}
	switch r {
	case RangeToday:
		return day(0), day(0)
	case RangeYesterday:
		return day(-1), day(-1)
	case RangeLast30Days:
		return day(-30), nil
	case RangeLast90Days:
		return day(-90), nil
	case RangeLast365Days:
		return day(-365), nil
	}
	return nil, nil
}

// EntryQuery is the user-facing listing filter.
type EntryQuery struct {
	Direction  string // all, expense or income
	Range      DateRange
	CategoryID *int64
	GoalID     *int64
	MonthKey   string // MM/yyyy
}

// LedgerService records ledger entries in SQLite and announces them over AMQP.
type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher LedgerPublisher
	cache     CacheInvalidator
	now       func() time.Time
}

// NewLedgerService accepts nil publisher and cache; both steps are then skipped.
func NewLedgerService(storage *storage.SQLiteRepository, publisher LedgerPublisher, cache CacheInvalidator) *LedgerService {
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
		cache:     cache,
		now:       time.Now,
	}
}

func (s *LedgerService) today() core.Date {
	return core.DateOf(s.now())
}

// CreateEntry saves an entry for userID and publishes a ledger.created message.
//
// A blank title files the entry under the default category. Otherwise, when no
// category or goal is given, a category whose name equals the title is bound.
func (s *LedgerService) CreateEntry(ctx context.Context, userID int64, e core.LedgerEntry) (core.LedgerEntry, error) {
	e.OwnerID = userID
	e.Title = strings.TrimSpace(e.Title)
	e.Note = strings.TrimSpace(e.Note)
	if e.Date.IsZero() {
		e.Date = s.today()
	}

	if err := s.resolveRefs(ctx, &e); err != nil {
		return core.LedgerEntry{}, err
	}
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	// Save to SQLite first (fast, reliable)
	saved, err := s.storage.CreateEntry(ctx, e)
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("save ledger entry: %w", err)
	}
	s.invalidate(userID)

	if err := s.publishCreated(ctx, saved); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger entry message",
			"id", saved.ID, "error", err)
		// Don't fail the request - the export sweep picks pending entries up
	}

	return saved, nil
}

// UpdateEntry rewrites an existing entry; the export sweep re-sends it.
func (s *LedgerService) UpdateEntry(ctx context.Context, userID int64, e core.LedgerEntry) (core.LedgerEntry, error) {
	existing, err := s.storage.GetEntry(ctx, userID, e.ID)
	if err != nil {
		return core.LedgerEntry{}, err
	}

	e.OwnerID = userID
	e.CreatedAt = existing.CreatedAt
	e.Title = strings.TrimSpace(e.Title)
	e.Note = strings.TrimSpace(e.Note)
	if e.Date.IsZero() {
		e.Date = existing.Date
	}
	if err := s.resolveRefs(ctx, &e); err != nil {
		return core.LedgerEntry{}, err
	}
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	if err := s.storage.UpdateEntry(ctx, e); err != nil {
		return core.LedgerEntry{}, err
	}
	s.invalidate(userID)
	return e, nil
}

func (s *LedgerService) DeleteEntry(ctx context.Context, userID, id int64) error {
	if err := s.storage.DeleteEntry(ctx, userID, id); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *LedgerService) GetEntry(ctx context.Context, userID, id int64) (core.LedgerEntry, error) {
	return s.storage.GetEntry(ctx, userID, id)
}

// ListEntries returns the user's entries matching q, newest date first.
func (s *LedgerService) ListEntries(ctx context.Context, userID int64, q EntryQuery) ([]core.LedgerEntry, error) {
	var f storage.LedgerFilter

	switch strings.ToLower(strings.TrimSpace(q.Direction)) {
	case "", "all":
	default:
		d, err := core.ParseDirection(q.Direction)
		if err != nil {
			return nil, err
		}
		f.Direction = d
	}

	if q.Range != "" {
		r, err := ParseDateRange(string(q.Range))
		if err != nil {
			return nil, err
		}
		f.From, f.To = r.Bounds(s.today())
	}

	if q.MonthKey != "" {
		if err := core.ValidateMonthKey(q.MonthKey); err != nil {
			return nil, err
		}
		f.MonthKey = q.MonthKey
	}
	f.CategoryID = q.CategoryID
	f.GoalID = q.GoalID

	return s.storage.ListEntries(ctx, userID, f)
}

// resolveRefs checks ownership of referenced category and goal and applies
// the title binding rules.
func (s *LedgerService) resolveRefs(ctx context.Context, e *core.LedgerEntry) error {
	if e.CategoryID != nil {
		if _, err := s.storage.GetCategory(ctx, e.OwnerID, *e.CategoryID); err != nil {
			return fmt.Errorf("category %d: %w", *e.CategoryID, err)
		}
	}
	if e.GoalID != nil {
		if _, err := s.storage.GetGoal(ctx, e.OwnerID, *e.GoalID); err != nil {
			return fmt.Errorf("goal %d: %w", *e.GoalID, err)
		}
	}

	if e.Title == "" {
		def, err := s.storage.EnsureDefaultCategory(ctx, e.OwnerID)
		if err != nil {
			return err
		}
		e.Title = def.Name
		if e.CategoryID == nil {
			e.CategoryID = &def.ID
		}
		return nil
	}

	if e.CategoryID != nil || e.GoalID != nil {
		return nil
	}
	c, err := s.storage.GetCategoryByName(ctx, e.OwnerID, e.Title)
	switch {
	case err == nil:
		e.CategoryID = &c.ID
	case !errors.Is(err, core.ErrNotFound):
		return fmt.Errorf("match category: %w", err)
	}
	return nil
}

func (s *LedgerService) publishCreated(ctx context.Context, e core.LedgerEntry) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping ledger message")
		return nil
	}

	return s.publisher.PublishLedgerCreated(ctx, e.ID, e.OwnerID)
}

func (s *LedgerService) invalidate(userID int64) {
	if s.cache != nil {
		s.cache.InvalidateUser(userID)
	}
}
