package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

const (
	topExpensesLimit = 5
	statsCacheSize   = 500
)

// StatsService serves the read models of the stats screen, cached per user.
// Only writes made through this process invalidate the cache; entries written
// by another process (the recurring worker) show up once CACHE_TTL expires.
type StatsService struct {
	storage *storage.SQLiteRepository
	cache   *cache.LRUCache[any]
	group   singleflight.Group
	enabled bool

	mu          sync.Mutex
	generations map[int64]uint64
}

// NewStatsService caches results for ttl; a zero ttl disables caching.
func NewStatsService(storage *storage.SQLiteRepository, ttl time.Duration) *StatsService {
	return &StatsService{
		storage: storage,
		cache:   cache.NewLRUCache[any](statsCacheSize, ttl),
		enabled: ttl > 0,

		generations: make(map[int64]uint64),
	}
}

// Cache exposes the underlying cache so a cache.Manager can sweep it.
func (s *StatsService) Cache() *cache.LRUCache[any] {
	return s.cache
}

// InvalidateUser drops every cached result of userID. Loads already running
// for the user finish but do not store their result.
func (s *StatsService) InvalidateUser(userID int64) {
	s.mu.Lock()
	s.generations[userID]++
	s.mu.Unlock()

	if n := s.cache.DeletePrefix(userPrefix(userID)); n > 0 {
		slog.Debug("Stats cache invalidated", "user_id", userID, "entries", n)
	}
}

// TopExpenses returns the user's five largest expenses.
func (s *StatsService) TopExpenses(ctx context.Context, userID int64) ([]core.LedgerEntry, error) {
	key := fmt.Sprintf("%stop", userPrefix(userID))
	return cached(s, userID, key, func() ([]core.LedgerEntry, error) {
		return s.storage.TopExpenses(ctx, userID, topExpensesLimit)
	})
}

// DailyTotals sums one direction's entries per date, oldest first.
func (s *StatsService) DailyTotals(ctx context.Context, userID int64, direction core.Direction) ([]core.DailyTotal, error) {
	if err := direction.Validate(); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%sdaily:%s", userPrefix(userID), direction)
	return cached(s, userID, key, func() ([]core.DailyTotal, error) {
		return s.storage.DailyTotals(ctx, userID, direction)
	})
}

// MonthOverview returns totals, balance and per-category amounts for one month.
func (s *StatsService) MonthOverview(ctx context.Context, userID int64, year, month int) (core.MonthOverview, error) {
	if month < 1 || month > 12 {
		return core.MonthOverview{}, core.ErrInvalidMonth
	}
	key := fmt.Sprintf("%smonth:%04d-%02d", userPrefix(userID), year, month)
	return cached(s, userID, key, func() (core.MonthOverview, error) {
		return s.storage.ReadMonthOverview(ctx, userID, year, month)
	})
}

func (s *StatsService) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// cached serves key from the cache and collapses concurrent misses into one
// load. Misses after an invalidation start a new load instead of joining one
// that began before it.
func cached[T any](s *StatsService, userID int64, key string, load func() (T, error)) (T, error) {
	if !s.enabled {
		return load()
	}
	if v, ok := s.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	gen := s.generation(userID)
	v, err, _ := s.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		res, err := load()
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.generations[userID] == gen {
			s.cache.Set(key, res)
		}
		s.mu.Unlock()
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func userPrefix(userID int64) string {
	return fmt.Sprintf("u%d:", userID)
}
