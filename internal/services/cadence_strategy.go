// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring rule cadences.
// Each cadence (weekly, monthly) has a checker that knows which calendar day
// the rule is scheduled on and what counts as "the same period".

package services

import (
	"fmt"
	"time"

	"expensetracker/internal/core"
)

// CadenceChecker is the strategy interface for a recurrence period.
type CadenceChecker interface {
	// IsScheduledDay returns true if today is the day the rule is configured to fire on.
	IsScheduledDay(rule core.RecurringRule, today time.Time) bool

	// SamePeriod returns true if both dates fall in the same recurrence period.
	SamePeriod(a, b time.Time) bool
}

// WeeklyChecker implements CadenceChecker for weekly rules.
type WeeklyChecker struct{}

// IsScheduledDay compares today's ISO weekday (1=Monday..7=Sunday) with the
// configured one. An unset weekday means any day.
func (WeeklyChecker) IsScheduledDay(rule core.RecurringRule, today time.Time) bool {
	todayWeekday := isoWeekday(today)
	desired := todayWeekday
	if rule.WeeklyDay != nil {
		desired = *rule.WeeklyDay
	}
	return todayWeekday == desired
}

// SamePeriod compares ISO (year, week) pairs.
func (WeeklyChecker) SamePeriod(a, b time.Time) bool {
	ay, aw := a.ISOWeek()
	by, bw := b.ISOWeek()
	return ay == by && aw == bw
}

// MonthlyChecker implements CadenceChecker for monthly rules.
type MonthlyChecker struct{}

// IsScheduledDay compares the day of month with the configured one. An unset
// day defaults to today's day capped at 28.
func (MonthlyChecker) IsScheduledDay(rule core.RecurringRule, today time.Time) bool {
	desired := min(today.Day(), 28)
	if rule.MonthlyDay != nil {
		desired = *rule.MonthlyDay
	}
	return today.Day() == desired
}

// SamePeriod compares (year, month) pairs.
func (MonthlyChecker) SamePeriod(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// isoWeekday maps time.Weekday (Sunday=0) onto 1=Monday..7=Sunday.
func isoWeekday(t time.Time) int {
	return (int(t.Weekday())+6)%7 + 1
}

// cadenceStrategies maps cadences to their checkers.
var cadenceStrategies = map[core.Cadence]CadenceChecker{
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
}

// GetCadenceChecker returns the checker for a cadence, or an error if the cadence is unknown.
func GetCadenceChecker(cadence core.Cadence) (CadenceChecker, error) {
	checker, ok := cadenceStrategies[cadence]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidCadence, cadence)
	}
	return checker, nil
}

// RegisterCadenceChecker registers a checker for a new cadence. Not safe for
// concurrent use with evaluation; call it during program initialization.
func RegisterCadenceChecker(cadence core.Cadence, checker CadenceChecker) {
	cadenceStrategies[cadence] = checker
}
