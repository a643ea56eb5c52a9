package services

import (
	"errors"
	"testing"
	"time"

	"expensetracker/internal/core"
)

func intPtr(v int) *int { return &v }

func TestWeeklyChecker_IsScheduledDay(t *testing.T) {
	checker := WeeklyChecker{}
	monday := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		day   *int
		today time.Time
		want  bool
	}{
		{"unset weekday matches any day", nil, monday, true},
		{"monday configured on monday", intPtr(1), monday, true},
		{"tuesday configured on monday", intPtr(2), monday, false},
		{"sunday is 7", intPtr(7), sunday, true},
		{"monday configured on sunday", intPtr(1), sunday, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := core.RecurringRule{Cadence: core.Weekly, WeeklyDay: tt.day}
			if got := checker.IsScheduledDay(rule, tt.today); got != tt.want {
				t.Errorf("WeeklyChecker.IsScheduledDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyChecker_SamePeriod(t *testing.T) {
	checker := WeeklyChecker{}

	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			name: "same week",
			a:    time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "consecutive weeks",
			a:    time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "iso week spans new year",
			a:    time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "same week number different year",
			a:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			b:    time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.SamePeriod(tt.a, tt.b); got != tt.want {
				t.Errorf("WeeklyChecker.SamePeriod() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker_IsScheduledDay(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name  string
		day   *int
		today time.Time
		want  bool
	}{
		{"unset day on the 10th", nil, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), true},
		{"unset day on the 28th", nil, time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC), true},
		{"unset day on the 31st caps at 28", nil, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), false},
		{"configured day matches", intPtr(15), time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), true},
		{"configured day differs", intPtr(15), time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := core.RecurringRule{Cadence: core.Monthly, MonthlyDay: tt.day}
			if got := checker.IsScheduledDay(rule, tt.today); got != tt.want {
				t.Errorf("MonthlyChecker.IsScheduledDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker_SamePeriod(t *testing.T) {
	checker := MonthlyChecker{}
	jan15 := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	if !checker.SamePeriod(jan15, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected same month to be the same period")
	}
	if checker.SamePeriod(jan15, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected different months to differ")
	}
	if checker.SamePeriod(jan15, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected same month of different years to differ")
	}
}

func TestGetCadenceChecker(t *testing.T) {
	tests := []struct {
		cadence core.Cadence
		wantErr bool
	}{
		{core.Weekly, false},
		{core.Monthly, false},
		{"DAILY", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.cadence), func(t *testing.T) {
			checker, err := GetCadenceChecker(tt.cadence)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidCadence) {
					t.Errorf("expected ErrInvalidCadence, got %v", err)
				}
				return
			}
			if err != nil || checker == nil {
				t.Errorf("GetCadenceChecker(%q) = %v, %v", tt.cadence, checker, err)
			}
		})
	}
}

type everyDayChecker struct{}

func (everyDayChecker) IsScheduledDay(core.RecurringRule, time.Time) bool { return true }
func (everyDayChecker) SamePeriod(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func TestRegisterCadenceChecker(t *testing.T) {
	const daily core.Cadence = "DAILY"
	RegisterCadenceChecker(daily, everyDayChecker{})
	t.Cleanup(func() { delete(cadenceStrategies, daily) })

	checker, err := GetCadenceChecker(daily)
	if err != nil {
		t.Fatalf("GetCadenceChecker() error = %v", err)
	}
	if _, ok := checker.(everyDayChecker); !ok {
		t.Errorf("GetCadenceChecker() returned %T", checker)
	}
}
