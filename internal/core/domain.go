package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Weekly  Cadence = "WEEKLY"
	Monthly Cadence = "MONTHLY"

	Expense Direction = "Expense"
	Income  Direction = "Income"

	// DefaultCategoryName is the fallback category every user owns.
	DefaultCategoryName = "Other"

	// LastFiredLayout is the storage layout of a rule watermark (dd/MM/yyyy).
	LastFiredLayout = "02/01/2006"

	// AutoTransactionNote marks ledger entries created by the recurring processor.
	AutoTransactionNote = "Auto transaction"

	maxNameLength = 100
	maxNoteLength = 500
)

type (
	// Cadence is the recurrence period of a recurring rule.
	Cadence string

	// Direction tells whether a ledger entry debits (Expense) or credits (Income).
	Direction string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// RecurringRule is the auto-transaction configuration stored on a category.
	RecurringRule struct {
		Enabled    bool
		Amount     Money
		Direction  Direction
		Cadence    Cadence
		WeeklyDay  *int   // 1=Monday .. 7=Sunday
		MonthlyDay *int   // 1..28
		LastFired  string // raw dd/MM/yyyy; empty when never fired
	}

	Category struct {
		ID      int64
		OwnerID int64
		Name    string
		Rule    RecurringRule
	}

	LedgerEntry struct {
		ID         int64
		OwnerID    int64
		CategoryID *int64
		GoalID     *int64
		Title      string
		Amount     Money
		Date       Date
		Direction  Direction
		Note       string
		CreatedAt  time.Time
	}

	Goal struct {
		ID              int64
		OwnerID         int64
		Name            string
		TargetAmount    Money
		Frequency       Cadence // empty when the goal has no reminder cadence
		ReminderEnabled bool
	}

	Notification struct {
		ID        int64
		OwnerID   int64
		Title     string
		Message   string
		Timestamp time.Time
		Read      bool
		Type      NotificationType
	}

	NotificationType string

	User struct {
		ID           int64
		Username     string
		PasswordHash []byte
	}
)

const (
	NotificationCategoryCreated NotificationType = "CATEGORY_CREATED"
	NotificationGoalCreated     NotificationType = "GOAL_CREATED"
	NotificationAutoTransaction NotificationType = "AUTO_TRANSACTION"
)

var (
	ErrInvalidDay        = errors.New("invalid day")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrInvalidCadence    = errors.New("invalid cadence")
	ErrInvalidWeeklyDay  = errors.New("weekly day must be between 1 and 7")
	ErrInvalidMonthlyDay = errors.New("monthly day must be between 1 and 28")
	ErrEmptyName         = errors.New("empty name")
	ErrNameTooLong       = errors.New("name too long")
	ErrNoteTooLong       = errors.New("note too long")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateName     = errors.New("name already exists")
	ErrDefaultCategory   = errors.New("default category cannot be renamed or deleted")
)

// ParseDirection accepts the stored spelling as well as debit/credit aliases.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expense", "debit":
		return Expense, nil
	case "income", "credit":
		return Income, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// ParseCadence normalizes a cadence name; the empty string maps to the empty cadence.
func ParseCadence(s string) (Cadence, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case string(Weekly):
		return Weekly, nil
	case string(Monthly):
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCadence, s)
}

func (d Direction) Validate() error {
	switch d {
	case Expense, Income:
		return nil
	}
	return ErrInvalidDirection
}

// Sign is +1 for income and -1 for expenses.
func (d Direction) Sign() int64 {
	if d == Income {
		return 1
	}
	return -1
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String renders the date in the ledger layout (dd/MM/yyyy).
func (d Date) String() string {
	return d.Format(LastFiredLayout)
}

// MonthKey renders the MM/yyyy filter key used by month-scoped queries.
func (d Date) MonthKey() string {
	return d.Format("01/2006")
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses the dd/MM/yyyy ledger layout.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(LastFiredLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// ParseISODate parses the yyyy-MM-dd layout used by the HTTP API.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// ValidateMonthKey checks an MM/yyyy month filter.
func ValidateMonthKey(s string) error {
	if _, err := time.Parse("01/2006", s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// Validate checks the rule as configured by the user. A disabled rule may carry
// a zero amount; day fields are checked whenever they are set.
func (r RecurringRule) Validate() error {
	if r.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if r.Enabled {
		if err := r.Amount.Validate(); err != nil {
			return err
		}
	}
	if err := r.Direction.Validate(); err != nil {
		return err
	}
	switch r.Cadence {
	case Weekly, Monthly:
	default:
		return ErrInvalidCadence
	}
	if r.WeeklyDay != nil && (*r.WeeklyDay < 1 || *r.WeeklyDay > 7) {
		return ErrInvalidWeeklyDay
	}
	if r.MonthlyDay != nil && (*r.MonthlyDay < 1 || *r.MonthlyDay > 28) {
		return ErrInvalidMonthlyDay
	}
	return nil
}

// DefaultRule is the configuration of a freshly created category.
func DefaultRule() RecurringRule {
	return RecurringRule{
		Direction: Expense,
		Cadence:   Weekly,
	}
}

func (c Category) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	if err := c.Rule.Validate(); err != nil {
		return fmt.Errorf("recurring rule: %w", err)
	}
	return nil
}

// IsDefault reports whether the category is the undeletable fallback.
func (c Category) IsDefault() bool {
	return IsDefaultCategoryName(c.Name)
}

// IsDefaultCategoryName compares case-insensitively after trimming.
func IsDefaultCategoryName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), DefaultCategoryName)
}

func (e LedgerEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := validateName(e.Title); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Direction.Validate(); err != nil {
		return err
	}
	if len(e.Note) > maxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}

// Signed returns the amount with income positive and expenses negative.
func (e LedgerEntry) Signed() int64 {
	return e.Direction.Sign() * e.Amount.Cents
}

func (g Goal) Validate() error {
	if err := validateName(g.Name); err != nil {
		return err
	}
	if g.TargetAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	switch g.Frequency {
	case "", Weekly, Monthly:
	default:
		return ErrInvalidCadence
	}
	return nil
}
