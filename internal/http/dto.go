package http

import (
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/services"
)

const isoDate = "2006-01-02"

// money is rendered both as a decimal string and as integer cents.
type money struct {
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Display     string `json:"display"`
}

func toMoney(m core.Money) money {
	return money{
		Amount:      m.Decimal().StringFixed(2),
		AmountCents: m.Cents,
		Display:     m.String(),
	}
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type entryRequest struct {
	Title      string `json:"title"`
	Amount     string `json:"amount"`
	Date       string `json:"date"`
	Direction  string `json:"direction"`
	CategoryID *int64 `json:"category_id"`
	GoalID     *int64 `json:"goal_id"`
	Note       string `json:"note"`
}

func (req entryRequest) toEntry() (core.LedgerEntry, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	dir, err := core.ParseDirection(req.Direction)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	return core.LedgerEntry{
		CategoryID: req.CategoryID,
		GoalID:     req.GoalID,
		Title:      sanitizeInput(req.Title),
		Amount:     amount,
		Date:       date,
		Direction:  dir,
		Note:       sanitizeInput(req.Note),
	}, nil
}

type entryResponse struct {
	money
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Date       string    `json:"date"`
	Direction  string    `json:"direction"`
	CategoryID *int64    `json:"category_id"`
	GoalID     *int64    `json:"goal_id"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

func toEntryResponse(e core.LedgerEntry) entryResponse {
	return entryResponse{
		ID:         e.ID,
		Title:      e.Title,
		money:      toMoney(e.Amount),
		Date:       e.Date.Format(isoDate),
		Direction:  string(e.Direction),
		CategoryID: e.CategoryID,
		GoalID:     e.GoalID,
		Note:       e.Note,
		CreatedAt:  e.CreatedAt,
	}
}

func toEntryResponses(entries []core.LedgerEntry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}

type ruleRequest struct {
	Enabled    bool   `json:"enabled"`
	Amount     string `json:"amount"`
	Direction  string `json:"direction"`
	Cadence    string `json:"cadence"`
	WeeklyDay  *int   `json:"weekly_day"`
	MonthlyDay *int   `json:"monthly_day"`
}

func (req ruleRequest) toRule() (core.RecurringRule, error) {
	amount, err := parseOptionalAmount(req.Amount)
	if err != nil {
		return core.RecurringRule{}, err
	}
	dir, err := parseOptionalDirection(req.Direction)
	if err != nil {
		return core.RecurringRule{}, err
	}
	cadence, err := core.ParseCadence(req.Cadence)
	if err != nil {
		return core.RecurringRule{}, err
	}
	return core.RecurringRule{
		Enabled:    req.Enabled,
		Amount:     amount,
		Direction:  dir,
		Cadence:    cadence,
		WeeklyDay:  req.WeeklyDay,
		MonthlyDay: req.MonthlyDay,
	}, nil
}

type ruleResponse struct {
	money
	Enabled    bool   `json:"enabled"`
	Direction  string `json:"direction"`
	Cadence    string `json:"cadence"`
	WeeklyDay  *int   `json:"weekly_day"`
	MonthlyDay *int   `json:"monthly_day"`
	LastFired  string `json:"last_fired"`
}

type categoryRequest struct {
	Name string       `json:"name"`
	Rule *ruleRequest `json:"rule"`
}

type categoryResponse struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	IsDefault bool         `json:"is_default"`
	Rule      ruleResponse `json:"rule"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		IsDefault: c.IsDefault(),
		Rule: ruleResponse{
			Enabled:    c.Rule.Enabled,
			money:      toMoney(c.Rule.Amount),
			Direction:  string(c.Rule.Direction),
			Cadence:    string(c.Rule.Cadence),
			WeeklyDay:  c.Rule.WeeklyDay,
			MonthlyDay: c.Rule.MonthlyDay,
			LastFired:  c.Rule.LastFired,
		},
	}
}

type autoRequest struct {
	Enabled bool `json:"enabled"`
}

type categoryAmountResponse struct {
	money
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

func toCategoryAmounts(in []core.CategoryAmount) []categoryAmountResponse {
	out := make([]categoryAmountResponse, 0, len(in))
	for _, a := range in {
		out = append(out, categoryAmountResponse{CategoryID: a.CategoryID, Name: a.Name, money: toMoney(a.Amount)})
	}
	return out
}

type goalRequest struct {
	Name            string `json:"name"`
	TargetAmount    string `json:"target_amount"`
	Frequency       string `json:"frequency"`
	ReminderEnabled bool   `json:"reminder_enabled"`
}

func (req goalRequest) toGoal() (core.Goal, error) {
	target, err := parseOptionalAmount(req.TargetAmount)
	if err != nil {
		return core.Goal{}, err
	}
	freq, err := core.ParseCadence(req.Frequency)
	if err != nil {
		return core.Goal{}, err
	}
	return core.Goal{
		Name:            sanitizeInput(req.Name),
		TargetAmount:    target,
		Frequency:       freq,
		ReminderEnabled: req.ReminderEnabled,
	}, nil
}

type goalResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	TargetAmount    money  `json:"target_amount"`
	Frequency       string `json:"frequency"`
	ReminderEnabled bool   `json:"reminder_enabled"`
	Saved           *money `json:"saved,omitempty"`
	Remaining       *money `json:"remaining,omitempty"`
}

func toGoalResponse(g core.Goal) goalResponse {
	return goalResponse{
		ID:              g.ID,
		Name:            g.Name,
		TargetAmount:    toMoney(g.TargetAmount),
		Frequency:       string(g.Frequency),
		ReminderEnabled: g.ReminderEnabled,
	}
}

func toGoalProgressResponse(p services.GoalProgress) goalResponse {
	resp := toGoalResponse(p.Goal)
	saved, remaining := toMoney(p.Saved), toMoney(p.Remaining())
	resp.Saved, resp.Remaining = &saved, &remaining
	return resp
}

type contributionRequest struct {
	Amount    string `json:"amount"`
	Date      string `json:"date"`
	Direction string `json:"direction"`
}

type notificationResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
	Type      string    `json:"type"`
}

func toNotificationResponses(in []core.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(in))
	for _, n := range in {
		out = append(out, notificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Timestamp: n.Timestamp,
			Read:      n.Read,
			Type:      string(n.Type),
		})
	}
	return out
}

type dailyTotalResponse struct {
	money
	Date      string `json:"date"`
	Direction string `json:"direction"`
}

type monthOverviewResponse struct {
	Year       int                      `json:"year"`
	Month      int                      `json:"month"`
	Expense    money                    `json:"expense"`
	Income     money                    `json:"income"`
	Balance    money                    `json:"balance"`
	ByCategory []categoryAmountResponse `json:"by_category"`
}

type processResultResponse struct {
	Date    string `json:"date"`
	Checked int    `json:"checked"`
	Fired   int    `json:"fired"`
	Failed  int    `json:"failed"`
}

type countResponse struct {
	Count int64 `json:"count"`
}
