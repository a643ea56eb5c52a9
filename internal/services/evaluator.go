package services

import (
	"fmt"
	"strings"

	"expensetracker/internal/core"
)

// Action is the outcome of evaluating one recurring rule for a given day.
type Action string

const (
	ActionFire Action = "fire"
	ActionSkip Action = "skip"
)

// SkipReason explains a skip decision.
type SkipReason string

const (
	ReasonNone              SkipReason = ""
	ReasonDisabled          SkipReason = "disabled"
	ReasonNonPositiveAmount SkipReason = "non_positive_amount"
	ReasonWrongDay          SkipReason = "wrong_day"
	ReasonAlreadyFired      SkipReason = "already_fired"
	ReasonUnknownCadence    SkipReason = "unknown_cadence"
	ReasonError             SkipReason = "error"
)

// Decision is the evaluator's verdict for one rule.
type Decision struct {
	Rule   core.RecurringRule
	Action Action
	Reason SkipReason

	// LastFired is the watermark to persist after the caller has recorded the
	// ledger entry. Set only when Action is ActionFire.
	LastFired string

	// Err carries the problem behind ReasonError, or a stored watermark that
	// could not be parsed (the rule still fires in that case).
	Err error
}

// Fired reports whether the rule should produce a ledger entry today.
func (d Decision) Fired() bool {
	return d.Action == ActionFire
}

// Evaluate decides, for each rule, whether it fires on today. The result has
// the same length and order as rules. A failing rule yields a skip with
// ReasonError and never affects the others.
func Evaluate(today core.Date, rules []core.RecurringRule) []Decision {
	decisions := make([]Decision, len(rules))
	for i, rule := range rules {
		decisions[i] = evaluateRule(today, rule)
	}
	return decisions
}

func evaluateRule(today core.Date, rule core.RecurringRule) (d Decision) {
	d = Decision{Rule: rule, Action: ActionSkip}
	defer func() {
		if r := recover(); r != nil {
			d = Decision{Rule: rule, Action: ActionSkip, Reason: ReasonError, Err: fmt.Errorf("evaluate rule: %v", r)}
		}
	}()

	if !rule.Enabled {
		d.Reason = ReasonDisabled
		return d
	}
	if rule.Amount.Cents <= 0 {
		d.Reason = ReasonNonPositiveAmount
		return d
	}

	checker, err := GetCadenceChecker(core.Cadence(strings.ToUpper(string(rule.Cadence))))
	if err != nil {
		d.Reason = ReasonUnknownCadence
		return d
	}
	if !checker.IsScheduledDay(rule, today.Time) {
		d.Reason = ReasonWrongDay
		return d
	}

	if rule.LastFired != "" {
		last, err := core.ParseDate(rule.LastFired)
		if err != nil {
			d.Err = fmt.Errorf("parse last fired %q: %w", rule.LastFired, err)
		} else if checker.SamePeriod(last.Time, today.Time) {
			d.Reason = ReasonAlreadyFired
			return d
		}
	}

	d.Action = ActionFire
	d.LastFired = today.String()
	return d
}
