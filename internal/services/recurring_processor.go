package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// ProcessResult counts the outcome of one processing pass.
type ProcessResult struct {
	Checked int
	Fired   int
	Failed  int
}

func (r *ProcessResult) add(o ProcessResult) {
	r.Checked += o.Checked
	r.Fired += o.Fired
	r.Failed += o.Failed
}

// RecurringProcessor turns due recurring rules into ledger entries
type RecurringProcessor struct {
	storage       *storage.SQLiteRepository
	ledger        *LedgerService
	notifications *NotificationService

	// serializes passes so two triggers in one process cannot double-fire a rule
	mu sync.Mutex
}

// NewRecurringProcessor creates a new recurring rule processor
func NewRecurringProcessor(storage *storage.SQLiteRepository, ledger *LedgerService, notifications *NotificationService) *RecurringProcessor {
	return &RecurringProcessor{
		storage:       storage,
		ledger:        ledger,
		notifications: notifications,
	}
}

// ProcessAll runs ProcessUser for every user owning an auto-enabled category.
// A failing user is logged and counted; the others still run.
func (p *RecurringProcessor) ProcessAll(ctx context.Context, today core.Date) (ProcessResult, error) {
	if p.storage == nil || p.ledger == nil {
		return ProcessResult{}, fmt.Errorf("processor not properly initialized")
	}

	userIDs, err := p.storage.ListUserIDs(ctx)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("list users: %w", err)
	}

	var total ProcessResult
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		res, err := p.ProcessUser(ctx, userID, today)
		total.add(res)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process recurring rules for user",
				"user_id", userID,
				"error", err)
			total.Failed++
		}
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"users", len(userIDs),
		"checked", total.Checked,
		"fired", total.Fired,
		"failed", total.Failed,
		"date", today.String())

	return total, nil
}

// ProcessUser evaluates the user's recurring rules for today. For each rule
// that fires it records the ledger entry, then the watermark, then a
// notification. Per-rule failures are logged and skipped.
func (p *RecurringProcessor) ProcessUser(ctx context.Context, userID int64, today core.Date) (ProcessResult, error) {
	if p.storage == nil || p.ledger == nil {
		return ProcessResult{}, fmt.Errorf("processor not properly initialized")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	categories, err := p.storage.ListAutoCategories(ctx, userID)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("get auto categories: %w", err)
	}

	rules := make([]core.RecurringRule, len(categories))
	for i, c := range categories {
		rules[i] = c.Rule
	}
	decisions := Evaluate(today, rules)

	res := ProcessResult{Checked: len(categories)}
	for i, d := range decisions {
		c := categories[i]

		if d.Err != nil {
			slog.WarnContext(ctx, "Recurring rule evaluation problem",
				"user_id", userID,
				"category_id", c.ID,
				"reason", d.Reason,
				"error", d.Err)
		}
		if !d.Fired() {
			if d.Reason == ReasonError {
				res.Failed++
			}
			slog.DebugContext(ctx, "Recurring rule skipped",
				"user_id", userID,
				"category_id", c.ID,
				"reason", d.Reason)
			continue
		}

		if err := p.fire(ctx, c, d, today); err != nil {
			slog.ErrorContext(ctx, "Failed to fire recurring rule",
				"user_id", userID,
				"category_id", c.ID,
				"category", c.Name,
				"error", err)
			res.Failed++
			continue
		}
		res.Fired++
	}

	return res, nil
}

func (p *RecurringProcessor) fire(ctx context.Context, c core.Category, d Decision, today core.Date) error {
	entry, err := p.ledger.CreateEntry(ctx, c.OwnerID, core.LedgerEntry{
		CategoryID: &c.ID,
		Title:      c.Name,
		Amount:     c.Rule.Amount,
		Date:       today,
		Direction:  c.Rule.Direction,
		Note:       core.AutoTransactionNote,
	})
	if err != nil {
		return fmt.Errorf("create ledger entry: %w", err)
	}

	// Update the watermark
	if err := p.storage.UpdateCategoryWatermark(ctx, c.OwnerID, c.ID, d.LastFired); err != nil {
		// The entry exists; without the watermark a rerun today fires again.
		return fmt.Errorf("update watermark after entry %d: %w", entry.ID, err)
	}

	p.notifications.notifyQuietly(ctx, c.OwnerID, core.NotificationAutoTransaction,
		"Auto transaction",
		fmt.Sprintf("%s %s recorded for %q.", entry.Direction, entry.Amount.String(), c.Name))

	slog.InfoContext(ctx, "Created ledger entry from recurring rule",
		"user_id", c.OwnerID,
		"category_id", c.ID,
		"entry_id", entry.ID,
		"amount_cents", entry.Amount.Cents,
		"direction", entry.Direction,
		"cadence", c.Rule.Cadence)

	return nil
}
