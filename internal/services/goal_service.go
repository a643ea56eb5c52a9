package services

import (
	"context"
	"fmt"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// GoalProgress is a goal with the signed sum of its contributions.
type GoalProgress struct {
	Goal  core.Goal
	Saved core.Money
}

// Remaining is the amount still missing to reach the target, never negative.
func (p GoalProgress) Remaining() core.Money {
	if left := p.Goal.TargetAmount.Cents - p.Saved.Cents; left > 0 {
		return core.Money{Cents: left}
	}
	return core.Money{}
}

// GoalService manages savings goals and their contributions.
type GoalService struct {
	storage       *storage.SQLiteRepository
	ledger        *LedgerService
	notifications *NotificationService
}

func NewGoalService(storage *storage.SQLiteRepository, ledger *LedgerService, notifications *NotificationService) *GoalService {
	return &GoalService{
		storage:       storage,
		ledger:        ledger,
		notifications: notifications,
	}
}

// List returns the newest goals first.
func (s *GoalService) List(ctx context.Context, userID int64) ([]core.Goal, error) {
	return s.storage.ListGoals(ctx, userID)
}

func (s *GoalService) Get(ctx context.Context, userID, id int64) (GoalProgress, error) {
	g, err := s.storage.GetGoal(ctx, userID, id)
	if err != nil {
		return GoalProgress{}, err
	}
	saved, err := s.storage.GoalSaved(ctx, userID, id)
	if err != nil {
		return GoalProgress{}, err
	}
	return GoalProgress{Goal: g, Saved: saved}, nil
}

func (s *GoalService) Create(ctx context.Context, userID int64, g core.Goal) (core.Goal, error) {
	g.OwnerID = userID
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	created, err := s.storage.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, err
	}

	s.notifications.notifyQuietly(ctx, userID, core.NotificationGoalCreated,
		"New goal", fmt.Sprintf("Goal %q was created.", created.Name))

	return created, nil
}

func (s *GoalService) Update(ctx context.Context, userID int64, g core.Goal) (core.Goal, error) {
	g.OwnerID = userID
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if err := s.storage.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

// Delete removes the goal; its contributions stay in the ledger, detached.
func (s *GoalService) Delete(ctx context.Context, userID, id int64) error {
	return s.storage.DeleteGoal(ctx, userID, id)
}

func (s *GoalService) Contributions(ctx context.Context, userID, goalID int64) ([]core.LedgerEntry, error) {
	if _, err := s.storage.GetGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}
	return s.storage.ListEntries(ctx, userID, storage.LedgerFilter{GoalID: &goalID})
}

// Contribute records a ledger entry titled after the goal. Income adds to the
// saved amount, expenses withdraw from it.
func (s *GoalService) Contribute(ctx context.Context, userID, goalID int64, amount core.Money, date core.Date, direction core.Direction) (core.LedgerEntry, error) {
	g, err := s.storage.GetGoal(ctx, userID, goalID)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	if direction == "" {
		direction = core.Expense
	}
	return s.ledger.CreateEntry(ctx, userID, core.LedgerEntry{
		GoalID:    &g.ID,
		Title:     g.Name,
		Amount:    amount,
		Date:      date,
		Direction: direction,
	})
}
