package memory

import (
	"context"
	"fmt"
	"sync"

	"expensetracker/internal/sheets"
)

// Store is an in-process LedgerWriter for local runs and tests.
type Store struct {
	mu   sync.Mutex
	rows []sheets.LedgerRow

	failNext int
}

var _ sheets.LedgerWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// AppendLedgerRow stores the row and returns a synthetic row reference.
func (s *Store) AppendLedgerRow(_ context.Context, row sheets.LedgerRow) (string, error) {
	if err := row.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return "", fmt.Errorf("memory store: simulated append failure for entry %d", row.EntryID)
	}
	s.rows = append(s.rows, row)
	// Row 1 is the header
	return fmt.Sprintf("mem!A%d", len(s.rows)+1), nil
}

// FailNext makes the next n appends return an error.
func (s *Store) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
}

// Rows returns a copy of the stored rows in append order.
func (s *Store) Rows() []sheets.LedgerRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sheets.LedgerRow(nil), s.rows...)
}
