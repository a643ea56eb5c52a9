package memory

import (
	"context"
	"testing"

	"expensetracker/internal/core"
	"expensetracker/internal/sheets"
)

func validRow() sheets.LedgerRow {
	return sheets.LedgerRow{
		EntryID:   1,
		Date:      core.NewDate(2025, 1, 13),
		Title:     "Rent",
		Amount:    core.Money{Cents: 123},
		Direction: core.Expense,
		Category:  "Home",
	}
}

func TestMemoryStoreAppend(t *testing.T) {
	s := New()
	ref, err := s.AppendLedgerRow(context.Background(), validRow())
	if err != nil || ref != "mem!A2" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	rows := s.Rows()
	if len(rows) != 1 || rows[0].Title != "Rent" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestMemoryStoreRejectsInvalidRow(t *testing.T) {
	s := New()
	row := validRow()
	row.Amount = core.Money{}
	if _, err := s.AppendLedgerRow(context.Background(), row); err == nil {
		t.Fatal("expected error for zero amount")
	}
	if len(s.Rows()) != 0 {
		t.Fatal("invalid row should not be stored")
	}
}

func TestMemoryStoreFailNext(t *testing.T) {
	s := New()
	s.FailNext(1)
	if _, err := s.AppendLedgerRow(context.Background(), validRow()); err == nil {
		t.Fatal("expected simulated failure")
	}
	if _, err := s.AppendLedgerRow(context.Background(), validRow()); err != nil {
		t.Fatalf("second append should succeed: %v", err)
	}
	if got := len(s.Rows()); got != 1 {
		t.Fatalf("rows = %d, want 1", got)
	}
}
