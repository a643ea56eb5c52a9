package services

import (
	"context"
	"testing"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/sheets/memory"
	"expensetracker/internal/storage"
)

func newTestExporter(t *testing.T, env *testEnv, cfg ExportProcessorConfig) (*ExportProcessor, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewExportProcessor(env.repo, store, cfg), store
}

func syncStatus(t *testing.T, env *testEnv, id int64) string {
	t.Helper()
	status, err := env.repo.SyncStatus(context.Background(), id)
	if err != nil {
		t.Fatalf("SyncStatus(%d) error = %v", id, err)
	}
	return status
}

func TestExportProcessor_ExportEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, store := newTestExporter(t, env, ExportProcessorConfig{})

	env.createCategory(t, env.user.ID, "Food", core.RecurringRule{})
	e := env.addEntry(t, "Food", 1250, core.Expense, core.NewDate(2025, 3, 9))

	if err := p.ExportEntry(ctx, e.ID); err != nil {
		t.Fatalf("ExportEntry() error = %v", err)
	}
	rows := store.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Category != "Food" || rows[0].EntryID != e.ID || rows[0].Amount.Cents != 1250 {
		t.Errorf("row = %+v", rows[0])
	}
	if got := syncStatus(t, env, e.ID); got != storage.SyncSynced {
		t.Errorf("status = %q, want synced", got)
	}

	// A redelivered event does not append twice
	if err := p.ExportEntry(ctx, e.ID); err != nil {
		t.Fatalf("second ExportEntry() error = %v", err)
	}
	if len(store.Rows()) != 1 {
		t.Errorf("rows after redelivery = %d, want 1", len(store.Rows()))
	}

	// Entries deleted before export are acknowledged
	if err := p.ExportEntry(ctx, 9999); err != nil {
		t.Errorf("ExportEntry(missing) error = %v, want nil", err)
	}
}

func TestExportProcessor_FailureAndRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, store := newTestExporter(t, env, ExportProcessorConfig{BatchSize: 10})

	a := env.addEntry(t, "Coffee", 300, core.Expense, daysAgo(2))
	b := env.addEntry(t, "Refund", 1000, core.Income, daysAgo(1))

	store.FailNext(1)
	if err := p.ExportEntry(ctx, a.ID); err == nil {
		t.Fatal("expected export error")
	}
	if got := syncStatus(t, env, a.ID); got != storage.SyncError {
		t.Errorf("status = %q, want error", got)
	}

	// Errored entries are not swept until they are reset
	n, err := p.ExportPending(ctx, 10)
	if err != nil {
		t.Fatalf("ExportPending() error = %v", err)
	}
	if n != 1 || syncStatus(t, env, b.ID) != storage.SyncSynced {
		t.Errorf("ExportPending() = %d, want only the pending entry", n)
	}

	reset, err := p.RetryFailed(ctx)
	if err != nil || reset != 1 {
		t.Fatalf("RetryFailed() = %d, %v, want 1", reset, err)
	}
	if n, _ := p.ExportPending(ctx, 10); n != 1 {
		t.Errorf("ExportPending() after retry = %d, want 1", n)
	}

	rows := store.Rows()
	if len(rows) != 2 || rows[1].EntryID != a.ID {
		t.Errorf("rows = %+v, want retried entry appended last", rows)
	}
	if reset, _ := p.RetryFailed(ctx); reset != 0 {
		t.Errorf("RetryFailed() with nothing failed = %d", reset)
	}
}

func TestExportProcessor_PendingBatchLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p, store := newTestExporter(t, env, ExportProcessorConfig{})

	for i := 0; i < 5; i++ {
		env.addEntry(t, "Bus", 250, core.Expense, daysAgo(i))
	}

	n, err := p.ExportPending(ctx, 3)
	if err != nil {
		t.Fatalf("ExportPending() error = %v", err)
	}
	if n != 3 || len(store.Rows()) != 3 {
		t.Errorf("exported %d (rows %d), want 3", n, len(store.Rows()))
	}
	if n, _ := p.ExportPending(ctx, 3); n != 2 {
		t.Errorf("second batch = %d, want 2", n)
	}
}

func TestExportProcessor_StartStop(t *testing.T) {
	env := newTestEnv(t)
	p, store := newTestExporter(t, env, ExportProcessorConfig{PollInterval: 10 * time.Millisecond})

	env.addEntry(t, "Taxi", 1800, core.Expense, daysAgo(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}
	if !p.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(store.Rows()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if len(store.Rows()) != 1 {
		t.Errorf("rows = %d, want 1 after the startup sweep", len(store.Rows()))
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if p.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if err := p.Stop(stopCtx); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestNewExportProcessor_Defaults(t *testing.T) {
	p := NewExportProcessor(nil, memory.New(), ExportProcessorConfig{})
	if p.config != DefaultExportProcessorConfig() {
		t.Errorf("config = %+v, want defaults", p.config)
	}
}
