package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/sheets"
	"expensetracker/internal/storage"
)

// ExportProcessorConfig holds configuration for the export processor
type ExportProcessorConfig struct {
	// PollInterval is how often to sweep pending entries (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of entries exported per sweep (default: 10)
	BatchSize int

	// RetryInterval is how often failed exports are put back to pending (default: 1h)
	RetryInterval time.Duration
}

// DefaultExportProcessorConfig returns sensible defaults
func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		PollInterval:  30 * time.Second,
		BatchSize:     10,
		RetryInterval: 1 * time.Hour,
	}
}

// ExportProcessor copies ledger entries to the export sheet and tracks their
// sync status in SQLite.
type ExportProcessor struct {
	storage *storage.SQLiteRepository
	writer  sheets.LedgerWriter
	config  ExportProcessorConfig

	// exportMu keeps an event and the sweep from appending the same entry twice
	exportMu sync.Mutex

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(storage *storage.SQLiteRepository, writer sheets.LedgerWriter, config ExportProcessorConfig) *ExportProcessor {
	defaults := DefaultExportProcessorConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = defaults.RetryInterval
	}
	return &ExportProcessor{
		storage: storage,
		writer:  writer,
		config:  config,
	}
}

// ExportEntry appends one entry to the sheet unless it is already synced.
// Failures mark the entry with a sync error and are returned so an AMQP
// consumer can requeue.
func (p *ExportProcessor) ExportEntry(ctx context.Context, id int64) error {
	p.exportMu.Lock()
	defer p.exportMu.Unlock()

	status, err := p.storage.SyncStatus(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Deleted before export; nothing to do
			slog.InfoContext(ctx, "Ledger entry gone before export", "id", id)
			return nil
		}
		return fmt.Errorf("get sync status %d: %w", id, err)
	}
	if status == storage.SyncSynced {
		slog.DebugContext(ctx, "Ledger entry already exported", "id", id)
		return nil
	}

	entry, err := p.storage.GetExportEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("get ledger entry %d: %w", id, err)
	}

	ref, err := p.writer.AppendLedgerRow(ctx, toLedgerRow(entry))
	if err != nil {
		if markErr := p.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := p.storage.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark entry as synced", "id", id, "error", err)
		// Don't return error here - the export actually worked
	}

	slog.InfoContext(ctx, "Exported ledger entry",
		"id", id,
		"user_id", entry.Entry.OwnerID,
		"sheets_ref", ref,
		"amount_cents", entry.Entry.Amount.Cents)

	return nil
}

// ExportPending exports up to limit pending entries, oldest first, and
// returns how many succeeded.
func (p *ExportProcessor) ExportPending(ctx context.Context, limit int) (int, error) {
	pending, err := p.storage.GetPendingSyncEntries(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending entries: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.DebugContext(ctx, "Processing export batch", "count", len(pending))

	exported := 0
	for _, item := range pending {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		if err := p.ExportEntry(ctx, item.ID); err != nil {
			slog.WarnContext(ctx, "Export failed",
				"id", item.ID,
				"user_id", item.OwnerID,
				"error", err)
			continue
		}
		exported++
	}
	return exported, nil
}

// RetryFailed puts every failed export back into the pending state.
func (p *ExportProcessor) RetryFailed(ctx context.Context) (int64, error) {
	n, err := p.storage.ResetSyncErrors(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.InfoContext(ctx, "Failed exports scheduled for retry", "count", n)
	}
	return n, nil
}

// Start begins the sweep loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Export processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the processor is currently running
func (p *ExportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ExportProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()

	retryTicker := time.NewTicker(p.config.RetryInterval)
	defer retryTicker.Stop()

	// Process immediately on startup
	p.sweep(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			p.sweep(ctx)
		case <-retryTicker.C:
			if _, err := p.RetryFailed(ctx); err != nil {
				slog.ErrorContext(ctx, "Failed to reset sync errors", "error", err)
			}
		}
	}
}

func (p *ExportProcessor) sweep(ctx context.Context) {
	if _, err := p.ExportPending(ctx, p.config.BatchSize); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Export sweep failed", "error", err)
	}
}

func toLedgerRow(e storage.ExportEntry) sheets.LedgerRow {
	return sheets.LedgerRow{
		EntryID:   e.Entry.ID,
		Date:      e.Entry.Date,
		Title:     e.Entry.Title,
		Amount:    e.Entry.Amount,
		Direction: e.Entry.Direction,
		Category:  e.CategoryName,
		Note:      e.Entry.Note,
	}
}
