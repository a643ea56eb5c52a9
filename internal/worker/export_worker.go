package worker

import (
	"context"
	"fmt"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/services"
)

// Exporter is the part of the export processor the worker drives.
type Exporter interface {
	ExportEntry(ctx context.Context, id int64) error
	ExportPending(ctx context.Context, limit int) (int, error)
	RetryFailed(ctx context.Context) (int64, error)
}

var _ Exporter = (*services.ExportProcessor)(nil)

// ExportWorker handles ledger events from AMQP and copies the entries to the export sheet
type ExportWorker struct {
	exporter  Exporter
	batchSize int
}

func NewExportWorker(exporter Exporter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ExportWorker{
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleLedgerCreated processes a single ledger.created message. A returned
// error makes the consumer requeue the message.
func (w *ExportWorker) HandleLedgerCreated(ctx context.Context, msg *amqp.LedgerEntryMessage) error {
	if msg == nil || msg.ID <= 0 {
		// Nothing to retry; acknowledge and move on
		slog.WarnContext(ctx, "Ignoring ledger message without entry id")
		return nil
	}

	slog.InfoContext(ctx, "Processing ledger message",
		"id", msg.ID,
		"user_id", msg.OwnerID,
		"published_at", msg.Timestamp)

	if err := w.exporter.ExportEntry(ctx, msg.ID); err != nil {
		return fmt.Errorf("export ledger entry %d: %w", msg.ID, err)
	}
	return nil
}

// StartupSyncCheck retries failed exports and sends entries left pending while
// the worker was down.
func (w *ExportWorker) StartupSyncCheck(ctx context.Context) error {
	reset, err := w.exporter.RetryFailed(ctx)
	if err != nil {
		return fmt.Errorf("reset failed exports: %w", err)
	}

	// Get a larger batch for startup check
	exported, err := w.exporter.ExportPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("export pending entries on startup: %w", err)
	}

	if exported == 0 && reset == 0 {
		slog.InfoContext(ctx, "No pending ledger entries found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Startup export completed",
		"retried", reset,
		"exported", exported)
	return nil
}
