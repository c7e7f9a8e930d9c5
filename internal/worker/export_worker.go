// Package worker mirrors export rows into the accounting spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"registru/internal/amqp"
	"registru/internal/core"
	"registru/internal/sheets"
)

// ExportSource lists the export rows recorded in the database.
type ExportSource interface {
	ListExports(ctx context.Context) ([]core.ExportRecord, error)
}

// ExportWorker appends exported rows to the spreadsheet, at most once per
// export id.
type ExportWorker struct {
	sink   sheets.ExportSink
	source ExportSource // optional, enables Reconcile
}

func NewExportWorker(sink sheets.ExportSink, source ExportSource) *ExportWorker {
	return &ExportWorker{sink: sink, source: source}
}

// HandleExportMessage processes one export notification from AMQP.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ExportRecordedMessage) error {
	rec, err := msg.Record()
	if err != nil {
		// A malformed payload will never succeed; drop it instead of requeueing.
		slog.ErrorContext(ctx, "Discarding malformed export message",
			"export_id", msg.ExportID,
			"error", err)
		return nil
	}

	present, err := w.sink.ExportIDs(ctx)
	if err != nil {
		return fmt.Errorf("read mirrored export ids: %w", err)
	}
	if _, ok := present[rec.ID]; ok {
		slog.InfoContext(ctx, "Export already mirrored", "export_id", rec.ID)
		return nil
	}

	ref, err := w.sink.AppendExport(ctx, rec)
	if err != nil {
		return fmt.Errorf("append export %s: %w", rec.ID, err)
	}

	slog.InfoContext(ctx, "Export mirrored",
		"export_id", rec.ID,
		"transaction_id", rec.TransactionID,
		"system", rec.System,
		"ref", ref)
	return nil
}

// Reconcile appends every recorded export missing from the spreadsheet.
// It is the backstop for notifications lost while the broker was down.
func (w *ExportWorker) Reconcile(ctx context.Context) (int, error) {
	if w.source == nil {
		return 0, nil
	}

	records, err := w.source.ListExports(ctx)
	if err != nil {
		return 0, fmt.Errorf("list exports: %w", err)
	}
	present, err := w.sink.ExportIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("read mirrored export ids: %w", err)
	}

	appended := 0
	for _, rec := range records {
		if _, ok := present[rec.ID]; ok {
			continue
		}
		if _, err := w.sink.AppendExport(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror export", "export_id", rec.ID, "error", err)
			continue
		}
		appended++
	}

	if appended > 0 {
		slog.InfoContext(ctx, "Reconciled exports", "appended", appended, "recorded", len(records))
	}
	return appended, nil
}
