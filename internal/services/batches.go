package services

import (
	"context"
	"fmt"
	"log/slog"

	"registru/internal/allocation"
	"registru/internal/amqp"
	"registru/internal/audit"
	"registru/internal/core"
)

// RunAllocation materialises allocation records for every match between
// the current transactions and rules. One audit entry summarises the run
// whatever happened to the individual inserts.
func (r *Registry) RunAllocation(ctx context.Context) (allocation.BatchResult, error) {
	res, err := r.engine.Run(ctx)
	if err != nil {
		return res, fmt.Errorf("allocation run: %w", err)
	}

	r.record(ctx, audit.ActionAllocation,
		fmt.Sprintf("Automatic allocation run; %d new records.", res.Inserted))
	return res, nil
}

func (r *Registry) ListAllocations(ctx context.Context) ([]core.Allocation, error) {
	return r.store.ListAllocations(ctx)
}

// ExportItem is the outcome of exporting one transaction.
type ExportItem struct {
	TransactionID string
	ExportID      string
	Outcome       allocation.Outcome
	Err           error
}

type ExportResult struct {
	System   string
	Items    []ExportItem
	Exported int
	Failed   int
}

// RunExport writes one export row per transaction for the chosen system,
// dated today. Failed rows are reported and skipped.
func (r *Registry) RunExport(ctx context.Context, system string) (ExportResult, error) {
	if !core.ValidExportSystem(system) {
		return ExportResult{}, fmt.Errorf("%w: %q", core.ErrUnknownExportSystem, system)
	}

	txs, err := r.store.ListTransactions(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("export run: load transactions: %w", err)
	}

	res := ExportResult{System: system}
	today := r.today()
	for _, t := range txs {
		rec := core.ExportRecord{
			ID:            core.NewID(core.PrefixExport),
			TransactionID: t.ID,
			System:        system,
			ExportedOn:    today,
			Amount:        t.Amount,
		}
		item := ExportItem{TransactionID: t.ID, ExportID: rec.ID}

		if err := r.store.InsertExport(ctx, rec); err != nil {
			item.Outcome = allocation.Failed
			item.Err = err
			res.Failed++
			slog.WarnContext(ctx, "Export insert failed", "transaction_id", t.ID, "error", err)
		} else {
			item.Outcome = allocation.Inserted
			res.Exported++
			r.publish(ctx, rec)
		}
		res.Items = append(res.Items, item)
	}

	r.record(ctx, audit.ActionExport,
		fmt.Sprintf("Export %s generated; %d records.", system, res.Exported))
	return res, nil
}

func (r *Registry) ListExports(ctx context.Context) ([]core.ExportRecord, error) {
	return r.store.ListExports(ctx)
}

// publish is best effort: the export row is already stored and the worker
// reconciles anything that was not announced.
func (r *Registry) publish(ctx context.Context, rec core.ExportRecord) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishExportRecorded(ctx, amqp.NewExportRecordedMessage(rec)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"export_id", rec.ID,
			"error", err)
	}
}
