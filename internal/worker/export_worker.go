// Package worker turns month.changed events into spreadsheet exports.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/services"
	"bilancio/internal/sheets"
)

// MonthLoader loads an aggregated month.
type MonthLoader interface {
	LoadMonth(ctx context.Context, month core.MonthKey) (services.MonthView, error)
}

// ExportWorker recomputes a month and writes its summary row.
type ExportWorker struct {
	loader MonthLoader
	writer sheets.SummaryWriter
}

func NewExportWorker(loader MonthLoader, writer sheets.SummaryWriter) *ExportWorker {
	return &ExportWorker{loader: loader, writer: writer}
}

// HandleMonthChanged is the amqp.Handler of the worker process.
func (w *ExportWorker) HandleMonthChanged(ctx context.Context, msg *amqp.MonthChangedMessage) error {
	month, err := msg.MonthKey()
	if err != nil {
		return fmt.Errorf("message %s: %w", msg.ID, err)
	}
	slog.InfoContext(ctx, "Processing month.changed", "id", msg.ID, "month", msg.Month, "reason", msg.Reason)
	return w.ExportMonth(ctx, month)
}

// ExportMonth writes the current summary of month.
func (w *ExportWorker) ExportMonth(ctx context.Context, month core.MonthKey) error {
	view, err := w.loader.LoadMonth(ctx, month)
	if err != nil {
		return fmt.Errorf("load month %s: %w", month, err)
	}
	row := sheets.NewSummaryRow(month, view.Summary)
	if err := w.writer.WriteMonthSummary(ctx, row); err != nil {
		return fmt.Errorf("export month %s: %w", month, err)
	}
	slog.InfoContext(ctx, "Month exported", "month", month.String(), "balance", row.Balance.StringFixed(2))
	return nil
}

// ExportRange exports every month from first to last inclusive and stops at
// the first failure.
func (w *ExportWorker) ExportRange(ctx context.Context, first, last core.MonthKey) (int, error) {
	n := 0
	for m := first; !last.Before(m); m = m.Next() {
		if err := w.ExportMonth(ctx, m); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
