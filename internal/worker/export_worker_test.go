package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/association"
	"bilancio/internal/core"
	"bilancio/internal/services"
	sheetsmem "bilancio/internal/sheets/memory"
	"bilancio/internal/storage/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march = core.MonthKey{Year: 2025, Month: time.March}

func newWorker(t *testing.T) (*ExportWorker, *services.MonthService, *sheetsmem.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := services.NewMonthService(memory.New(true), association.NewShim(association.NoopStore{}, logger),
		services.WithLogger(logger))
	out := sheetsmem.New()
	return NewExportWorker(svc, out), svc, out
}

func TestHandleMonthChanged(t *testing.T) {
	w, svc, out := newWorker(t)
	ctx := context.Background()
	require.NoError(t, svc.SaveInitialBalance(ctx, march, decimal.NewFromInt(500)))
	_, err := svc.CreateTransaction(ctx, core.Transaction{
		Description: "salary", Amount: decimal.NewFromInt(1000), Type: core.Income, Date: core.NewDate(2025, 3, 1),
	})
	require.NoError(t, err)

	require.NoError(t, w.HandleMonthChanged(ctx, amqp.NewMonthChangedMessage(march, services.ReasonTransactionCreated)))
	row, ok := out.Row(march)
	require.True(t, ok)
	assert.True(t, row.Balance.Equal(decimal.NewFromInt(1500)))
	assert.True(t, row.Income.Equal(decimal.NewFromInt(1000)))
}

func TestHandleMonthChanged_BadMonth(t *testing.T) {
	w, _, out := newWorker(t)
	err := w.HandleMonthChanged(context.Background(), &amqp.MonthChangedMessage{ID: "x", Month: "bad"})
	assert.True(t, core.IsValidation(err))
	assert.Zero(t, out.Writes())
}

type failingLoader struct{}

func (failingLoader) LoadMonth(context.Context, core.MonthKey) (services.MonthView, error) {
	return services.MonthView{}, &core.StorageError{Op: "fetch transactions", Err: errors.New("offline")}
}

func TestExportMonth_LoadFailure(t *testing.T) {
	out := sheetsmem.New()
	err := NewExportWorker(failingLoader{}, out).ExportMonth(context.Background(), march)
	assert.True(t, core.IsStorage(err))
	assert.Zero(t, out.Writes())
}

func TestExportRange(t *testing.T) {
	w, _, out := newWorker(t)
	n, err := w.ExportRange(context.Background(), march.Prev().Prev(), march)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, out.Rows(), 3)

	n, err = w.ExportRange(context.Background(), march, march.Prev())
	require.NoError(t, err)
	assert.Zero(t, n)
}
