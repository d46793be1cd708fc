package storage

import (
	"context"

	"bilancio/internal/core"

	"github.com/shopspring/decimal"
)

// Ports of the storage collaborator. Implementations return *core.NotFoundError
// for unknown ids on lookup, update and delete.
type (
	SettingsStore interface {
		// FetchMonthSettings returns a zero initial balance for months never saved.
		FetchMonthSettings(ctx context.Context, month core.MonthKey) (core.MonthSettings, error)
		SaveMonthSettings(ctx context.Context, month core.MonthKey, initialBalance decimal.Decimal) error
	}

	TransactionStore interface {
		// FetchTransactions returns the transactions dated within the month.
		FetchTransactions(ctx context.Context, month core.MonthKey) ([]core.Transaction, error)
		// FetchTransaction returns one transaction by id, or *core.NotFoundError.
		FetchTransaction(ctx context.Context, id int64) (core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, id int64, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id int64) error
	}

	BudgetStore interface {
		// FetchBudgets returns every budget, unfiltered by month.
		FetchBudgets(ctx context.Context) ([]core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudget(ctx context.Context, id int64, b core.Budget) error
		DeleteBudget(ctx context.Context, id int64) error
	}

	Collaborator interface {
		SettingsStore
		TransactionStore
		BudgetStore
	}
)
