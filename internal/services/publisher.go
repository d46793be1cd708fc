package services

import (
	"context"

	"bilancio/internal/core"
)

// Reasons carried by month.changed events.
const (
	ReasonInitialBalance     = "initial_balance"
	ReasonTransactionCreated = "transaction_created"
	ReasonTransactionUpdated = "transaction_updated"
	ReasonTransactionDeleted = "transaction_deleted"
	ReasonBudgetCreated      = "budget_created"
	ReasonBudgetUpdated      = "budget_updated"
	ReasonBudgetDeleted      = "budget_deleted"
)

// Publisher announces that a month's figures changed.
type Publisher interface {
	PublishMonthChanged(ctx context.Context, month core.MonthKey, reason string) error
}
