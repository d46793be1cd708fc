package aggregate

import (
	"fmt"

	"bilancio/internal/core"

	"github.com/shopspring/decimal"
)

// Severity classifies how much of a budget has been consumed.
type Severity string

const (
	Healthy  Severity = "healthy"
	Warning  Severity = "warning"
	Critical Severity = "critical"
)

const (
	warningAbove  = 70
	criticalAbove = 90
)

var hundred = decimal.NewFromInt(100)

// BudgetTotals is the month-wide budget position.
type BudgetTotals struct {
	Budgeted decimal.Decimal `json:"totalBudgeted"`
	Used     decimal.Decimal `json:"totalUsed"`
}

// ComputeBudgetUsage sums the expenses tagged with budgetID.
// Non-expense transactions never count, even when they carry a budget id.
func ComputeBudgetUsage(transactions []core.Transaction, budgetID int64) (decimal.Decimal, error) {
	used := decimal.Zero
	for i, tx := range transactions {
		if err := checkTransaction(tx); err != nil {
			return decimal.Zero, fmt.Errorf("transaction %d: %w", i, err)
		}
		if tx.HasBudget() && *tx.BudgetID == budgetID {
			used = used.Add(tx.Amount)
		}
	}
	return used, nil
}

// ComputeBudgetTotals sums every budget limit and every budget-tagged expense.
// Expenses pointing at a budget missing from budgets still count as used.
func ComputeBudgetTotals(budgets []core.Budget, transactions []core.Transaction) (BudgetTotals, error) {
	bt := BudgetTotals{Budgeted: decimal.Zero, Used: decimal.Zero}
	for _, b := range budgets {
		if b.Limit.IsNegative() {
			return BudgetTotals{}, fmt.Errorf("budget %d: %w", b.ID,
				&core.ValidationError{Field: "limit", Value: b.Limit.String(), Err: core.ErrNegativeLimit})
		}
		bt.Budgeted = bt.Budgeted.Add(b.Limit)
	}
	for i, tx := range transactions {
		if err := checkTransaction(tx); err != nil {
			return BudgetTotals{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		if tx.HasBudget() {
			bt.Used = bt.Used.Add(tx.Amount)
		}
	}
	return bt, nil
}

// ComputeEstimatedBalance subtracts the unspent part of all budgets from balance.
// With nothing budgeted there is no estimate and the result is zero.
func ComputeEstimatedBalance(totalBudgeted, totalUsed, balance decimal.Decimal) decimal.Decimal {
	if totalBudgeted.IsZero() {
		return decimal.Zero
	}
	return balance.Sub(totalBudgeted.Sub(totalUsed))
}

// BudgetUsagePercentage returns round(used/limit*100), unbounded above 100.
// A zero limit yields 0.
func BudgetUsagePercentage(used, limit decimal.Decimal) int64 {
	if limit.IsZero() {
		return 0
	}
	return used.Mul(hundred).Div(limit).Round(0).IntPart()
}

// ClassifySeverity maps a usage percentage onto the fixed 70/90 cut points.
func ClassifySeverity(pct int64) Severity {
	switch {
	case pct > criticalAbove:
		return Critical
	case pct > warningAbove:
		return Warning
	default:
		return Healthy
	}
}

// BarWidth clamps a percentage to 0..100 for progress bars.
func BarWidth(pct int64) int64 {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
