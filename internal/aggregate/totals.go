// Package aggregate computes the derived figures of a month: totals, balance,
// budget usage and the estimated end-of-month balance.
//
// Every function is pure. Malformed input (an unknown transaction type, a
// negative amount or a negative limit) is rejected with a *core.ValidationError
// rather than folded into a bucket.
package aggregate

import (
	"fmt"

	"bilancio/internal/core"

	"github.com/shopspring/decimal"
)

// Totals holds the per-type sums of a set of transactions.
type Totals struct {
	Income      decimal.Decimal `json:"totalIncome"`
	Expenses    decimal.Decimal `json:"totalExpenses"`
	Investments decimal.Decimal `json:"totalInvestments"`
}

// ComputeTotals sums amounts by type in a single pass.
func ComputeTotals(transactions []core.Transaction) (Totals, error) {
	t := Totals{Income: decimal.Zero, Expenses: decimal.Zero, Investments: decimal.Zero}
	for i, tx := range transactions {
		if err := checkAmount(tx); err != nil {
			return Totals{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expenses = t.Expenses.Add(tx.Amount)
		case core.Investment:
			t.Investments = t.Investments.Add(tx.Amount)
		default:
			return Totals{}, fmt.Errorf("transaction %d: %w", i, tx.Type.Validate("type"))
		}
	}
	return t, nil
}

// ComputeBalance returns initial + income - expenses - investments.
// Investments are an outflow.
func ComputeBalance(initial, income, expenses, investments decimal.Decimal) decimal.Decimal {
	return initial.Add(income).Sub(expenses).Sub(investments)
}

func checkAmount(tx core.Transaction) error {
	if tx.Amount.IsNegative() {
		return &core.ValidationError{Field: "amount", Value: tx.Amount.String(), Err: core.ErrNegativeAmount}
	}
	return nil
}

func checkTransaction(tx core.Transaction) error {
	if err := tx.Type.Validate("type"); err != nil {
		return err
	}
	return checkAmount(tx)
}
