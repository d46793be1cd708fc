// Package sheets exports month summaries to a spreadsheet.
package sheets

import (
	"context"

	"bilancio/internal/aggregate"
	"bilancio/internal/core"

	"github.com/shopspring/decimal"
)

// Header is the first row of the summary sheet.
var Header = []string{"Month", "Income", "Expenses", "Investments", "Balance", "Budgeted", "Used", "Estimated"}

// SummaryRow is one month of the summary sheet.
type SummaryRow struct {
	Month       core.MonthKey
	Income      decimal.Decimal
	Expenses    decimal.Decimal
	Investments decimal.Decimal
	Balance     decimal.Decimal
	Budgeted    decimal.Decimal
	Used        decimal.Decimal
	Estimated   decimal.Decimal
}

func NewSummaryRow(month core.MonthKey, s aggregate.Summary) SummaryRow {
	return SummaryRow{
		Month:       month,
		Income:      s.Income,
		Expenses:    s.Expenses,
		Investments: s.Investments,
		Balance:     s.Balance,
		Budgeted:    s.Budgeted,
		Used:        s.Used,
		Estimated:   s.EstimatedBalance,
	}
}

// Values renders the row in Header order, amounts with two decimals.
func (r SummaryRow) Values() []any {
	return []any{
		r.Month.String(),
		core.FormatAmount(r.Income),
		core.FormatAmount(r.Expenses),
		core.FormatAmount(r.Investments),
		core.FormatAmount(r.Balance),
		core.FormatAmount(r.Budgeted),
		core.FormatAmount(r.Used),
		core.FormatAmount(r.Estimated),
	}
}

// Ports for outbound adapters.
type (
	// SummaryWriter overwrites the row of a month, appending it when missing.
	SummaryWriter interface {
		WriteMonthSummary(ctx context.Context, row SummaryRow) error
	}
)
