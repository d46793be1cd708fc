package aggregate

import (
	"cmp"
	"slices"

	"bilancio/internal/core"

	"github.com/shopspring/decimal"
)

// RecentLimit is the size of the recent transactions preview.
const RecentLimit = 5

// BudgetUsage is one budget row of the month view.
type BudgetUsage struct {
	Budget     core.Budget     `json:"budget"`
	Used       decimal.Decimal `json:"used"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage int64           `json:"percentage"`
	Severity   Severity        `json:"severity"`
	BarWidth   int64           `json:"barWidth"`
}

// CategorySpend is the expense total for one category. CategoryID is nil for the
// uncategorized bucket.
type CategorySpend struct {
	CategoryID *int64          `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
}

// Summary is every derived figure of a month.
type Summary struct {
	Totals
	BudgetTotals
	Balance          decimal.Decimal    `json:"balance"`
	EstimatedBalance decimal.Decimal    `json:"estimatedBalance"`
	Budgets          []BudgetUsage      `json:"budgets"`
	Transactions     []core.Transaction `json:"transactions"`
	Recent           []core.Transaction `json:"recent"`
	ByCategory       []CategorySpend    `json:"byCategory"`
}

// Summarize computes the full month view from already merged month data.
// Only budgets present in data are looked up; orphaned budget ids on
// transactions contribute to the used total and nothing else.
func Summarize(data core.MonthData) (Summary, error) {
	totals, err := ComputeTotals(data.Transactions)
	if err != nil {
		return Summary{}, err
	}
	bt, err := ComputeBudgetTotals(data.Budgets, data.Transactions)
	if err != nil {
		return Summary{}, err
	}
	balance := ComputeBalance(data.InitialBalance, totals.Income, totals.Expenses, totals.Investments)

	s := Summary{
		Totals:           totals,
		BudgetTotals:     bt,
		Balance:          balance,
		EstimatedBalance: ComputeEstimatedBalance(bt.Budgeted, bt.Used, balance),
		Budgets:          make([]BudgetUsage, 0, len(data.Budgets)),
		Transactions:     SortByDateDescending(data.Transactions),
		ByCategory:       spendByCategory(data.Transactions),
	}
	s.Recent = s.Transactions[:min(RecentLimit, len(s.Transactions))]

	for _, b := range data.Budgets {
		used, err := ComputeBudgetUsage(data.Transactions, b.ID)
		if err != nil {
			return Summary{}, err
		}
		pct := BudgetUsagePercentage(used, b.Limit)
		s.Budgets = append(s.Budgets, BudgetUsage{
			Budget:     b,
			Used:       used,
			Remaining:  b.Limit.Sub(used),
			Percentage: pct,
			Severity:   ClassifySeverity(pct),
			BarWidth:   BarWidth(pct),
		})
	}
	return s, nil
}

func spendByCategory(transactions []core.Transaction) []CategorySpend {
	byID := make(map[int64]decimal.Decimal)
	uncategorized := decimal.Zero
	var hasUncategorized bool
	for _, tx := range transactions {
		if tx.Type != core.Expense {
			continue
		}
		if tx.CategoryID == nil {
			uncategorized = uncategorized.Add(tx.Amount)
			hasUncategorized = true
			continue
		}
		byID[*tx.CategoryID] = byID[*tx.CategoryID].Add(tx.Amount)
	}

	out := make([]CategorySpend, 0, len(byID)+1)
	for id, amount := range byID {
		out = append(out, CategorySpend{CategoryID: core.Int64(id), Amount: amount})
	}
	slices.SortFunc(out, func(a, b CategorySpend) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(*a.CategoryID, *b.CategoryID)
	})
	if hasUncategorized {
		out = append(out, CategorySpend{Amount: uncategorized})
	}
	return out
}

// RegroupDangling moves spend for category ids not in known into the
// uncategorized bucket. Deleted categories leave dangling ids behind.
func RegroupDangling(spend []CategorySpend, known func(id int64) bool) []CategorySpend {
	out := make([]CategorySpend, 0, len(spend))
	dangling := decimal.Zero
	var hasDangling bool
	for _, cs := range spend {
		if cs.CategoryID == nil || !known(*cs.CategoryID) {
			dangling = dangling.Add(cs.Amount)
			hasDangling = true
			continue
		}
		out = append(out, cs)
	}
	if hasDangling {
		out = append(out, CategorySpend{Amount: dangling})
	}
	return out
}
