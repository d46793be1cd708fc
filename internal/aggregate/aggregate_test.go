package aggregate

import (
	"testing"

	"bilancio/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tx(kind core.Kind, amount string, day int, budget *int64) core.Transaction {
	return core.Transaction{
		Description: string(kind),
		Amount:      d(amount),
		Type:        kind,
		Date:        core.NewDate(2025, 3, day),
		BudgetID:    budget,
	}
}

func scenarioA() []core.Transaction {
	return []core.Transaction{
		tx(core.Income, "1000", 1, nil),
		tx(core.Expense, "300", 2, core.Int64(1)),
		tx(core.Investment, "100", 3, nil),
	}
}

func TestComputeTotals_ScenarioA(t *testing.T) {
	totals, err := ComputeTotals(scenarioA())
	require.NoError(t, err)
	assert.True(t, totals.Income.Equal(d("1000")))
	assert.True(t, totals.Expenses.Equal(d("300")))
	assert.True(t, totals.Investments.Equal(d("100")))

	balance := ComputeBalance(d("500"), totals.Income, totals.Expenses, totals.Investments)
	assert.True(t, balance.Equal(d("1100")), "balance %s", balance)
}

func TestComputeTotals_Partition(t *testing.T) {
	txs := []core.Transaction{
		tx(core.Income, "10.10", 1, nil),
		tx(core.Expense, "0.20", 2, nil),
		tx(core.Expense, "3.33", 3, core.Int64(4)),
		tx(core.Investment, "7", 4, nil),
		tx(core.Income, "0", 5, nil),
	}
	totals, err := ComputeTotals(txs)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, x := range txs {
		sum = sum.Add(x.Amount)
	}
	got := totals.Income.Add(totals.Expenses).Add(totals.Investments)
	assert.True(t, got.Equal(sum), "buckets %s, total %s", got, sum)
}

func TestComputeTotals_Empty(t *testing.T) {
	totals, err := ComputeTotals(nil)
	require.NoError(t, err)
	assert.True(t, totals.Income.IsZero())
	assert.True(t, totals.Expenses.IsZero())
	assert.True(t, totals.Investments.IsZero())
}

func TestComputeTotals_RejectsMalformed(t *testing.T) {
	_, err := ComputeTotals([]core.Transaction{tx("transfer", "1", 1, nil)})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.ErrorIs(t, err, core.ErrUnknownKind)

	_, err = ComputeTotals([]core.Transaction{tx(core.Expense, "-1", 1, nil)})
	assert.ErrorIs(t, err, core.ErrNegativeAmount)
}

func TestComputeBalance_Exact(t *testing.T) {
	cases := []struct {
		initial, income, expenses, investments, want string
	}{
		{"0", "0", "0", "0", "0"},
		{"500", "1000", "300", "100", "1100"},
		{"-20.5", "0.01", "100.10", "0", "-120.59"},
		{"0.001", "0", "0", "0.002", "-0.001"},
	}
	for _, tc := range cases {
		got := ComputeBalance(d(tc.initial), d(tc.income), d(tc.expenses), d(tc.investments))
		assert.True(t, got.Equal(d(tc.want)), "%v: got %s", tc, got)
	}
}

func TestComputeBudgetUsage_ScenarioB(t *testing.T) {
	used, err := ComputeBudgetUsage(scenarioA(), 1)
	require.NoError(t, err)
	assert.True(t, used.Equal(d("300")))

	pct := BudgetUsagePercentage(used, d("300"))
	assert.Equal(t, int64(100), pct)
	assert.Equal(t, Critical, ClassifySeverity(pct))
}

func TestComputeBudgetUsage_OnlyExpenses(t *testing.T) {
	// A malformed record: income carrying a budget id.
	txs := []core.Transaction{
		tx(core.Income, "50", 1, core.Int64(1)),
		tx(core.Investment, "20", 2, core.Int64(1)),
		tx(core.Expense, "5", 3, core.Int64(1)),
		tx(core.Expense, "7", 4, nil),
	}
	used, err := ComputeBudgetUsage(txs, 1)
	require.NoError(t, err)
	assert.True(t, used.Equal(d("5")), "used %s", used)
}

func TestComputeBudgetTotals_Orphaned(t *testing.T) {
	budgets := []core.Budget{{ID: 1, Name: "Food", Limit: d("300")}}
	txs := append(scenarioA(), tx(core.Expense, "40", 9, core.Int64(99)))

	bt, err := ComputeBudgetTotals(budgets, txs)
	require.NoError(t, err)
	assert.True(t, bt.Budgeted.Equal(d("300")))
	assert.True(t, bt.Used.Equal(d("340")), "used %s", bt.Used)

	s, err := Summarize(core.MonthData{Budgets: budgets, Transactions: txs})
	require.NoError(t, err)
	require.Len(t, s.Budgets, 1)
	assert.Equal(t, int64(1), s.Budgets[0].Budget.ID)
	assert.True(t, s.Budgets[0].Used.Equal(d("300")))
}

func TestComputeBudgetTotals_NegativeLimit(t *testing.T) {
	_, err := ComputeBudgetTotals([]core.Budget{{ID: 1, Name: "x", Limit: d("-1")}}, nil)
	assert.ErrorIs(t, err, core.ErrNegativeLimit)
	assert.True(t, core.IsValidation(err))
}

func TestComputeEstimatedBalance(t *testing.T) {
	// scenario C
	assert.True(t, ComputeEstimatedBalance(d("300"), d("300"), d("1100")).Equal(d("1100")))
	assert.True(t, ComputeEstimatedBalance(d("500"), d("120"), d("1000")).Equal(d("620")))

	for _, balance := range []string{"0", "1100", "-50"} {
		for _, used := range []string{"0", "12"} {
			got := ComputeEstimatedBalance(decimal.Zero, d(used), d(balance))
			assert.True(t, got.IsZero(), "balance %s used %s got %s", balance, used, got)
		}
	}
}

func TestBudgetUsagePercentage(t *testing.T) {
	cases := []struct {
		used, limit string
		want        int64
	}{
		{"0", "0", 0},
		{"123", "0", 0},
		{"0", "100", 0},
		{"50", "200", 25},
		{"1", "3", 33},
		{"2", "3", 67},
		{"450", "300", 150},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, BudgetUsagePercentage(d(tc.used), d(tc.limit)), "%s/%s", tc.used, tc.limit)
	}
}

func TestClassifySeverity(t *testing.T) {
	cases := map[int64]Severity{
		0:   Healthy,
		70:  Healthy,
		71:  Warning,
		90:  Warning,
		91:  Critical,
		100: Critical,
		250: Critical,
	}
	for pct, want := range cases {
		assert.Equal(t, want, ClassifySeverity(pct), "pct %d", pct)
	}
	assert.Equal(t, int64(100), BarWidth(250))
	assert.Equal(t, int64(42), BarWidth(42))
	assert.Equal(t, int64(0), BarWidth(-3))
}

func TestSortByDateDescending_Stable(t *testing.T) {
	a := tx(core.Expense, "1", 5, nil)
	a.ID = 1
	b := tx(core.Expense, "2", 9, nil)
	b.ID = 2
	c := tx(core.Expense, "3", 5, nil)
	c.ID = 3
	in := []core.Transaction{a, b, c}

	out := SortByDateDescending(in)
	ids := []int64{out[0].ID, out[1].ID, out[2].ID}
	assert.Equal(t, []int64{2, 1, 3}, ids)
	assert.Equal(t, int64(1), in[0].ID, "input must not be reordered")
}

func TestSummarize(t *testing.T) {
	txs := make([]core.Transaction, 0, 8)
	for day := 1; day <= 7; day++ {
		x := tx(core.Expense, "10", day, nil)
		x.ID = int64(day)
		if day%2 == 0 {
			x.CategoryID = core.Int64(4)
		}
		txs = append(txs, x)
	}
	income := tx(core.Income, "100", 8, nil)
	income.CategoryID = core.Int64(9)
	txs = append(txs, income)

	s, err := Summarize(core.MonthData{
		Month:          core.MonthKey{Year: 2025, Month: 3},
		Transactions:   txs,
		Budgets:        []core.Budget{{ID: 1, Name: "Empty", Limit: d("80")}},
		InitialBalance: d("10"),
	})
	require.NoError(t, err)

	assert.True(t, s.Balance.Equal(d("40")), "balance %s", s.Balance)
	assert.True(t, s.EstimatedBalance.Equal(d("-40")), "estimated %s", s.EstimatedBalance)
	require.Len(t, s.Recent, RecentLimit)
	assert.Equal(t, core.Income, s.Recent[0].Type)
	assert.Equal(t, int64(7), s.Recent[1].ID)
	require.Len(t, s.Transactions, 8)

	require.Len(t, s.Budgets, 1)
	assert.Equal(t, Healthy, s.Budgets[0].Severity)
	assert.True(t, s.Budgets[0].Remaining.Equal(d("80")))

	require.Len(t, s.ByCategory, 2)
	require.NotNil(t, s.ByCategory[0].CategoryID)
	assert.Equal(t, int64(4), *s.ByCategory[0].CategoryID)
	assert.True(t, s.ByCategory[0].Amount.Equal(d("30")))
	assert.Nil(t, s.ByCategory[1].CategoryID)
	assert.True(t, s.ByCategory[1].Amount.Equal(d("40")))

	regrouped := RegroupDangling(s.ByCategory, func(int64) bool { return false })
	require.Len(t, regrouped, 1)
	assert.True(t, regrouped[0].Amount.Equal(d("70")))
}

func TestSummarize_Invalid(t *testing.T) {
	_, err := Summarize(core.MonthData{Transactions: []core.Transaction{tx("gift", "1", 1, nil)}})
	assert.True(t, core.IsValidation(err))
}
