package services

import (
	"fmt"

	"bilancio/internal/core"
)

// BudgetScope selects which stored budget rows a month shows.
type BudgetScope string

const (
	// ScopeAll shows every budget row in every month.
	ScopeAll BudgetScope = "all"
	// ScopeMonth shows untagged rows, rows tagged with the month, and active
	// recurrent rows tagged with an earlier month. No row is ever copied.
	ScopeMonth BudgetScope = "month"
)

// VisibilityRule decides whether a budget row belongs to a month view.
type VisibilityRule interface {
	Visible(b core.Budget, month core.MonthKey) bool
}

type allRule struct{}

func (allRule) Visible(core.Budget, core.MonthKey) bool { return true }

type monthRule struct{}

func (monthRule) Visible(b core.Budget, month core.MonthKey) bool {
	if b.YearMonth == nil || *b.YearMonth == month {
		return true
	}
	return b.IsRecurrent && b.IsRecurrenceActive && b.YearMonth.Before(month)
}

var visibilityRules = map[BudgetScope]VisibilityRule{
	ScopeAll:   allRule{},
	ScopeMonth: monthRule{},
}

// GetVisibilityRule returns the rule for scope.
func GetVisibilityRule(scope BudgetScope) (VisibilityRule, error) {
	rule, ok := visibilityRules[scope]
	if !ok {
		return nil, fmt.Errorf("unsupported budget scope: %q", scope)
	}
	return rule, nil
}

// VisibleBudgets filters budgets through rule, preserving order.
func VisibleBudgets(budgets []core.Budget, month core.MonthKey, rule VisibilityRule) []core.Budget {
	out := make([]core.Budget, 0, len(budgets))
	for _, b := range budgets {
		if rule.Visible(b, month) {
			out = append(out, b)
		}
	}
	return out
}
