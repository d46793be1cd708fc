package services

import (
	"errors"
	"fmt"
	"strings"

	"bilancio/internal/core"

	"github.com/shopspring/decimal"
)

var (
	// ErrConfirmationRequired is returned when deleting a budget that has usage
	// without explicit confirmation.
	ErrConfirmationRequired = errors.New("budget has recorded usage, confirmation required")
	// ErrRecurrenceScopeRequired is returned when editing a recurrent budget
	// without choosing an EditScope.
	ErrRecurrenceScopeRequired = errors.New("recurrent budget edit requires a scope")
	ErrUnknownEditScope        = errors.New("unknown edit scope")
)

// EditScope is the answer to the single prompt shown when a recurrent budget
// is edited.
type EditScope string

const (
	ScopeUnset        EditScope = ""
	ScopeCurrentMonth EditScope = "current-month"
	ScopeRecurring    EditScope = "recurring"
)

// ParseEditScope accepts "", "current-month" and "recurring".
func ParseEditScope(s string) (EditScope, error) {
	switch scope := EditScope(strings.ToLower(strings.TrimSpace(s))); scope {
	case ScopeUnset, ScopeCurrentMonth, ScopeRecurring:
		return scope, nil
	default:
		return "", &core.ValidationError{Field: "scope", Value: s, Err: ErrUnknownEditScope}
	}
}

// RequiresDeleteConfirmation reports whether deleting a budget with the given
// usage must be confirmed first.
func RequiresDeleteConfirmation(used decimal.Decimal) bool {
	return used.IsPositive()
}

// ApplyBudgetEdit merges edit into stored according to scope.
//
// Non-recurrent budgets take every field. A recurrent budget needs a scope:
// current-month keeps the stored recurrence flags and month tag, recurring
// takes every field. Only the edited row changes either way.
func ApplyBudgetEdit(stored, edit core.Budget, scope EditScope) (core.Budget, error) {
	edit.ID = stored.ID
	if !stored.IsRecurrent {
		return edit, nil
	}
	switch scope {
	case ScopeCurrentMonth:
		edit.IsRecurrent = stored.IsRecurrent
		edit.IsRecurrenceActive = stored.IsRecurrenceActive
		edit.YearMonth = stored.YearMonth
		return edit, nil
	case ScopeRecurring:
		return edit, nil
	case ScopeUnset:
		return core.Budget{}, fmt.Errorf("budget %d: %w", stored.ID, ErrRecurrenceScopeRequired)
	default:
		return core.Budget{}, &core.ValidationError{Field: "scope", Value: string(scope), Err: ErrUnknownEditScope}
	}
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
