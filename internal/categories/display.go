package categories

import (
	"bilancio/internal/core"
)

// FallbackColor is used when neither a budget nor its category has a color.
const FallbackColor = "#3b82f6"

// DefaultColor is the color of each transaction type when no category applies.
func DefaultColor(kind core.Kind) (string, error) {
	switch kind {
	case core.Income:
		return "#22c55e", nil
	case core.Expense:
		return "#ef4444", nil
	case core.Investment:
		return "#8b5cf6", nil
	default:
		return "", kind.Validate("type")
	}
}

func DefaultIcon(kind core.Kind) (core.Icon, error) {
	switch kind {
	case core.Income:
		return core.IconSalary, nil
	case core.Expense:
		return core.IconCart, nil
	case core.Investment:
		return core.IconChart, nil
	default:
		return "", kind.Validate("type")
	}
}

// BudgetColor resolves budget color, then linked category color, then FallbackColor.
func BudgetColor(b core.Budget, s *Store) string {
	if b.Color != "" {
		return b.Color
	}
	if b.CategoryID != nil {
		if c, ok := s.Get(*b.CategoryID); ok && c.Color != "" {
			return c.Color
		}
	}
	return FallbackColor
}

// TransactionStyle resolves the color and icon of a transaction, falling back
// to the type defaults for missing or dangling categories.
func TransactionStyle(t core.Transaction, s *Store) (string, core.Icon, error) {
	color, err := DefaultColor(t.Type)
	if err != nil {
		return "", "", err
	}
	icon, err := DefaultIcon(t.Type)
	if err != nil {
		return "", "", err
	}
	if t.CategoryID == nil {
		return color, icon, nil
	}
	c, ok := s.Get(*t.CategoryID)
	if !ok {
		return color, icon, nil
	}
	if c.Color != "" {
		color = c.Color
	}
	if c.Icon != "" {
		icon = c.Icon
	}
	return color, icon, nil
}
