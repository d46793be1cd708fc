package aggregate

import (
	"slices"

	"bilancio/internal/core"
)

// SortByDateDescending returns a copy ordered most recent first.
// Transactions on the same day keep their relative order.
func SortByDateDescending(transactions []core.Transaction) []core.Transaction {
	out := slices.Clone(transactions)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return b.Date.Compare(a.Date.Time)
	})
	return out
}
