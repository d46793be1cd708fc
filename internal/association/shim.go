package association

import (
	"context"
	"log/slog"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

// Shim exposes the category mapping operations over a CategoryAssociationStore.
// Store failures never reach the aggregation pipeline: reads degrade to
// "no mapping" and are logged.
type Shim struct {
	store  CategoryAssociationStore
	logger *slog.Logger
}

func NewShim(store CategoryAssociationStore, logger *slog.Logger) *Shim {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shim{store: store, logger: logger.With(log.FieldComponent, log.ComponentShim)}
}

func (s *Shim) SetTransactionCategory(ctx context.Context, transactionID int64, categoryID *int64) error {
	return s.set(ctx, Transactions, transactionID, categoryID)
}

func (s *Shim) GetTransactionCategory(ctx context.Context, transactionID int64) *int64 {
	return s.get(ctx, Transactions, transactionID)
}

func (s *Shim) SetBudgetCategory(ctx context.Context, budgetID int64, categoryID *int64) error {
	return s.set(ctx, Budgets, budgetID, categoryID)
}

func (s *Shim) GetBudgetCategory(ctx context.Context, budgetID int64) *int64 {
	return s.get(ctx, Budgets, budgetID)
}

// RemoveBudgetCategory drops the mapping of a deleted budget.
func (s *Shim) RemoveBudgetCategory(ctx context.Context, budgetID int64) error {
	if err := s.store.Unlink(ctx, Budgets, budgetID); err != nil {
		aerr := &core.AssociationStoreError{Op: "unlink budget", Err: err}
		s.logger.WarnContext(ctx, "Failed to remove budget category mapping", "budget_id", budgetID, "error", aerr)
		return aerr
	}
	return nil
}

func (s *Shim) MergeTransactions(ctx context.Context, records []core.Transaction) []core.Transaction {
	return MergeCategories(ctx, s, Transactions, records)
}

func (s *Shim) MergeBudgets(ctx context.Context, records []core.Budget) []core.Budget {
	return MergeCategories(ctx, s, Budgets, records)
}

func (s *Shim) set(ctx context.Context, kind EntityKind, id int64, categoryID *int64) error {
	if err := s.store.Link(ctx, kind, id, categoryID); err != nil {
		aerr := &core.AssociationStoreError{Op: "link " + string(kind), Err: err}
		s.logger.WarnContext(ctx, "Failed to store category mapping", "kind", kind, "id", id, "error", aerr)
		return aerr
	}
	return nil
}

func (s *Shim) get(ctx context.Context, kind EntityKind, id int64) *int64 {
	cat, _, err := s.store.Lookup(ctx, kind, id)
	if err != nil {
		s.logger.WarnContext(ctx, "Category mapping unavailable, treating as unmapped",
			"kind", kind, "id", id, "error", &core.AssociationStoreError{Op: "lookup " + string(kind), Err: err})
		return nil
	}
	return cat
}

// Linkable is a record the shim can fill a category into.
type Linkable interface {
	AssociationID() int64
	LinkedCategory() *int64
	LinkCategory(*int64)
}

// MergeCategories returns a copy of records with missing category ids filled
// from the store. Records that already carry a category id are left alone.
func MergeCategories[T any, P interface {
	*T
	Linkable
}](ctx context.Context, s *Shim, kind EntityKind, records []T) []T {
	out := make([]T, len(records))
	copy(out, records)
	for i := range out {
		rec := P(&out[i])
		if rec.LinkedCategory() != nil {
			continue
		}
		if cat := s.get(ctx, kind, rec.AssociationID()); cat != nil {
			rec.LinkCategory(core.Int64(*cat))
		}
	}
	return out
}
