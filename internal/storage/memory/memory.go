// Package memory is an in-process storage collaborator, used for local runs
// and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"bilancio/internal/core"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu             sync.Mutex
	categoryColumn bool
	settings       map[core.MonthKey]decimal.Decimal
	transactions   []core.Transaction
	budgets        []core.Budget
	nextTxID       int64
	nextBudgetID   int64
}

// New returns an empty store. With categoryColumn false, category ids are
// dropped on write, like a remote schema without that column.
func New(categoryColumn bool) *Store {
	return &Store{
		categoryColumn: categoryColumn,
		settings:       make(map[core.MonthKey]decimal.Decimal),
		nextTxID:       1,
		nextBudgetID:   1,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) FetchMonthSettings(_ context.Context, month core.MonthKey) (core.MonthSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.settings[month]
	if !ok {
		balance = decimal.Zero
	}
	return core.MonthSettings{Month: month, InitialBalance: balance}, nil
}

func (s *Store) SaveMonthSettings(_ context.Context, month core.MonthKey, initialBalance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[month] = initialBalance
	return nil
}

func (s *Store) FetchTransactions(_ context.Context, month core.MonthKey) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if month.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) FetchTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.transactions, func(x core.Transaction) bool { return x.ID == id })
	if i < 0 {
		return core.Transaction{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	return s.transactions[i], nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextTxID
	s.nextTxID++
	if !s.categoryColumn {
		t.CategoryID = nil
	}
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id int64, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.transactions, func(x core.Transaction) bool { return x.ID == id })
	if i < 0 {
		return &core.NotFoundError{Entity: "transaction", ID: id}
	}
	t.ID = id
	if !s.categoryColumn {
		t.CategoryID = nil
	}
	s.transactions[i] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.transactions, func(x core.Transaction) bool { return x.ID == id })
	if i < 0 {
		return &core.NotFoundError{Entity: "transaction", ID: id}
	}
	s.transactions = slices.Delete(s.transactions, i, i+1)
	return nil
}

func (s *Store) FetchBudgets(context.Context) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.budgets), nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextBudgetID
	s.nextBudgetID++
	if !s.categoryColumn {
		b.CategoryID = nil
	}
	s.budgets = append(s.budgets, b)
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, id int64, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.budgets, func(x core.Budget) bool { return x.ID == id })
	if i < 0 {
		return &core.NotFoundError{Entity: "budget", ID: id}
	}
	b.ID = id
	if !s.categoryColumn {
		b.CategoryID = nil
	}
	s.budgets[i] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.budgets, func(x core.Budget) bool { return x.ID == id })
	if i < 0 {
		return &core.NotFoundError{Entity: "budget", ID: id}
	}
	s.budgets = slices.Delete(s.budgets, i, i+1)
	return nil
}
