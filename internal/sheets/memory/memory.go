// Package memory is an in-process SummaryWriter for local runs and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"bilancio/internal/core"
	"bilancio/internal/sheets"
)

type Store struct {
	mu     sync.Mutex
	rows   map[core.MonthKey]sheets.SummaryRow
	writes int
}

func New() *Store {
	return &Store{rows: make(map[core.MonthKey]sheets.SummaryRow)}
}

func (s *Store) WriteMonthSummary(_ context.Context, row sheets.SummaryRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.Month] = row
	s.writes++
	return nil
}

// Row returns the stored row for month.
func (s *Store) Row(month core.MonthKey) (sheets.SummaryRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[month]
	return r, ok
}

// Rows returns every stored row ordered by month.
func (s *Store) Rows() []sheets.SummaryRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sheets.SummaryRow, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b sheets.SummaryRow) int {
		switch {
		case a.Month.Before(b.Month):
			return -1
		case b.Month.Before(a.Month):
			return 1
		default:
			return 0
		}
	})
	return out
}

// Writes counts WriteMonthSummary calls.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
