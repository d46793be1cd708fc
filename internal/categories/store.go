// Package categories owns the category list. It is loaded from and saved to the
// local key-value store explicitly; nothing is held in package state.
package categories

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"bilancio/internal/core"
	"bilancio/internal/kv"
)

const Key = "categories"

// Store holds the categories between Load and Save. Mutations re-read the
// persisted list first, so several processes sharing one kv file do not
// overwrite each other's changes.
type Store struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	kv      kv.Store
	items   []core.Category
}

func NewStore(backing kv.Store) *Store {
	return &Store{kv: backing}
}

// Load replaces the in-memory list with the persisted one.
func (s *Store) Load(ctx context.Context) error {
	items, err := s.read(ctx)
	if err != nil {
		return err
	}
	s.set(items)
	return nil
}

// Save writes the in-memory list back.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	items := s.items
	s.mu.RUnlock()
	return s.write(ctx, items)
}

func (s *Store) read(ctx context.Context) ([]core.Category, error) {
	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	var items []core.Category
	if ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode categories: %w", err)
		}
	}
	return items, nil
}

func (s *Store) write(ctx context.Context, items []core.Category) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	if err := s.kv.Set(ctx, Key, raw); err != nil {
		return fmt.Errorf("save categories: %w", err)
	}
	return nil
}

func (s *Store) set(items []core.Category) {
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// mutate reloads the persisted list, applies fn to a copy and saves the result.
// The in-memory list always ends up equal to what is persisted.
func (s *Store) mutate(ctx context.Context, fn func([]core.Category) ([]core.Category, error)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.read(ctx)
	if err != nil {
		return err
	}
	next, err := fn(slices.Clone(current))
	if err == nil {
		err = s.write(ctx, next)
	}
	if err != nil {
		s.set(current)
		return err
	}
	s.set(next)
	return nil
}

func (s *Store) List() []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]core.Category, 0, len(s.items)), s.items...)
}

// ListByKind returns the categories applicable to one transaction type.
func (s *Store) ListByKind(kind core.Kind) []core.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Category, 0)
	for _, c := range s.items {
		if c.Type == kind {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) Get(id int64) (core.Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return core.Category{}, false
	}
	return s.items[i], true
}

// Exists reports whether id resolves to a category.
func (s *Store) Exists(id int64) bool {
	_, ok := s.Get(id)
	return ok
}

// Create validates c, assigns the next id and persists the list.
func (s *Store) Create(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Color == "" {
		color, err := DefaultColor(c.Type)
		if err != nil {
			return core.Category{}, err
		}
		c.Color = color
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	err := s.mutate(ctx, func(items []core.Category) ([]core.Category, error) {
		var next int64 = 1
		for _, it := range items {
			next = max(next, it.ID+1)
		}
		c.ID = next
		return append(items, c), nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *Store) Update(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	err := s.mutate(ctx, func(items []core.Category) ([]core.Category, error) {
		i := indexOf(items, c.ID)
		if i < 0 {
			return nil, &core.NotFoundError{Entity: "category", ID: c.ID}
		}
		items[i] = c
		return items, nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// Delete removes the category. References from transactions and budgets are
// left dangling and fall back to defaults on display.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.mutate(ctx, func(items []core.Category) ([]core.Category, error) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, &core.NotFoundError{Entity: "category", ID: id}
		}
		return slices.Delete(items, i, i+1), nil
	})
}

func (s *Store) index(id int64) int {
	return indexOf(s.items, id)
}

func indexOf(items []core.Category, id int64) int {
	return slices.IndexFunc(items, func(c core.Category) bool { return c.ID == id })
}
