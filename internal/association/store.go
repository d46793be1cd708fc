// Package association links transactions and budgets to categories when the
// remote storage schema has no category column.
//
// Records fetched from storage pass through a Shim exactly once. A category id
// already present on a record always wins over the locally stored mapping.
package association

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"bilancio/internal/kv"
)

// EntityKind names the record family a mapping belongs to.
type EntityKind string

// Entity kinds with a category association map.
const (
	Transactions EntityKind = "transaction"
	Budgets      EntityKind = "budget"
)

// kv keys of the two association maps.
const (
	TransactionMapKey = "transactionCategoryMap"
	BudgetMapKey      = "budgetCategoryMap"
)

// CategoryAssociationStore records (kind, id) -> category id.
//
// Lookup reports found=false when no mapping was ever recorded. A recorded nil
// category means "explicitly no category".
type CategoryAssociationStore interface {
	Lookup(ctx context.Context, kind EntityKind, id int64) (categoryID *int64, found bool, err error)
	Link(ctx context.Context, kind EntityKind, id int64, categoryID *int64) error
	Unlink(ctx context.Context, kind EntityKind, id int64) error
}

func mapKey(kind EntityKind) (string, error) {
	switch kind {
	case Transactions:
		return TransactionMapKey, nil
	case Budgets:
		return BudgetMapKey, nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

// LocalStore keeps both maps as JSON documents in a kv.Store.
// Every write goes straight to the backing store.
type LocalStore struct {
	mu sync.Mutex
	kv kv.Store
}

// NewLocalStore keeps its maps in store.
func NewLocalStore(store kv.Store) *LocalStore {
	return &LocalStore{kv: store}
}

// Lookup returns the category recorded for (kind, id).
func (s *LocalStore) Lookup(ctx context.Context, kind EntityKind, id int64) (*int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load(ctx, kind)
	if err != nil {
		return nil, false, err
	}
	cat, ok := m[strconv.FormatInt(id, 10)]
	return cat, ok, nil
}

// Link records categoryID for (kind, id); nil records "no category".
func (s *LocalStore) Link(ctx context.Context, kind EntityKind, id int64, categoryID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load(ctx, kind)
	if err != nil {
		return err
	}
	m[strconv.FormatInt(id, 10)] = categoryID
	return s.save(ctx, kind, m)
}

// Unlink forgets (kind, id). Unknown ids are a no-op.
func (s *LocalStore) Unlink(ctx context.Context, kind EntityKind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load(ctx, kind)
	if err != nil {
		return err
	}
	key := strconv.FormatInt(id, 10)
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return s.save(ctx, kind, m)
}

func (s *LocalStore) load(ctx context.Context, kind EntityKind) (map[string]*int64, error) {
	key, err := mapKey(kind)
	if err != nil {
		return nil, err
	}
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	m := make(map[string]*int64)
	if !ok || len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return m, nil
}

func (s *LocalStore) save(ctx context.Context, kind EntityKind, m map[string]*int64) error {
	key, err := mapKey(kind)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// NoopStore is used once the remote schema persists category ids itself.
type NoopStore struct{}

// Lookup never finds a mapping.
func (NoopStore) Lookup(context.Context, EntityKind, int64) (*int64, bool, error) {
	return nil, false, nil
}

// Link discards the mapping.
func (NoopStore) Link(context.Context, EntityKind, int64, *int64) error { return nil }

// Unlink does nothing.
func (NoopStore) Unlink(context.Context, EntityKind, int64) error { return nil }
