// Package backend wires storage, local key-value state, category
// associations and the month service from configuration.
package backend

import (
	"context"
	"time"

	"bilancio/internal/association"
	"bilancio/internal/cache"
	"bilancio/internal/categories"
	"bilancio/internal/kv"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

// CleanupFunc releases what a factory opened.
type CleanupFunc func() error

// Pinger is implemented by storage backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Result is a fully wired backend.
type Result struct {
	Store      storage.Collaborator
	KV         kv.Store
	Categories *categories.Store
	Shim       *association.Shim
	Months     *services.MonthService
	Cache      *cache.Manager
	Cleanup    CleanupFunc
}

// Ready pings the storage collaborator when it supports it.
func (r *Result) Ready(ctx context.Context) error {
	if p, ok := r.Store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Config holds configuration for backend creation
type Config struct {
	Storage      StoreType
	SQLiteDBPath string

	KV     StoreType
	KVPath string

	// CategoryColumn stores category ids in the storage collaborator
	// instead of the local association maps.
	CategoryColumn bool
	BudgetScope    services.BudgetScope

	CacheSize int
	CacheTTL  time.Duration

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// StoreType selects an implementation for a persistent concern.
type StoreType string

const (
	SQLiteStore StoreType = "sqlite"
	MemoryStore StoreType = "memory"
)

func (t StoreType) String() string {
	return string(t)
}

func (t StoreType) IsValid() bool {
	switch t {
	case SQLiteStore, MemoryStore:
		return true
	default:
		return false
	}
}
