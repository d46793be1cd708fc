package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/association"
	"bilancio/internal/cache"
	"bilancio/internal/categories"
	"bilancio/internal/core"
	"bilancio/internal/kv"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
	"bilancio/internal/storage/memory"
)

const cacheCleanupInterval = time.Minute

// Factory builds a Result from a Config.
type Factory struct {
	base   *slog.Logger
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{base: logger, logger: logger.With(log.FieldComponent, log.ComponentBackend)}
}

// Create opens storage and the kv store, loads categories and wires the month
// service. On failure everything already opened is closed again.
func (f *Factory) Create(ctx context.Context, cfg Config) (res *Result, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var closers []func() error
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	defer func() {
		if err != nil {
			if cerr := cleanup(); cerr != nil {
				f.logger.Warn("Cleanup after failed backend creation", log.FieldError, cerr)
			}
		}
	}()

	store, closeStore, err := f.openStorage(cfg)
	if err != nil {
		return nil, err
	}
	closers = append(closers, closeStore)

	local, closeKV, err := f.openKV(cfg)
	if err != nil {
		return nil, err
	}
	closers = append(closers, closeKV)

	cats := categories.NewStore(local)
	if err := cats.Load(ctx); err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	var assoc association.CategoryAssociationStore = association.NewLocalStore(local)
	if cfg.CategoryColumn {
		assoc = association.NoopStore{}
	}
	shim := association.NewShim(assoc, f.base)

	rule, err := services.GetVisibilityRule(cfg.scope())
	if err != nil {
		return nil, err
	}
	opts := []services.Option{
		services.WithVisibility(rule),
		services.WithCategories(cats),
		services.WithLogger(f.base),
	}

	var manager *cache.Manager
	if cfg.CacheSize > 0 {
		views := cache.NewLRUCache[core.MonthKey, services.MonthView](cfg.CacheSize, cfg.CacheTTL)
		manager = cache.NewManager(f.base)
		manager.Register(views)
		manager.StartCleanup(cacheCleanupInterval)
		closers = append(closers, func() error { manager.Stop(); return nil })
		opts = append(opts, services.WithCache(views))
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			f.logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			closers = append(closers, client.Close)
			opts = append(opts, services.WithPublisher(client))
		}
	}

	f.logger.Info("Initialized backend",
		"storage", cfg.Storage,
		"kv", cfg.KV,
		"category_column", cfg.CategoryColumn,
		"budget_scope", cfg.scope(),
		"cache_size", cfg.CacheSize)

	return &Result{
		Store:      store,
		KV:         local,
		Categories: cats,
		Shim:       shim,
		Months:     services.NewMonthService(store, shim, opts...),
		Cache:      manager,
		Cleanup:    cleanup,
	}, nil
}

func (f *Factory) openStorage(cfg Config) (storage.Collaborator, func() error, error) {
	switch cfg.Storage {
	case SQLiteStore:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, storage.WithCategoryColumn(cfg.CategoryColumn))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite storage", "db_path", cfg.SQLiteDBPath)
		return repo, repo.Close, nil
	case MemoryStore:
		return memory.New(cfg.CategoryColumn), noClose, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage)
	}
}

func (f *Factory) openKV(cfg Config) (kv.Store, func() error, error) {
	switch cfg.KV {
	case SQLiteStore:
		s, err := kv.OpenSQLite(cfg.KVPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open kv store: %w", err)
		}
		return s, s.Close, nil
	case MemoryStore:
		return kv.NewMemory(), noClose, nil
	default:
		return nil, nil, fmt.Errorf("unsupported kv type: %s", cfg.KV)
	}
}

func noClose() error { return nil }
