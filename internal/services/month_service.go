// Package services orchestrates month loading and mutations across storage,
// the category association shim, the aggregator and event publishing.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"bilancio/internal/aggregate"
	"bilancio/internal/association"
	"bilancio/internal/cache"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/storage"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// MonthView is a loaded month: merged records plus every derived figure.
type MonthView struct {
	Data    core.MonthData    `json:"data"`
	Summary aggregate.Summary `json:"summary"`
}

// MonthService is the single entry point for reading and changing month data.
//
// A mutation either succeeds at the storage collaborator and then updates the
// association maps and cache, or fails and changes nothing locally.
type MonthService struct {
	store      storage.Collaborator
	shim       *association.Shim
	views      cache.Cache[core.MonthKey, MonthView]
	publisher  Publisher
	categories CategoryResolver
	rule       VisibilityRule
	logger     *slog.Logger

	// generation counts mutations. A view loaded across a mutation is not
	// cached, since it may predate the write.
	viewsMu    sync.Mutex
	generation uint64
}

// CategoryResolver looks up user categories by id.
type CategoryResolver interface {
	Get(id int64) (core.Category, bool)
}

type Option func(*MonthService)

func WithCache(c cache.Cache[core.MonthKey, MonthView]) Option {
	return func(s *MonthService) { s.views = c }
}

func WithPublisher(p Publisher) Option {
	return func(s *MonthService) { s.publisher = p }
}

// WithCategories rejects transactions linked to a category of another type.
// Unknown category ids are accepted and render with the fallback style.
func WithCategories(r CategoryResolver) Option {
	return func(s *MonthService) { s.categories = r }
}

func WithVisibility(rule VisibilityRule) Option {
	return func(s *MonthService) { s.rule = rule }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *MonthService) { s.logger = l }
}

func NewMonthService(store storage.Collaborator, shim *association.Shim, opts ...Option) *MonthService {
	s := &MonthService{
		store:  store,
		shim:   shim,
		rule:   allRule{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(log.FieldComponent, log.ComponentMonth)
	return s
}

// LoadMonth fetches settings, transactions and budgets concurrently, merges
// category links once and aggregates.
func (s *MonthService) LoadMonth(ctx context.Context, month core.MonthKey) (MonthView, error) {
	if s.views != nil {
		if v, ok := s.views.Get(month); ok {
			return v, nil
		}
	}
	gen := s.currentGeneration()

	var (
		settings     core.MonthSettings
		transactions []core.Transaction
		budgets      []core.Budget
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if settings, err = s.store.FetchMonthSettings(gctx, month); err != nil {
			return &core.StorageError{Op: "fetch month settings", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if transactions, err = s.store.FetchTransactions(gctx, month); err != nil {
			return &core.StorageError{Op: "fetch transactions", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if budgets, err = s.store.FetchBudgets(gctx); err != nil {
			return &core.StorageError{Op: "fetch budgets", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load month", log.FieldMonth, month.String(), log.FieldError, err)
		return MonthView{}, err
	}

	data := core.MonthData{
		Month:          month,
		Transactions:   aggregate.SortByDateDescending(s.shim.MergeTransactions(ctx, transactions)),
		Budgets:        VisibleBudgets(s.shim.MergeBudgets(ctx, budgets), month, s.rule),
		InitialBalance: settings.InitialBalance,
	}
	summary, err := aggregate.Summarize(data)
	if err != nil {
		return MonthView{}, fmt.Errorf("summarize %s: %w", month, err)
	}

	view := MonthView{Data: data, Summary: summary}
	s.cacheView(month, view, gen)
	return view, nil
}

func (s *MonthService) currentGeneration() uint64 {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	return s.generation
}

// cacheView stores view unless a mutation happened since gen was read.
func (s *MonthService) cacheView(month core.MonthKey, view MonthView, gen uint64) {
	if s.views == nil {
		return
	}
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	if s.generation != gen {
		s.logger.Debug("Skipping cache of a view loaded across a mutation", log.FieldMonth, month.String())
		return
	}
	s.views.Set(month, view)
}

func (s *MonthService) SaveInitialBalance(ctx context.Context, month core.MonthKey, balance decimal.Decimal) error {
	if err := s.store.SaveMonthSettings(ctx, month, balance); err != nil {
		return &core.StorageError{Op: "save month settings", Err: err}
	}
	s.changed(ctx, ReasonInitialBalance, month)
	return nil
}

func (s *MonthService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(t); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, &core.StorageError{Op: "create transaction", Err: err}
	}
	if t.CategoryID != nil {
		// a failed link leaves the transaction uncategorized
		if err := s.shim.SetTransactionCategory(ctx, created.ID, t.CategoryID); err == nil {
			created.CategoryID = t.CategoryID
		}
	}

	s.changed(ctx, ReasonTransactionCreated, created.Date.MonthKey())
	return created, nil
}

// UpdateTransaction replaces transaction id. When the date moves it to
// another month, both months are announced.
func (s *MonthService) UpdateTransaction(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error) {
	t.ID = id
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(t); err != nil {
		return core.Transaction{}, err
	}

	prev, err := s.store.FetchTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, storageErr("fetch transaction", err)
	}
	if err := s.store.UpdateTransaction(ctx, id, t); err != nil {
		return core.Transaction{}, storageErr("update transaction", err)
	}
	if err := s.shim.SetTransactionCategory(ctx, id, t.CategoryID); err != nil {
		t.CategoryID = s.shim.MergeTransactions(ctx, []core.Transaction{prev})[0].CategoryID
	}

	s.changed(ctx, ReasonTransactionUpdated, prev.Date.MonthKey(), t.Date.MonthKey())
	return t, nil
}

// LinkTransactionCategory changes only the category of transaction id.
func (s *MonthService) LinkTransactionCategory(ctx context.Context, id int64, categoryID *int64) (core.Transaction, error) {
	t, err := s.store.FetchTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, storageErr("fetch transaction", err)
	}
	t.CategoryID = categoryID
	return s.UpdateTransaction(ctx, id, t)
}

// DeleteTransaction removes a transaction and announces the month of its
// stored date. Its category link is left behind since transaction ids are
// never reused.
func (s *MonthService) DeleteTransaction(ctx context.Context, id int64) error {
	t, err := s.store.FetchTransaction(ctx, id)
	if err != nil {
		return storageErr("fetch transaction", err)
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return storageErr("delete transaction", err)
	}
	s.changed(ctx, ReasonTransactionDeleted, t.Date.MonthKey())
	return nil
}

func (s *MonthService) checkCategory(t core.Transaction) error {
	if s.categories == nil || t.CategoryID == nil {
		return nil
	}
	c, ok := s.categories.Get(*t.CategoryID)
	if !ok || c.Type == t.Type {
		return nil
	}
	return &core.ValidationError{
		Field: "categoryId",
		Value: fmt.Sprintf("%d", *t.CategoryID),
		Err:   fmt.Errorf("%w: %s category on %s transaction", core.ErrCategoryKind, c.Type, t.Type),
	}
}

// Budgets returns every stored budget with category links merged.
func (s *MonthService) Budgets(ctx context.Context) ([]core.Budget, error) {
	budgets, err := s.store.FetchBudgets(ctx)
	if err != nil {
		return nil, &core.StorageError{Op: "fetch budgets", Err: err}
	}
	return s.shim.MergeBudgets(ctx, budgets), nil
}

func (s *MonthService) CreateBudget(ctx context.Context, month core.MonthKey, b core.Budget) (core.Budget, error) {
	b.Name = trimmed(b.Name)
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	created, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, &core.StorageError{Op: "create budget", Err: err}
	}
	if b.CategoryID != nil {
		if err := s.shim.SetBudgetCategory(ctx, created.ID, b.CategoryID); err == nil {
			created.CategoryID = b.CategoryID
		}
	}

	s.changed(ctx, ReasonBudgetCreated, month)
	return created, nil
}

// UpdateBudget applies edit to the stored budget id. Editing a recurrent
// budget without a scope returns ErrRecurrenceScopeRequired.
func (s *MonthService) UpdateBudget(ctx context.Context, month core.MonthKey, id int64, edit core.Budget, scope EditScope) (core.Budget, error) {
	budgets, err := s.Budgets(ctx)
	if err != nil {
		return core.Budget{}, err
	}
	i := slices.IndexFunc(budgets, func(b core.Budget) bool { return b.ID == id })
	if i < 0 {
		return core.Budget{}, &core.NotFoundError{Entity: "budget", ID: id}
	}

	edit.Name = trimmed(edit.Name)
	updated, err := ApplyBudgetEdit(budgets[i], edit, scope)
	if err != nil {
		return core.Budget{}, err
	}
	if err := updated.Validate(); err != nil {
		return core.Budget{}, err
	}

	if err := s.store.UpdateBudget(ctx, id, updated); err != nil {
		return core.Budget{}, storageErr("update budget", err)
	}
	if err := s.shim.SetBudgetCategory(ctx, id, updated.CategoryID); err != nil {
		updated.CategoryID = budgets[i].CategoryID
	}

	s.changed(ctx, ReasonBudgetUpdated, month)
	return updated, nil
}

// DeleteBudget removes budget id once confirmed when its usage in month is
// nonzero. Transactions referencing it keep their budget id.
func (s *MonthService) DeleteBudget(ctx context.Context, month core.MonthKey, id int64, confirmed bool) error {
	view, err := s.LoadMonth(ctx, month)
	if err != nil {
		return err
	}
	used, err := aggregate.ComputeBudgetUsage(view.Data.Transactions, id)
	if err != nil {
		return err
	}
	if RequiresDeleteConfirmation(used) && !confirmed {
		return fmt.Errorf("budget %d used %s: %w", id, used.StringFixed(2), ErrConfirmationRequired)
	}

	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return storageErr("delete budget", err)
	}
	_ = s.shim.RemoveBudgetCategory(ctx, id)

	s.changed(ctx, ReasonBudgetDeleted, month)
	return nil
}

// changed invalidates cached views and announces each distinct month.
// Publish failures are logged only; the mutation already succeeded.
func (s *MonthService) changed(ctx context.Context, reason string, months ...core.MonthKey) {
	s.viewsMu.Lock()
	s.generation++
	if s.views != nil {
		s.views.Purge()
	}
	s.viewsMu.Unlock()

	for i, month := range months {
		if slices.Contains(months[:i], month) {
			continue
		}
		if s.publisher == nil {
			s.logger.DebugContext(ctx, "No publisher configured, skipping month.changed", log.FieldMonth, month.String())
			continue
		}
		if err := s.publisher.PublishMonthChanged(ctx, month, reason); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish month.changed",
				log.FieldMonth, month.String(), log.FieldReason, reason, log.FieldError, err)
		}
	}
}

// storageErr passes NotFoundError through and wraps everything else.
func storageErr(op string, err error) error {
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		return nf
	}
	return &core.StorageError{Op: op, Err: err}
}
