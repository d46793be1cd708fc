package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bilancio/internal/core"
	"bilancio/internal/log"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRepository is the storage collaborator over a local SQLite file.
type SQLiteRepository struct {
	db             *sql.DB
	categoryColumn bool
	logger         *slog.Logger
}

type Option func(*SQLiteRepository)

// WithCategoryColumn makes the repository persist category ids itself.
// Without it category_id is neither written nor read, like a remote schema
// that lacks the column.
func WithCategoryColumn(enabled bool) Option {
	return func(r *SQLiteRepository) { r.categoryColumn = enabled }
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{db: db, logger: slog.Default().With(log.FieldComponent, log.ComponentStorage)}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) FetchMonthSettings(ctx context.Context, month core.MonthKey) (core.MonthSettings, error) {
	settings := core.MonthSettings{Month: month, InitialBalance: decimal.Zero}
	err := r.db.QueryRowContext(ctx,
		`SELECT initial_balance FROM month_settings WHERE year_month = ?`, month.String()).
		Scan(&settings.InitialBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return settings, nil
	}
	if err != nil {
		return core.MonthSettings{}, fmt.Errorf("fetch month settings %s: %w", month, err)
	}
	return settings, nil
}

func (r *SQLiteRepository) SaveMonthSettings(ctx context.Context, month core.MonthKey, initialBalance decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO month_settings (year_month, initial_balance) VALUES (?, ?)
		ON CONFLICT(year_month) DO UPDATE SET initial_balance = excluded.initial_balance,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
		month.String(), initialBalance.String())
	if err != nil {
		return fmt.Errorf("save month settings %s: %w", month, err)
	}
	r.logger.InfoContext(ctx, "Month settings saved", log.FieldMonth, month.String(), "initial_balance", initialBalance.String())
	return nil
}

const transactionColumns = `id, description, amount, type, date, budget_id, category_id`

func (r *SQLiteRepository) FetchTransactions(ctx context.Context, month core.MonthKey) ([]core.Transaction, error) {
	first, last := month.Bounds()
	rows, err := r.db.QueryContext(ctx, `SELECT `+transactionColumns+`
		FROM transactions WHERE date BETWEEN ? AND ? ORDER BY date DESC, id`,
		first.String(), last.String())
	if err != nil {
		return nil, fmt.Errorf("fetch transactions %s: %w", month, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) FetchTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := r.scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	return t, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t        core.Transaction
		kind     string
		date     string
		budget   sql.NullInt64
		category sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.Description, &t.Amount, &kind, &date, &budget, &category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Type = core.Kind(kind)
	var err error
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", t.ID, err)
	}
	t.BudgetID = nullableID(budget)
	if r.categoryColumn {
		t.CategoryID = nullableID(category)
	}
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO transactions (description, amount, type, date, budget_id, category_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Description, t.Amount.String(), string(t.Type), t.Date.String(), idValue(t.BudgetID), r.categoryValue(t.CategoryID))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction id: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		log.FieldTransactionID, t.ID,
		"type", t.Type,
		log.FieldAmount, t.Amount.String(),
		"date", t.Date.String())
	if !r.categoryColumn {
		t.CategoryID = nil
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, t core.Transaction) error {
	query := `UPDATE transactions SET description = ?, amount = ?, type = ?, date = ?, budget_id = ? WHERE id = ?`
	args := []any{t.Description, t.Amount.String(), string(t.Type), t.Date.String(), idValue(t.BudgetID), id}
	if r.categoryColumn {
		query = `UPDATE transactions SET description = ?, amount = ?, type = ?, date = ?, budget_id = ?, category_id = ? WHERE id = ?`
		args = []any{t.Description, t.Amount.String(), string(t.Type), t.Date.String(), idValue(t.BudgetID), idValue(t.CategoryID), id}
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	return expectOne(res, "transaction", id)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return expectOne(res, "transaction", id)
}

func (r *SQLiteRepository) FetchBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, limit_amount, year_month, is_recurrent,
		is_recurrence_active, color, category_id FROM budgets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("fetch budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b         core.Budget
			yearMonth sql.NullString
			color     sql.NullString
			category  sql.NullInt64
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Limit, &yearMonth, &b.IsRecurrent,
			&b.IsRecurrenceActive, &color, &category); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if yearMonth.Valid && yearMonth.String != "" {
			k, err := core.ParseMonthKey(yearMonth.String)
			if err != nil {
				return nil, fmt.Errorf("budget %d: %w", b.ID, err)
			}
			b.YearMonth = &k
		}
		b.Color = color.String
		if r.categoryColumn {
			b.CategoryID = nullableID(category)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO budgets (name, limit_amount, year_month, is_recurrent,
		is_recurrence_active, color, category_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Name, b.Limit.String(), monthValue(b.YearMonth), b.IsRecurrent, b.IsRecurrenceActive,
		stringValue(b.Color), r.categoryValue(b.CategoryID))
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return core.Budget{}, fmt.Errorf("create budget id: %w", err)
	}
	r.logger.InfoContext(ctx, "Budget saved to SQLite", log.FieldBudgetID, b.ID, "name", b.Name, "limit", b.Limit.String())
	if !r.categoryColumn {
		b.CategoryID = nil
	}
	return b, nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, id int64, b core.Budget) error {
	query := `UPDATE budgets SET name = ?, limit_amount = ?, year_month = ?, is_recurrent = ?,
		is_recurrence_active = ?, color = ? WHERE id = ?`
	args := []any{b.Name, b.Limit.String(), monthValue(b.YearMonth), b.IsRecurrent, b.IsRecurrenceActive,
		stringValue(b.Color), id}
	if r.categoryColumn {
		query = `UPDATE budgets SET name = ?, limit_amount = ?, year_month = ?, is_recurrent = ?,
			is_recurrence_active = ?, color = ?, category_id = ? WHERE id = ?`
		args = []any{b.Name, b.Limit.String(), monthValue(b.YearMonth), b.IsRecurrent, b.IsRecurrenceActive,
			stringValue(b.Color), idValue(b.CategoryID), id}
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update budget %d: %w", id, err)
	}
	return expectOne(res, "budget", id)
}

// DeleteBudget removes the row only. Transactions keep their budget_id.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return expectOne(res, "budget", id)
}

func (r *SQLiteRepository) categoryValue(id *int64) any {
	if !r.categoryColumn {
		return nil
	}
	return idValue(id)
}

func expectOne(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d rows affected: %w", entity, id, err)
	}
	if n == 0 {
		return &core.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return core.Int64(v.Int64)
}

func idValue(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func monthValue(k *core.MonthKey) any {
	if k == nil {
		return nil
	}
	return k.String()
}

func stringValue(s string) any {
	if s == "" {
		return nil
	}
	return s
}
