package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income     Kind = "income"
	Expense    Kind = "expense"
	Investment Kind = "investment"
)

const maxDescriptionLen = 200

type (
	// Kind is the closed set of transaction and category types.
	Kind string

	Transaction struct {
		ID          int64           `json:"id"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		Type        Kind            `json:"type"`
		Date        Date            `json:"date"`
		BudgetID    *int64          `json:"budgetId,omitempty"`
		CategoryID  *int64          `json:"categoryId,omitempty"`
	}

	// Budget is a monthly spending ceiling for expense transactions.
	Budget struct {
		ID                 int64           `json:"id"`
		Name               string          `json:"name"`
		Limit              decimal.Decimal `json:"limit"`
		YearMonth          *MonthKey       `json:"yearMonth,omitempty"`
		IsRecurrent        bool            `json:"isRecurrent,omitempty"`
		IsRecurrenceActive bool            `json:"isRecurrenceActive,omitempty"`
		CategoryID         *int64          `json:"categoryId,omitempty"`
		Color              string          `json:"color,omitempty"`
	}

	Category struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  Icon   `json:"icon,omitempty"`
		Type  Kind   `json:"type"`
	}

	MonthSettings struct {
		Month          MonthKey        `json:"month"`
		InitialBalance decimal.Decimal `json:"initialBalance"`
	}

	// MonthData is everything visible for one month.
	MonthData struct {
		Month          MonthKey        `json:"month"`
		Transactions   []Transaction   `json:"transactions"`
		Budgets        []Budget        `json:"budgets"`
		InitialBalance decimal.Decimal `json:"initialBalance"`
	}
)

var (
	ErrUnknownKind      = errors.New("unknown type")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrNegativeLimit    = errors.New("limit must not be negative")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidColor     = errors.New("invalid color")
	ErrUnknownIcon      = errors.New("unknown icon")
	ErrBudgetOnNonExp   = errors.New("only expense transactions can reference a budget")
	ErrCategoryKind     = errors.New("category type does not match the transaction type")
)

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Kinds returns every valid Kind in display order.
func Kinds() []Kind {
	return []Kind{Income, Expense, Investment}
}

func (k Kind) Valid() bool {
	switch k {
	case Income, Expense, Investment:
		return true
	default:
		return false
	}
}

// Validate reports an unknown kind as a ValidationError on the given field.
func (k Kind) Validate(field string) error {
	if !k.Valid() {
		return &ValidationError{Field: field, Value: string(k), Err: ErrUnknownKind}
	}
	return nil
}

// ParseKind accepts the wire names case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if err := k.Validate("type"); err != nil {
		return "", err
	}
	return k, nil
}

// Normalize enforces that only expenses carry a budget reference.
func (t *Transaction) Normalize() {
	if t.Type != Expense {
		t.BudgetID = nil
	}
	t.Description = strings.TrimSpace(t.Description)
}

// HasBudget reports whether the transaction is a budget-tagged expense.
func (t Transaction) HasBudget() bool {
	return t.Type == Expense && t.BudgetID != nil
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate("type"); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if len(desc) > maxDescriptionLen {
		return &ValidationError{Field: "description", Err: fmt.Errorf("description too long (max %d characters)", maxDescriptionLen)}
	}
	if t.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Value: t.Amount.String(), Err: ErrNegativeAmount}
	}
	if t.BudgetID != nil && t.Type != Expense {
		return &ValidationError{Field: "budgetId", Err: ErrBudgetOnNonExp}
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if b.Limit.IsNegative() {
		return &ValidationError{Field: "limit", Value: b.Limit.String(), Err: ErrNegativeLimit}
	}
	if b.Color != "" && !hexColor.MatchString(b.Color) {
		return &ValidationError{Field: "color", Value: b.Color, Err: ErrInvalidColor}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if err := c.Type.Validate("type"); err != nil {
		return err
	}
	if !hexColor.MatchString(c.Color) {
		return &ValidationError{Field: "color", Value: c.Color, Err: ErrInvalidColor}
	}
	if c.Icon != "" && !c.Icon.Valid() {
		return &ValidationError{Field: "icon", Value: string(c.Icon), Err: ErrUnknownIcon}
	}
	return nil
}

// Association hooks used by the category shim.

func (t *Transaction) AssociationID() int64   { return t.ID }
func (t *Transaction) LinkedCategory() *int64 { return t.CategoryID }
func (t *Transaction) LinkCategory(id *int64) { t.CategoryID = id }
func (b *Budget) AssociationID() int64        { return b.ID }
func (b *Budget) LinkedCategory() *int64      { return b.CategoryID }
func (b *Budget) LinkCategory(id *int64)      { b.CategoryID = id }

// Int64 returns a pointer to v, for optional references.
func Int64(v int64) *int64 {
	return &v
}
