// This file implements parsing of path values, query parameters and JSON
// request bodies into domain types.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/services"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

var (
	errMissingMonth = errors.New("month is required")
	errBadBody      = errors.New("malformed JSON body")
)

// amountField accepts an amount as a JSON string ("12,50") or number (12.5).
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	*a = amountField(b)
	return nil
}

func (a amountField) parse(field string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(string(a))
	if err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			ve.Field = field
		}
		return decimal.Zero, err
	}
	return d, nil
}

type transactionRequest struct {
	Description string      `json:"description"`
	Amount      amountField `json:"amount"`
	Type        string      `json:"type"`
	Date        string      `json:"date"`
	BudgetID    *int64      `json:"budgetId"`
	CategoryID  *int64      `json:"categoryId"`
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	amount, err := req.Amount.parse("amount")
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := core.ParseKind(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "date", Value: req.Date, Err: err}
	}
	return core.Transaction{
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Type:        kind,
		Date:        date,
		BudgetID:    req.BudgetID,
		CategoryID:  req.CategoryID,
	}, nil
}

type budgetRequest struct {
	Name               string      `json:"name"`
	Limit              amountField `json:"limit"`
	YearMonth          string      `json:"yearMonth"`
	IsRecurrent        bool        `json:"isRecurrent"`
	IsRecurrenceActive bool        `json:"isRecurrenceActive"`
	CategoryID         *int64      `json:"categoryId"`
	Color              string      `json:"color"`
}

func (req budgetRequest) toBudget() (core.Budget, error) {
	limit, err := req.Limit.parse("limit")
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{
		Name:               sanitizeInput(req.Name),
		Limit:              limit,
		IsRecurrent:        req.IsRecurrent,
		IsRecurrenceActive: req.IsRecurrent && req.IsRecurrenceActive,
		CategoryID:         req.CategoryID,
		Color:              strings.TrimSpace(req.Color),
	}
	if ym := strings.TrimSpace(req.YearMonth); ym != "" {
		m, err := core.ParseMonthKey(ym)
		if err != nil {
			return core.Budget{}, err
		}
		b.YearMonth = &m
	}
	return b, nil
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
	Type  string `json:"type"`
}

func (req categoryRequest) toCategory() (core.Category, error) {
	kind, err := core.ParseKind(req.Type)
	if err != nil {
		return core.Category{}, err
	}
	return core.Category{
		Name:  sanitizeInput(req.Name),
		Color: strings.TrimSpace(req.Color),
		Icon:  core.Icon(strings.TrimSpace(req.Icon)),
		Type:  kind,
	}, nil
}

type balanceRequest struct {
	InitialBalance amountField `json:"initialBalance"`
}

type categoryLinkRequest struct {
	CategoryID *int64 `json:"categoryId"`
}

// decodeJSON decodes a single JSON object, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Field: "body", Err: fmt.Errorf("%w: %v", errBadBody, err)}
	}
	return nil
}

// pathMonth parses the {month} path value.
func pathMonth(r *http.Request) (core.MonthKey, error) {
	return core.ParseMonthKey(r.PathValue("month"))
}

// pathID parses the {id} path value as a positive integer.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, &core.ValidationError{Field: "id", Value: raw, Err: errors.New("must be a positive integer")}
	}
	return id, nil
}

// queryMonth parses ?month=. When it is absent the current month is used,
// unless required is set.
func queryMonth(r *http.Request, required bool, now func() time.Time) (core.MonthKey, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		if required {
			return core.MonthKey{}, &core.ValidationError{Field: "month", Err: errMissingMonth}
		}
		return core.MonthOf(now()), nil
	}
	return core.ParseMonthKey(raw)
}

func queryScope(r *http.Request) (services.EditScope, error) {
	return services.ParseEditScope(r.URL.Query().Get("scope"))
}

// queryBool reads a boolean flag; a bare or unparsable value counts as false.
func queryBool(r *http.Request, name string) bool {
	b, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && b
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
