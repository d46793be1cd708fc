package http

import (
	"net/http"
	"strings"

	"bilancio/internal/aggregate"
	"bilancio/internal/categories"
	"bilancio/internal/core"
	"bilancio/internal/services"

	"github.com/shopspring/decimal"
)

type transactionStyle struct {
	Color string    `json:"color"`
	Icon  core.Icon `json:"icon"`
}

type monthResponse struct {
	Month             string                     `json:"month"`
	Data              core.MonthData             `json:"data"`
	Summary           aggregate.Summary          `json:"summary"`
	BudgetColors      map[int64]string           `json:"budgetColors"`
	TransactionStyles map[int64]transactionStyle `json:"transactionStyles"`
}

// newMonthResponse decorates a view with category styling. Spend on deleted
// categories is folded into the uncategorized bucket.
func newMonthResponse(view services.MonthView, cats *categories.Store) (monthResponse, error) {
	resp := monthResponse{
		Month:             view.Data.Month.String(),
		Data:              view.Data,
		Summary:           view.Summary,
		BudgetColors:      make(map[int64]string, len(view.Data.Budgets)),
		TransactionStyles: make(map[int64]transactionStyle, len(view.Data.Transactions)),
	}
	resp.Summary.ByCategory = aggregate.RegroupDangling(view.Summary.ByCategory, cats.Exists)

	for _, b := range view.Data.Budgets {
		resp.BudgetColors[b.ID] = categories.BudgetColor(b, cats)
	}
	for _, t := range view.Data.Transactions {
		color, icon, err := categories.TransactionStyle(t, cats)
		if err != nil {
			return monthResponse{}, err
		}
		resp.TransactionStyles[t.ID] = transactionStyle{Color: color, Icon: icon}
	}
	return resp, nil
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	month, err := pathMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.months.LoadMonth(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := newMonthResponse(view, s.categories)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(resp).Write(w)
}

// parseBalance accepts a leading minus; a carried-over balance may be negative.
func parseBalance(raw amountField) (decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	neg := strings.HasPrefix(s, "-")
	d, err := amountField(strings.TrimPrefix(s, "-")).parse("initialBalance")
	if err != nil {
		return decimal.Zero, err
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

func (s *Server) handleSetInitialBalance(w http.ResponseWriter, r *http.Request) {
	month, err := pathMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req balanceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	balance, err := parseBalance(req.InitialBalance)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.months.SaveInitialBalance(r.Context(), month, balance); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(core.MonthSettings{Month: month, InitialBalance: balance}).Write(w)
}
