package http

import (
	"errors"
	"net/http"

	"bilancio/internal/log"
	"bilancio/internal/services"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.months.Budgets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(budgets).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	month, err := queryMonth(r, false, s.now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := req.toBudget()
	if err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.months.CreateBudget(r.Context(), month, b)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Budget created", log.FieldBudgetID, created.ID)
	NewJSONResponse().Status(http.StatusCreated).Data(created).Write(w)
}

// handleUpdateBudget answers 409 with scopeRequired when a recurrent budget is
// edited without ?scope=current-month or ?scope=recurring.
func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	month, err := queryMonth(r, false, s.now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	scope, err := queryScope(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	edit, err := req.toBudget()
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := s.months.UpdateBudget(r.Context(), month, id, edit, scope)
	if errors.Is(err, services.ErrRecurrenceScopeRequired) {
		NewJSONResponse().Status(http.StatusConflict).Data(promptBody{
			Error:   err.Error(),
			Prompt:  "scopeRequired",
			Choices: []string{string(services.ScopeCurrentMonth), string(services.ScopeRecurring)},
		}).Write(w)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(updated).Write(w)
}

// handleDeleteBudget answers 409 with confirmationRequired when the budget has
// usage in ?month= and ?confirm=true is missing.
func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	month, err := queryMonth(r, true, s.now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	err = s.months.DeleteBudget(r.Context(), month, id, queryBool(r, "confirm"))
	if errors.Is(err, services.ErrConfirmationRequired) {
		NewJSONResponse().Status(http.StatusConflict).Data(promptBody{
			Error:  err.Error(),
			Prompt: "confirmationRequired",
		}).Write(w)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// promptBody is a 409 asking the client for a decision before retrying.
type promptBody struct {
	Error   string   `json:"error"`
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices,omitempty"`
}
