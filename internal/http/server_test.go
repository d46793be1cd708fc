package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"bilancio/internal/association"
	"bilancio/internal/categories"
	"bilancio/internal/core"
	"bilancio/internal/kv"
	"bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
	"bilancio/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, store storage.Collaborator, opts ...ServerOption) *Server {
	t.Helper()
	logger := log.New(log.Config{Output: io.Discard})
	local := kv.NewMemory()
	shim := association.NewShim(association.NewLocalStore(local), logger.Logger)
	cats := categories.NewStore(local)
	months := services.NewMonthService(store, shim, services.WithLogger(logger.Logger), services.WithCategories(cats))

	s := NewServer(":0", months, cats, append([]ServerOption{WithLogger(logger)}, opts...)...)
	t.Cleanup(s.rateLimiter.stop)
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, memory.New(false))
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	s = newTestServer(t, memory.New(false), WithReadiness(func(context.Context) error { return errors.New("db down") }))
	rec = do(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMonthEndToEnd(t *testing.T) {
	s := newTestServer(t, memory.New(false))

	rec := do(t, s, http.MethodPost, "/api/budgets?month=2025-03", `{"name":"Groceries","limit":"400"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	budgetID := decode(t, rec)["id"].(float64)
	require.Equal(t, float64(1), budgetID)

	for _, body := range []string{
		`{"description":"Salary","amount":"1000","type":"income","date":"2025-03-01"}`,
		`{"description":"Market","amount":"300","type":"expense","date":"2025-03-05","budgetId":1}`,
		`{"description":"ETF","amount":100,"type":"investment","date":"2025-03-10"}`,
	} {
		rec = do(t, s, http.MethodPost, "/api/transactions", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec = do(t, s, http.MethodPut, "/api/months/2025-03/initial-balance", `{"initialBalance":"500"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/months/2025-03", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, "1000", summary["totalIncome"])
	assert.Equal(t, "300", summary["totalExpenses"])
	assert.Equal(t, "100", summary["totalInvestments"])
	assert.Equal(t, "1100", summary["balance"])
	assert.Equal(t, "400", summary["totalBudgeted"])
	assert.Equal(t, "300", summary["totalUsed"])
	assert.Len(t, body["transactionStyles"], 3)
	assert.Equal(t, categories.FallbackColor, body["budgetColors"].(map[string]any)["1"])
}

func TestNegativeInitialBalance(t *testing.T) {
	s := newTestServer(t, memory.New(false))
	rec := do(t, s, http.MethodPut, "/api/months/2025-03/initial-balance", `{"initialBalance":"-12,50"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "-12.5", decode(t, rec)["initialBalance"])
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t, memory.New(false))
	tests := []struct {
		name, method, path, body, field string
	}{
		{"bad month", http.MethodGet, "/api/months/2025-13", "", "month"},
		{"negative amount", http.MethodPost, "/api/transactions", `{"description":"x","amount":"-5","type":"expense","date":"2025-03-01"}`, "amount"},
		{"unknown type", http.MethodPost, "/api/transactions", `{"description":"x","amount":"5","type":"gift","date":"2025-03-01"}`, "type"},
		{"bad date", http.MethodPost, "/api/transactions", `{"description":"x","amount":"5","type":"income","date":"01/03/2025"}`, "date"},
		{"unknown field", http.MethodPost, "/api/transactions", `{"amout":"5"}`, "body"},
		{"negative limit", http.MethodPost, "/api/budgets", `{"name":"x","limit":"-1"}`, "limit"},
		{"bad id", http.MethodPut, "/api/transactions/abc", `{}`, "id"},
		{"bad scope", http.MethodPut, "/api/budgets/1?scope=forever", `{"name":"x","limit":"1"}`, "scope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.Equal(t, tt.field, decode(t, rec)["field"])
		})
	}
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, memory.New(false))
	rec := do(t, s, http.MethodPut, "/api/transactions/42",
		`{"description":"x","amount":"5","type":"income","date":"2025-03-01"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/budgets/7?month=2025-03", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/categories/3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecurrentBudgetEditNeedsScope(t *testing.T) {
	s := newTestServer(t, memory.New(false))
	rec := do(t, s, http.MethodPost, "/api/budgets?month=2025-03",
		`{"name":"Rent","limit":"900","yearMonth":"2025-03","isRecurrent":true,"isRecurrenceActive":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPut, "/api/budgets/1?month=2025-04", `{"name":"Rent","limit":"950"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "scopeRequired", body["prompt"])
	assert.Equal(t, []any{"current-month", "recurring"}, body["choices"])

	rec = do(t, s, http.MethodPut, "/api/budgets/1?month=2025-04&scope=current-month", `{"name":"Rent","limit":"950"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "950", body["limit"])
	assert.Equal(t, true, body["isRecurrent"])
	assert.Equal(t, "2025-03", body["yearMonth"])
}

func TestDeleteUsedBudgetNeedsConfirmation(t *testing.T) {
	s := newTestServer(t, memory.New(false))
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/budgets", `{"name":"Fun","limit":"50"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/transactions",
		`{"description":"Cinema","amount":"12","type":"expense","date":"2025-03-08","budgetId":1}`).Code)

	rec := do(t, s, http.MethodDelete, "/api/budgets/1?month=2025-03", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "confirmationRequired", decode(t, rec)["prompt"])

	rec = do(t, s, http.MethodDelete, "/api/budgets/1?month=2025-03&confirm=true", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/budgets", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCategoriesAndDanglingSpend(t *testing.T) {
	s := newTestServer(t, memory.New(false))
	rec := do(t, s, http.MethodPost, "/api/categories", `{"name":"Food","type":"expense","icon":"food"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "#ef4444", decode(t, rec)["color"])

	rec = do(t, s, http.MethodPost, "/api/transactions",
		`{"description":"Pizza","amount":"20","type":"expense","date":"2025-03-02","categoryId":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/months/2025-03", "")
	body := decode(t, rec)
	style := body["transactionStyles"].(map[string]any)["1"].(map[string]any)
	assert.Equal(t, "food", style["icon"])
	byCat := body["summary"].(map[string]any)["byCategory"].([]any)
	require.Len(t, byCat, 1)
	assert.Equal(t, float64(1), byCat[0].(map[string]any)["categoryId"])

	require.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/categories/1", "").Code)

	rec = do(t, s, http.MethodGet, "/api/months/2025-03", "")
	body = decode(t, rec)
	style = body["transactionStyles"].(map[string]any)["1"].(map[string]any)
	assert.Equal(t, "cart", style["icon"])
	byCat = body["summary"].(map[string]any)["byCategory"].([]any)
	require.Len(t, byCat, 1)
	assert.Nil(t, byCat[0].(map[string]any)["categoryId"])
	assert.Equal(t, "20", byCat[0].(map[string]any)["amount"])

	rec = do(t, s, http.MethodGet, "/api/categories?type=income", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

type brokenStore struct {
	*memory.Store
}

func (brokenStore) FetchTransactions(context.Context, core.MonthKey) ([]core.Transaction, error) {
	return nil, errors.New("connection reset by peer")
}

func TestStorageFailureIsRetryable(t *testing.T) {
	s := newTestServer(t, brokenStore{memory.New(false)})
	rec := do(t, s, http.MethodGet, "/api/months/2025-03", "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["retryable"])
	assert.Equal(t, storageFailureMessage, body["error"])
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	s := newTestServer(t, memory.New(false), WithRateLimit(2))
	for i := 0; i < 2; i++ {
		rec := do(t, s, http.MethodPost, "/api/categories", `{"name":"C","type":"income"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := do(t, s, http.MethodPost, "/api/categories", `{"name":"C","type":"income"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.True(t, retry > 0 && retry <= 60, "Retry-After %d", retry)

	// reads are never limited
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/categories", "").Code)
}

func TestDeleteTransactionUsesStoredDate(t *testing.T) {
	s := newTestServer(t, memory.New(false))
	require.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/transactions",
		`{"description":"Cinema","amount":"12","type":"expense","date":"2025-03-08"}`).Code)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/api/transactions/1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/api/transactions/1", "").Code)
}

func TestCategoryTypeMustMatchTransaction(t *testing.T) {
	s := newTestServer(t, memory.New(false))
	rec := do(t, s, http.MethodPost, "/api/categories", `{"name":"Salary","type":"income"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/transactions",
		`{"description":"Pizza","amount":"20","type":"expense","date":"2025-03-02","categoryId":1}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "categoryId", decode(t, rec)["field"])

	rec = do(t, s, http.MethodPost, "/api/transactions",
		`{"description":"Pizza","amount":"20","type":"expense","date":"2025-03-02"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPut, "/api/transactions/1/category", `{"categoryId":1}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "categoryId", decode(t, rec)["field"])

	// unknown ids stay allowed and render with the fallback style
	rec = do(t, s, http.MethodPut, "/api/transactions/1/category", `{"categoryId":42}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
