// Package http serves the bilancio JSON API.
//
// This file holds the fluent builder every handler uses to write responses,
// and the mapping from domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response. A nil payload writes no body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	body, err := json.Marshal(b.payload)
	if err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Data(ErrorBody{Error: message})
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// storageFailureMessage is shown for every storage failure; details stay in
// the logs.
const storageFailureMessage = "The change could not be saved. Please try again."

// writeError maps err to a status code and writes it:
// validation 422, not found 404, confirmation or scope prompts 409,
// storage 502 (retryable), anything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	body := ErrorBody{Error: err.Error(), RequestID: log.RequestIDFromContext(ctx)}
	status := http.StatusInternalServerError

	var (
		ve *core.ValidationError
		nf *core.NotFoundError
		se *core.StorageError
	)
	switch {
	case errors.As(err, &ve):
		status = http.StatusUnprocessableEntity
		body.Field = ve.Field
	case errors.As(err, &nf):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrConfirmationRequired), errors.Is(err, services.ErrRecurrenceScopeRequired):
		status = http.StatusConflict
	case errors.As(err, &se):
		status = http.StatusBadGateway
		body.Error = storageFailureMessage
		body.Retryable = true
		logger.ErrorContext(ctx, "Storage failure", log.FieldOperation, se.Op, log.FieldError, se.Err)
	default:
		body.Error = "internal error"
		logger.ErrorContext(ctx, "Unhandled error", log.FieldError, err)
	}
	NewJSONResponse().Status(status).Data(body).Write(w)
}
