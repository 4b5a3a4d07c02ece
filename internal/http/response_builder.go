// Package http serves the budget over a JSON API.
//
// This file implements the builder used by every handler to write JSON
// bodies and to turn domain errors into status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgie/internal/core"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       []byte
	headers    map[string]string
	errorBody  *ErrorBody
	err        error
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON encodes v as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.body, b.err = json.Marshal(v)
	return b
}

// Raw uses already encoded JSON as the body.
func (b *JSONResponseBuilder) Raw(body []byte) *JSONResponseBuilder {
	b.body = body
	return b
}

// RequestID tags an error response with the request's trace ID.
func (b *JSONResponseBuilder) RequestID(id string) *JSONResponseBuilder {
	if b.errorBody != nil {
		b.errorBody.Error.RequestID = id
	}
	return b
}

// Write sends the built response. An encoding failure becomes a 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	if b.errorBody != nil {
		b.JSON(b.errorBody)
	}
	if b.err != nil {
		b.statusCode = http.StatusInternalServerError
		b.body = []byte(`{"error":{"code":"internal","message":"response encoding failed"}}`)
	}
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
		if b.body[len(b.body)-1] != '\n' {
			_, _ = w.Write([]byte("\n"))
		}
	}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	b := NewJSONResponse().Status(statusCode)
	b.errorBody = &ErrorBody{Error: ErrorDetail{Code: code, Message: message}}
	return b
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal", message)
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate_limited", "rate limit exceeded, retry later")
}

// ForbiddenError creates a 403 response.
func ForbiddenError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusForbidden, "forbidden", "request rejected")
}

var validationErrors = []error{
	core.ErrInvalidEvent,
	core.ErrInvalidCadence,
	core.ErrEmptyTransaction,
	core.ErrEmptyScheduleDefinition,
	core.ErrInvalidAmount,
	core.ErrInvalidDate,
	core.ErrInvalidPriority,
	core.ErrEmptyName,
}

// StatusFor maps a domain error to its HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrUnknownAccount):
		return http.StatusNotFound, "unknown_account"
	case errors.Is(err, core.ErrAccountExists):
		return http.StatusConflict, "account_exists"
	case errors.Is(err, core.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, "invalid"
		}
	}
	return http.StatusInternalServerError, "internal"
}

// DomainError builds the response for an error returned by the service.
// Internal errors never leak their message.
func DomainError(err error) *JSONResponseBuilder {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		return InternalServerError("internal error")
	}
	return ErrorResponse(status, code, err.Error())
}
