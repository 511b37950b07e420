// Package http exposes the dashboard services as a JSON API.
//
// This file implements the builder used by every handler to write a
// response: status, headers and a JSON or binary body.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"bizdash/internal/core"
	"bizdash/internal/storage"
)

// ResponseBuilder provides a fluent API for building API responses.
type ResponseBuilder struct {
	statusCode  int
	headers     map[string]string
	payload     any
	raw         []byte
	contentType string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.payload = v
	b.raw = nil
	return b
}

// Attachment sends data as a file download.
func (b *ResponseBuilder) Attachment(filename, contentType string, data []byte) *ResponseBuilder {
	b.payload = nil
	b.raw = data
	b.contentType = contentType
	b.headers["Content-Disposition"] = `attachment; filename="` + filename + `"`
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	switch {
	case b.raw != nil:
		w.Header().Set("Content-Type", b.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(b.raw)))
		w.WriteHeader(b.statusCode)
		_, _ = w.Write(b.raw)
	case b.payload != nil:
		body, err := json.Marshal(b.payload)
		if err != nil {
			slog.Error("Failed to encode response", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal error"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(b.statusCode)
		_, _ = w.Write(body)
	default:
		w.WriteHeader(b.statusCode)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message).Header("WWW-Authenticate", `Bearer realm="bizdash"`)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ErrorFor maps a service error to a response. Unknown errors are logged and
// hidden behind a generic 500.
func ErrorFor(r *http.Request, err error) *ResponseBuilder {
	var schedErr *core.InvalidScheduleError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return NotFoundError("not found")
	case errors.As(err, &schedErr):
		return UnprocessableEntityError(schedErr.Error())
	case errors.Is(err, storage.ErrOverdueNotStorable), core.IsValidation(err):
		return BadRequestError(err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"component", "http")
		return InternalServerError("internal error")
	}
}
