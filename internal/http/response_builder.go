// This file implements a small builder for API and download responses so
// every handler sets headers, status and body the same way.

package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
)

// ResponseBuilder provides a fluent API for writing responses.
type ResponseBuilder struct {
	statusCode int
	body       []byte
	headers    http.Header
	err        error
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    http.Header{},
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers.Set(name, value)
	return b
}

// NoStore marks the response as not cacheable.
func (b *ResponseBuilder) NoStore() *ResponseBuilder {
	return b.Header("Cache-Control", "no-store")
}

// Body sets the response body and its content type.
func (b *ResponseBuilder) Body(contentType string, content []byte) *ResponseBuilder {
	b.headers.Set("Content-Type", contentType)
	b.body = content
	return b
}

// JSON encodes v as the response body. An encoding failure turns the
// response into a 500.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		b.err = err
		return b
	}
	return b.Body("application/json", buf.Bytes())
}

// Attachment marks the body as a download with the given file name.
func (b *ResponseBuilder) Attachment(filename string) *ResponseBuilder {
	return b.Header("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
}

// Err reports a failure recorded while building, if any.
func (b *ResponseBuilder) Err() error { return b.err }

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	if b.err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	for name, values := range b.headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	if len(b.body) > 0 {
		w.Header().Set("Content-Length", strconv.Itoa(len(b.body)))
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// apiError is the JSON body of every API error.
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ErrorResponse creates a JSON error response.
func ErrorResponse(statusCode int, code, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		NoStore().
		JSON(apiError{Error: message, Code: code})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

// UnavailableError is returned while there is no data to serve.
func UnavailableError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, "unavailable", message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal", message)
}
