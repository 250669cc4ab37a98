// Package response provides helpers for writing consistent HTTP responses.
//
// Success bodies may be any JSON shape. Error bodies come in two forms:
//
//	general    { "status": "error", "error": "course 1000 not found" }
//	validation 422 application/problem+json with an "errors" object keyed by field
package response

import (
	"encoding/json"
	"net/http"

	"github.com/aanand-mishra/courses-api/internal/types"
)

// Response is the standard envelope returned for non-validation errors.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ValidationProblem is the 422 body. Its shape follows RFC 7807 problem
// details, extended with the per-field "errors" object.
type ValidationProblem struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail"`
	Instance string            `json:"instance"`
	Errors   types.FieldErrors `json:"errors"`
}

// WriteJSON writes data as JSON with the given status code.
//
// Order matters: Header() → WriteHeader() → body. Headers are locked once
// the status line is written.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// NoContent writes a bare 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Created writes 201 with a Location header pointing at the new resource.
func Created(w http.ResponseWriter, location string, data any) error {
	w.Header().Set("Location", location)
	return WriteJSON(w, http.StatusCreated, data)
}

// GeneralError wraps any Go error into the standard envelope.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// Error writes the general envelope for err with status.
func Error(w http.ResponseWriter, status int, err error) {
	_ = WriteJSON(w, status, GeneralError(err))
}

// ValidationError writes a 422 problem body listing errs. instance is the
// request path that failed.
func ValidationError(w http.ResponseWriter, instance string, errs types.FieldErrors) {
	problem := ValidationProblem{
		Type:     "https://tools.ietf.org/html/rfc4918#section-11.2",
		Title:    "One or more validation errors occurred.",
		Status:   http.StatusUnprocessableEntity,
		Detail:   "See the errors field for details.",
		Instance: instance,
		Errors:   errs,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(problem)
}
