// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler sends JSON back to the client. Rather than repeating the
// same three lines (set header, set status, encode JSON) in every handler,
// they live here, together with the mapping from error kinds to status
// codes.
package response

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	rerrors "github.com/aanand-mishra/students-roster/internal/errors"
	"github.com/aanand-mishra/students-roster/internal/types"
)

// Response is the standard envelope returned for error cases.
//
// Success responses may return any JSON shape (a student, a list, a count).
// Error responses always look like:
//
//	{ "status": "error", "error": "field Name is required" }
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into the standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts validator failures into a single Response,
// one sentence per failing field joined with ", ":
//
//	{ "status": "error", "error": "field ID is required, field GPA must be between 0 and 4.0" }
//
// The student handlers send this for a decoded record that breaks its
// validate:"..." rules, so a client fixing a form sees every problem at
// once. Each sentence comes from types.FieldError, the same wording the
// command-line tool prints for the first failure.
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string
	for _, e := range errs {
		errMessages = append(errMessages, types.FieldError(e).Error())
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// StatusFor maps an error kind to the HTTP status reported to clients.
//
//	validation → 400 Bad Request        (the client can fix the request)
//	not found  → 404 Not Found
//	parse      → 422 Unprocessable      (a roster file held a bad GPA)
//	anything else, I/O included → 500
//
// The kinds are matched with errors.Is, so wrapping with fmt.Errorf("%w")
// on the way up keeps the status.
// ─────────────────────────────────────────────────────────────────────────────
func StatusFor(err error) int {
	switch {
	case rerrors.IsValidation(err):
		return http.StatusBadRequest
	case rerrors.IsNotFound(err):
		return http.StatusNotFound
	case rerrors.IsParse(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err in the standard envelope with the status that
// matches its kind.
func WriteError(w http.ResponseWriter, err error) error {
	return WriteJSON(w, StatusFor(err), GeneralError(err))
}
