// Package errors carries HTTP-aware errors from services to the transport.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/strogmv/payment-service/internal/pkg/logger"
)

// HTTPError is an error with a status code and a client-safe detail.
type HTTPError struct {
	Status int
	Title  string
	Detail string
	Err    error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Title + ": " + e.Detail + ": " + e.Err.Error()
	}
	return e.Title + ": " + e.Detail
}

func (e *HTTPError) Unwrap() error { return e.Err }

func New(status int, title, detail string) error {
	return &HTTPError{Status: status, Title: title, Detail: detail}
}

// Wrap attaches cause to a client-visible error. The cause is logged, never sent.
func Wrap(err error, status int, title, detail string) error {
	return &HTTPError{Status: status, Title: title, Detail: detail, Err: err}
}

type body struct {
	Error string `json:"error"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// WriteError renders err as {"error": detail}. Errors that are not HTTPError
// become a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var he *HTTPError
	if !stderrors.As(err, &he) {
		he = &HTTPError{Status: http.StatusInternalServerError, Title: "Internal Server Error", Detail: "internal error", Err: err}
	}
	if he.Status >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("request failed",
			"status", he.Status,
			"path", r.URL.Path,
			"error", err.Error(),
		)
	}
	WriteJSON(w, he.Status, body{Error: he.Detail})
}

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// Status returns the HTTP status carried by err, or 500.
func Status(err error) int {
	var he *HTTPError
	if stderrors.As(err, &he) {
		return he.Status
	}
	return http.StatusInternalServerError
}
