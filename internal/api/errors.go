package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind is the discriminant for service-layer errors. Handlers translate kinds
// to HTTP statuses; nothing should ever match on error message text.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindInvalidState
	KindNotEditable
	KindValidation
	KindNotFound
	KindConflict
	KindRateLimited
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: message}
}

// InvalidState reports a transition attempted from a status not in the legal
// source set. The message names the current and required states.
func InvalidState(message string) *Error {
	return &Error{Kind: KindInvalidState, Code: "INVALID_STATE", Message: message}
}

func NotEditable(message string) *Error {
	return &Error{Kind: KindNotEditable, Code: "NOT_EDITABLE", Message: message}
}

func Validation(code, message string) *Error {
	if code == "" {
		code = "VALIDATION_FAILED"
	}
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Error: APIError{Code: code, Message: message},
	})
}

// WriteErr maps a service error to its HTTP representation. Unknown errors
// become a generic 500; the caller is expected to have logged them.
func WriteErr(w http.ResponseWriter, err error) {
	var ae *Error
	if !errors.As(err, &ae) {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	WriteError(w, httpStatus(ae.Kind), ae.Code, ae.Message)
}

func httpStatus(k Kind) int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState, KindNotEditable, KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
