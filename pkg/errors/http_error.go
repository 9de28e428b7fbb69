package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-checkable error code sent to clients.
type Kind string

const (
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
	KindInvalidCredential Kind = "INVALID_CREDENTIAL"
	KindForbidden         Kind = "FORBIDDEN"
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidRequest    Kind = "INVALID_REQUEST"
	KindConflict          Kind = "CONFLICT"
	KindTooManyRequests   Kind = "TOO_MANY_REQUESTS"
	KindTimeout           Kind = "TIMEOUT"
	KindInternal          Kind = "INTERNAL"
)

var kindStatus = map[Kind]int{
	KindUnauthenticated:   http.StatusUnauthorized,
	KindInvalidCredential: http.StatusUnauthorized,
	KindForbidden:         http.StatusForbidden,
	KindNotFound:          http.StatusNotFound,
	KindInvalidRequest:    http.StatusBadRequest,
	KindConflict:          http.StatusConflict,
	KindTooManyRequests:   http.StatusTooManyRequests,
	KindTimeout:           http.StatusGatewayTimeout,
	KindInternal:          http.StatusInternalServerError,
}

// HttpError carries an HTTP status, a client-safe message and the wrapped cause.
type HttpError struct {
	Code    int
	Kind    Kind
	Message string
	Err     error
	Details map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

// NewHttpError derives the kind from the status code.
func NewHttpError(code int, message string, err error, details map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Kind: kindForStatus(code), Message: message, Err: err, Details: details}
}

func New(kind Kind, message string, err error) *HttpError {
	code, ok := kindStatus[kind]
	if !ok {
		code = http.StatusInternalServerError
	}
	return &HttpError{Code: code, Kind: kind, Message: message, Err: err}
}

func NewBadRequestError(message string) *HttpError {
	return New(KindInvalidRequest, message, ErrBadRequest)
}

func NewForbiddenError(message string) *HttpError {
	return New(KindForbidden, message, ErrForbidden)
}

func NewNotFoundError(message string) *HttpError {
	return New(KindNotFound, message, ErrNotFound)
}

func NewConflictError(message string) *HttpError {
	return New(KindConflict, message, ErrConflict)
}

func kindForStatus(code int) Kind {
	for k, c := range kindStatus {
		if c == code && k != KindInvalidCredential {
			return k
		}
	}
	if code >= 400 && code < 500 {
		return KindInvalidRequest
	}
	return KindInternal
}

// KindOf resolves the kind of any error produced in this module.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Kind
	}
	var inputErr *InvalidInputError
	if errors.As(err, &inputErr) {
		return KindInvalidRequest
	}
	switch {
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrInvalidSigningMethod):
		return KindInvalidCredential
	case errors.Is(err, ErrEmptyAuthHeader), errors.Is(err, ErrInvalidAuthHeader),
		errors.Is(err, ErrUnauthorized), errors.Is(err, ErrAccountInactive):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrAwaitingApproval):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrEmailTaken), errors.Is(err, ErrInvalidCredentials):
		return KindInvalidRequest
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrTooManyAttempts):
		return KindTooManyRequests
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	return KindInternal
}

// StatusOf returns the HTTP status for a kind.
func StatusOf(kind Kind) int {
	if code, ok := kindStatus[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}
