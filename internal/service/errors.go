package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"trackify/api/internal/repository"
)

// Kind classifies a service error. The HTTP layer maps each kind to one status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindInvalidOrExpiredToken
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindInvalidOrExpiredToken:
		return "invalid_or_expired_token"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	}
	return "internal"
}

var defaultMessages = map[Kind]string{
	KindInternal:              "Internal server error",
	KindValidation:            "Validation failed",
	KindAuthentication:        "Authentication failed",
	KindAuthorization:         "You do not have permission to perform this action",
	KindNotFound:              "Resource not found",
	KindInvalidOrExpiredToken: "Token is invalid or has expired",
	KindConflict:              "Resource already exists",
	KindUnavailable:           "Service unavailable",
}

// Error is the typed error returned by every service.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field reasons for validation errors.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = defaultMessages[e.Kind]
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + e.Fields[k]
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind. A target with a message must also match the message,
// so ErrAccountDisabled is an ErrAuthentication but not an ErrInvalidCredentials.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// PublicMessage is the text safe to show clients.
func (e *Error) PublicMessage() string {
	if e.Message == "" {
		return defaultMessages[e.Kind]
	}
	return e.Message
}

// Kind-only sentinels for errors.Is checks.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrAuthorization  = &Error{Kind: KindAuthorization}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrConflict       = &Error{Kind: KindConflict}
)

var (
	ErrInvalidCredentials    = &Error{Kind: KindAuthentication, Message: "Invalid email or password"}
	ErrAccountDisabled       = &Error{Kind: KindAuthentication, Message: "Account is disabled"}
	ErrInvalidToken          = &Error{Kind: KindAuthentication, Message: "Invalid or expired token. Please log in again"}
	ErrNotLoggedIn           = &Error{Kind: KindAuthentication, Message: "You are not logged in. Please log in to get access"}
	ErrPrincipalGone         = &Error{Kind: KindAuthentication, Message: "The account belonging to this token no longer exists or is disabled"}
	ErrWrongPassword         = &Error{Kind: KindAuthentication, Message: "Current password is incorrect"}
	ErrInvalidOrExpiredToken = &Error{Kind: KindInvalidOrExpiredToken, Message: "Token is invalid or has expired"}
	ErrEmailTaken            = &Error{Kind: KindConflict, Message: "Email already in use"}
	ErrStorageDisabled       = &Error{Kind: KindUnavailable, Message: "Image storage is not configured"}
)

// ValidationError builds a 400 error with field level reasons.
func ValidationError(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Fields: fields}
}

// InvalidInput is a validation error about a single field.
func InvalidInput(field, reason string) *Error {
	return ValidationError(map[string]string{field: reason})
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, KindInternal for anything untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// notFoundOr maps repository.ErrNotFound to a NotFound error and wraps anything else.
func notFoundOr(err error, what, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NotFound(what)
	}
	return fmt.Errorf("%s: %w", op, err)
}
