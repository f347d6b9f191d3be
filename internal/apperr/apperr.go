package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so the HTTP boundary can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidFilter
	KindInvalidID
	KindValidation
	KindNotFound
	KindForbidden
	KindDuplicate
	KindMalformedRow
)

// Error is the single error type returned by the core packages.
type Error struct {
	Kind    Kind
	Message string
	// Fields maps a payload key to its validation messages. Only set for KindValidation.
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func InvalidFilter(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidFilter, Message: fmt.Sprintf(format, args...)}
}

func InvalidID(raw any) *Error {
	return &Error{Kind: KindInvalidID, Message: fmt.Sprintf("invalid id %v", raw)}
}

func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation error", Fields: fields}
}

// Invalid is a validation error with a single message and no field breakdown.
func Invalid(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(resource string, id int64) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %d not found", resource, id)}
}

func Forbidden(resource string, id int64) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf("access denied to %s %d", resource, id)}
}

// ForbiddenAction is returned when the actor lacks a capability rather than row access.
func ForbiddenAction(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Duplicate(resource string) *Error {
	return &Error{Kind: KindDuplicate, Message: fmt.Sprintf("%s already exists", resource)}
}

func MalformedRow(field string, err error) *Error {
	return &Error{Kind: KindMalformedRow, Message: fmt.Sprintf("malformed %s", field), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps an error to its HTTP status code. Malformed stored rows are a
// server fault and fall through to 500.
func Status(err error) int {
	switch KindOf(err) {
	case KindInvalidFilter, KindInvalidID, KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindDuplicate:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Type returns the client-facing error_type string.
func Type(err error) string {
	switch KindOf(err) {
	case KindInvalidFilter:
		return "query.invalid_filter"
	case KindInvalidID, KindValidation:
		return "validation"
	case KindNotFound:
		return "query.item_not_found"
	case KindForbidden:
		return "authorization.forbidden"
	case KindDuplicate:
		return "query.item_already_exists"
	case KindMalformedRow:
		return "report.malformed_row"
	}
	return "unknown"
}
