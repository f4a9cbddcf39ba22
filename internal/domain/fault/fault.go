package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers (handlers, tests) can react without
// string matching.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindAuthorization
	KindCapacity
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "state_conflict"
	case KindAuthorization:
		return "authorization"
	case KindCapacity:
		return "insufficient_capacity"
	default:
		return "unknown"
	}
}

// Error is a classified error. It wraps an optional cause so errors.Is /
// errors.As keep working through service boundaries.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error, keeping it in the unwrap chain.
func Wrap(kind Kind, err error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

func Validationf(format string, args ...any) error {
	return New(KindValidation, format, args...)
}

func NotFoundf(format string, args ...any) error {
	return New(KindNotFound, format, args...)
}

func Conflictf(format string, args ...any) error {
	return New(KindConflict, format, args...)
}

func Authorizationf(format string, args ...any) error {
	return New(KindAuthorization, format, args...)
}

func Capacityf(format string, args ...any) error {
	return New(KindCapacity, format, args...)
}

// KindOf extracts the Kind from anywhere in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool      { return KindOf(err) == KindConflict }
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
func IsCapacity(err error) bool      { return KindOf(err) == KindCapacity }
