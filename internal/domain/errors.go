package domain

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// ErrorKind classifies a failure for the transport layer
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindValidation
	KindEmptyCart
	KindUnauthorized
	KindForbidden
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindEmptyCart:
		return "empty_cart"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified business error. Message is safe to show to clients;
// Err holds the underlying cause for operators.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError creates a classified error without a cause
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind and message, so a sentinel still matches
// after it has been re-created with a cause attached.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// WithCause returns a copy of the error carrying err as its cause
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: pkgerrors.WithStack(err)}
}

// Validation creates a validation error with the given client message
func Validation(message string) *Error {
	return NewError(KindValidation, message)
}

// Internal wraps an infrastructure failure. The stack is captured at the call site.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: pkgerrors.WithStack(err)}
}

// KindOf reports the kind of err, or KindInternal when err is unclassified
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Cart and order invariants
var (
	ErrInvalidSize             = NewError(KindValidation, "size not available for this product")
	ErrCartItemNotFound        = NewError(KindNotFound, "item not found in cart")
	ErrEmptyCart               = NewError(KindEmptyCart, "cart is empty")
	ErrInvalidStatusTransition = NewError(KindValidation, "invalid order status transition")
)
