package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

// ErrBookingNotEditable is matched with errors.Is by callers that only care
// about the edit guard.
var ErrBookingNotEditable = errors.New("booking is not editable")

type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindForbidden  Kind = "forbidden"
	KindGateway    Kind = "gateway"
	KindInternal   Kind = "internal"
)

// Error is the application error carried across service boundaries.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func NewValidation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NewFieldValidation reports a single offending field.
func NewFieldValidation(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    "invalid_field",
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

func NewNotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func NewConflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func NewForbidden(code, message string) *Error {
	return &Error{Kind: KindForbidden, Code: code, Message: message, Err: ErrForbidden}
}

func NewInternal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: message, Err: err}
}

// NotEditable builds the BookingNotEditable failure for the given status.
func NotEditable(status string) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    "booking_not_editable",
		Message: fmt.Sprintf("booking in status %q can no longer be edited", status),
		Err:     ErrBookingNotEditable,
	}
}

// GatewayError is returned when the payment provider call does not succeed.
type GatewayError struct {
	Status int
	Body   string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment gateway request failed: %v", e.Err)
	}
	return fmt.Sprintf("payment gateway returned status %d: %s", e.Status, e.Body)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// KindOf classifies any error; unknown errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var gw *GatewayError
	if errors.As(err, &gw) {
		return KindGateway
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// As extracts the application error, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err classifies as k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
