// Package fault defines the error taxonomy shared by the booking core.
// Every failure a caller can see carries a Kind (what class of thing went
// wrong) and a stable machine-readable Code; the HTTP layer maps Kind to a
// status and never exposes anything beyond Code and Message.
package fault

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindPolicy
	KindPaymentFailed
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindPolicy:
		return "policy"
	case KindPaymentFailed:
		return "payment_failed"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Stable machine codes. These are part of the API surface; renaming one is
// a breaking change for callers.
const (
	CodeInvalidRange        = "invalid_range"
	CodeCrossDayRange       = "cross_day_range"
	CodeInThePast           = "in_the_past"
	CodeInvalidTimezone     = "invalid_timezone"
	CodeOverlap             = "overlap"
	CodeNotFound            = "not_found"
	CodeInvalidDuration     = "invalid_duration"
	CodeMissingPriceConfig  = "missing_price_config"
	CodeInvalidSubmerchant  = "invalid_submerchant"
	CodeNoOpenAvailability  = "no_open_availability"
	CodeSubmerchantNotFound = "submerchant_not_found"
	CodeAmountTooSmall      = "amount_too_small"
	CodePaymentFailed       = "payment_failed"
	CodeInternal            = "internal"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches taxonomy to an underlying error. The cause is reachable via
// errors.Unwrap for logging but is never serialized to callers.
func Wrap(err error, kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: err}
}

// KindOf extracts the Kind from an error chain, KindUnknown if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// CodeOf extracts the stable code from an error chain, CodeInternal if none.
func CodeOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-safe message for an error chain.
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return "internal error"
}
