// Package fault defines the error kinds raised by the watermarking core.
//
// Each error carries a Kind for programmatic handling and an Op naming the
// operation that failed. Helpers use errors.As so wrapped errors still match.
package fault

import (
	"errors"
	"fmt"
)

// Kind categorizes core errors.
type Kind string

const (
	// ConfigurationExhausted indicates partitioning failed within the retry budget.
	ConfigurationExhausted Kind = "CONFIGURATION_EXHAUSTED"

	// StoreUnavailable indicates a store call failed.
	StoreUnavailable Kind = "STORE_UNAVAILABLE"

	// InvariantViolation indicates broken internal consistency.
	InvariantViolation Kind = "INVARIANT_VIOLATION"

	// EmptyValueDomain indicates no observed values exist for a required field.
	EmptyValueDomain Kind = "EMPTY_VALUE_DOMAIN"

	// InvalidArgument indicates caller-supplied parameters are unusable.
	InvalidArgument Kind = "INVALID_ARGUMENT"
)

// Error is a categorized core error.
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Op names the failing operation, e.g. "partition" or "store.delete_nodes".
	Op string

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without an underlying cause.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around err. Returns nil if err is nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Kind == kind {
		return err
	}
	return &Error{Kind: kind, Op: op, Message: "operation failed", Err: err}
}

// Store wraps a store failure as StoreUnavailable.
func Store(op string, err error) error {
	return Wrap(StoreUnavailable, op, err)
}

// KindOf returns the Kind of the first Error in err's chain, or "".
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsConfigurationExhausted reports whether partitioning ran out of tries.
func IsConfigurationExhausted(err error) bool { return Is(err, ConfigurationExhausted) }

// IsStoreUnavailable reports whether a store call failed.
func IsStoreUnavailable(err error) bool { return Is(err, StoreUnavailable) }

// IsInvariantViolation reports whether an internal invariant was broken.
func IsInvariantViolation(err error) bool { return Is(err, InvariantViolation) }

// IsEmptyValueDomain reports whether a required field had no observed values.
func IsEmptyValueDomain(err error) bool { return Is(err, EmptyValueDomain) }

// IsInvalidArgument reports whether parameters were rejected.
func IsInvalidArgument(err error) bool { return Is(err, InvalidArgument) }
