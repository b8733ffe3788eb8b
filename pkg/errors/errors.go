// Package errors provides the unified error type and factory functions for
// the MaxClaim carrier-intelligence engine.  Every layer (domain, engine,
// infrastructure, interfaces) uses AppError as the single carrier for
// structured error information, enabling consistent logging, metrics labels,
// and caller-facing failure results.
package errors

import (
	"errors"
	"fmt"
)

// AppError is the single structured error type used throughout the engine.
// It satisfies the standard error interface and supports Go 1.13+ error
// wrapping so that errors.Is / errors.As / errors.Unwrap work transparently
// across layers.
//
// Usage:
//
//	return errors.New(errors.ErrCodeInvalidAuditInput, "market price must be positive")
//	return errors.Wrap(repoErr, errors.ErrCodeDatabaseError, "failed to load carrier patterns")
type AppError struct {
	// Code is the typed error code identifying the failure category.
	Code ErrorCode

	// Message is the primary human-readable description of the error.
	Message string

	// Detail carries supplementary context (keys, carrier names, prices)
	// that aids debugging without bloating the primary message.
	Detail string

	// Cause is the underlying error that triggered this AppError, enabling
	// errors.Is / errors.As traversal of the full chain.
	Cause error
}

// Error implements the standard error interface.
// Format: "[<code>] <message>: <detail>"; detail is omitted when empty.
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As to
// traverse the chain without boilerplate at call sites.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a shallow copy of the receiver with Detail set.
// Safe to call on a nil pointer (returns nil).
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy of the receiver with Cause set to err.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// New constructs a fresh AppError with the given code and message.
// An empty message falls back to the code's default summary.
func New(code ErrorCode, message string) *AppError {
	if message == "" {
		message = code.DefaultMessage()
	}
	return &AppError{Code: code, Message: message}
}

// Newf constructs an AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an AppError that wraps an existing error.  If err is nil,
// Wrap returns nil so it can be used inline on fallible calls.  When err is
// already an *AppError and code is ErrCodeInternal the original code is
// preserved, preventing loss of the domain classification during cross-layer
// propagation.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == ErrCodeInternal {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// IsCode reports whether any error in err's chain is an *AppError carrying
// the given code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var ae *AppError
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether any error in err's chain is an *AppError with
// ErrCodeNotFound, ErrCodePatternNotFound, or ErrCodeCarrierNotFound.
func IsNotFound(err error) bool {
	for err != nil {
		var ae *AppError
		if errors.As(err, &ae) {
			switch ae.Code {
			case ErrCodeNotFound, ErrCodePatternNotFound, ErrCodeCarrierNotFound:
				return true
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the ErrorCode from the first *AppError found in err's
// chain.  Nil errors map to an empty code; non-AppError chains map to
// ErrCodeInternal.  Useful in metrics and logging layers that need a single
// label per failure.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeInternal
}

// NotFound constructs an ErrCodeNotFound AppError.  Prefer the domain codes
// ErrCodePatternNotFound / ErrCodeCarrierNotFound in repository layers.
func NotFound(message string) *AppError {
	return New(ErrCodeNotFound, message)
}

// InvalidInput constructs an ErrCodeValidation AppError for rejected caller
// input.  Per the engine's error contract, invalid input is reported, never
// panicked on, so a single bad item cannot abort a batch.
func InvalidInput(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// Internal constructs an ErrCodeInternal AppError for unexpected failures
// where no more specific code applies.
func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// Conflict constructs an ErrCodeConflict AppError.
func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message)
}

// NotImplemented constructs an ErrCodeNotImplemented AppError.
func NotImplemented(message string) *AppError {
	return New(ErrCodeNotImplemented, message)
}
