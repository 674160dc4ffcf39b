package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type returned by modelkit packages.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context such as the family key.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an AppError with the same code, so
// sentinel values built with New can be matched with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Registry error constructors ---

// FamilyConflict reports a second, different default registration for family.
func FamilyConflict(family, reason string, expected, actual any) *AppError {
	return &AppError{
		Code:    ErrCodeFamilyConflict,
		Message: fmt.Sprintf("family %q already registered: %s", family, reason),
		Details: map[string]any{
			"family":   family,
			"expected": fmt.Sprint(expected),
			"actual":   fmt.Sprint(actual),
		},
	}
}

// IncompatibleProvider reports a provider whose abstract type differs from the family's.
func IncompatibleProvider(family string, expected, actual any) *AppError {
	return &AppError{
		Code:    ErrCodeIncompatibleProvider,
		Message: fmt.Sprintf("provider for %v cannot serve family %q (expects %v)", actual, family, expected),
		Details: map[string]any{
			"family":   family,
			"expected": fmt.Sprint(expected),
			"actual":   fmt.Sprint(actual),
		},
	}
}

// FamilyNotFound reports a family that has no state even after its initializer ran.
func FamilyNotFound(family string) *AppError {
	return &AppError{
		Code:    ErrCodeFamilyNotFound,
		Message: fmt.Sprintf("family %q has no registered default provider", family),
		Details: map[string]any{"family": family},
	}
}

// InvalidProvider reports a provider whose declared types cannot be used.
func InvalidProvider(family, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidProvider,
		Message: fmt.Sprintf("invalid provider for family %q: %s", family, reason),
		Details: map[string]any{"family": family},
	}
}

// AlternativeNotFound reports an unknown named alternative provider.
func AlternativeNotFound(family, name string) *AppError {
	return &AppError{
		Code:    ErrCodeAlternativeNotFound,
		Message: fmt.Sprintf("family %q has no alternative provider %q", family, name),
		Details: map[string]any{"family": family, "alternative": name},
	}
}

// DecodeFailed reports a payload that could not be decoded into the family's model.
func DecodeFailed(family, format string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeDecodeFailed,
		Message: fmt.Sprintf("cannot decode %s payload for family %q", format, family),
		Details: map[string]any{"family": family, "format": format},
		Cause:   cause,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code:    ErrCodeInvalidInput,
		Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "An unexpected error occurred.",
		Cause:   cause,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is, or wraps, an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
