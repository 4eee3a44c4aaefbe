package engine

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of an error.
type ErrorClass string

const (
	// ErrorClassValidation indicates the caller supplied parameters that
	// cannot produce a catalog. Fix the input and run again.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassPlatform indicates the target platform is not supported.
	ErrorClassPlatform ErrorClass = "platform"

	// ErrorClassPolicy indicates a compiled catalog was rejected by policy.
	ErrorClassPolicy ErrorClass = "policy"

	// ErrorClassIO indicates reading a parameter source or writing a
	// configuration file failed.
	ErrorClassIO ErrorClass = "io"
)

// EngineError represents a classified error with context.
// nolint:revive // EngineError is intentionally named to distinguish from standard errors
type EngineError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is the error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Option is the input option that caused the error, if applicable.
	Option string `json:"option,omitempty"`

	// Operation is the operation being performed when the error occurred.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Option != "" && e.Operation != "" {
		msg = fmt.Sprintf("%s (option=%s, operation=%s)", msg, e.Option, e.Operation)
	} else if e.Option != "" {
		msg = fmt.Sprintf("%s (option=%s)", msg, e.Option)
	} else if e.Operation != "" {
		msg = fmt.Sprintf("%s (operation=%s)", msg, e.Operation)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Is implements error equality checking for errors.Is.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassValidation,
		Message: message,
		Err:     err,
	}
}

// NewPlatformError creates a new platform error.
func NewPlatformError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassPlatform,
		Message: message,
		Err:     err,
	}
}

// NewPolicyError creates a new policy error.
func NewPolicyError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassPolicy,
		Message: message,
		Err:     err,
	}
}

// NewIOError creates a new I/O error.
func NewIOError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassIO,
		Message: message,
		Err:     err,
	}
}

// MissingRequiredOption returns the error for a required option that was not supplied.
func MissingRequiredOption(option string) *EngineError {
	return NewValidationError("required option is missing", nil).
		WithCode(ErrCodeMissingRequiredOption).
		WithOption(option)
}

// InvalidOptionType returns the error for an option whose value has the wrong
// type or is empty where a value is mandatory.
func InvalidOptionType(option, want string, got interface{}) *EngineError {
	return NewValidationError(fmt.Sprintf("expected %s, got %s", want, describe(got)), nil).
		WithCode(ErrCodeInvalidOptionType).
		WithOption(option).
		WithDetail("expected", want)
}

// UnknownOption returns the error for an option name the component does not recognize.
func UnknownOption(option string) *EngineError {
	return NewValidationError("unrecognized option", nil).
		WithCode(ErrCodeUnknownOption).
		WithOption(option)
}

// UnrecognizedPlatform returns the error for an OS family without a platform profile.
func UnrecognizedPlatform(family string) *EngineError {
	return NewPlatformError(fmt.Sprintf("no platform profile for OS family %q", family), nil).
		WithCode(ErrCodeUnrecognizedPlatform).
		WithDetail("os_family", family)
}

// WithOption adds option context to an error.
func (e *EngineError) WithOption(option string) *EngineError {
	e.Option = option
	return e
}

// WithOperation adds operation context to an error.
func (e *EngineError) WithOperation(operation string) *EngineError {
	e.Operation = operation
	return e
}

// WithCode adds an error code to an error.
func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

// WithDetail adds a detail field to the error context.
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// hasCode reports whether err is an EngineError carrying code.
func hasCode(err error, code string) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsMissingRequiredOption returns true if a required option was not supplied.
func IsMissingRequiredOption(err error) bool {
	return hasCode(err, ErrCodeMissingRequiredOption)
}

// IsInvalidOptionType returns true if an option had the wrong type or an empty value.
func IsInvalidOptionType(err error) bool {
	return hasCode(err, ErrCodeInvalidOptionType)
}

// IsUnknownOption returns true if an unrecognized option was supplied.
func IsUnknownOption(err error) bool {
	return hasCode(err, ErrCodeUnknownOption)
}

// IsUnrecognizedPlatform returns true if the OS family has no platform profile.
func IsUnrecognizedPlatform(err error) bool {
	return hasCode(err, ErrCodeUnrecognizedPlatform)
}

// IsValidation returns true if the error is classified as a validation error.
func IsValidation(err error) bool {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class == ErrorClassValidation
	}
	return false
}

// ErrorCode returns the code of the first EngineError in err's chain, or
// ErrCodeInternal when there is none.
func ErrorCode(err error) string {
	var e *EngineError
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return ErrCodeInternal
}

func describe(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		if val == "" {
			return "empty string"
		}
		return "string"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Common error codes.
const (
	ErrCodeMissingRequiredOption = "MISSING_REQUIRED_OPTION"
	ErrCodeInvalidOptionType     = "INVALID_OPTION_TYPE"
	ErrCodeUnknownOption         = "UNKNOWN_OPTION"
	ErrCodeUnrecognizedPlatform  = "UNRECOGNIZED_PLATFORM"
	ErrCodePolicyViolation       = "POLICY_VIOLATION"
	ErrCodeInvalidSource         = "INVALID_SOURCE"
	ErrCodeInternal              = "INTERNAL_ERROR"
)
