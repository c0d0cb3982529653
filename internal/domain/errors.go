package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is the stable code carried by every normalized failure.
type ErrorCode string

const (
	// CodeValidation means the service rejected the caller's input with
	// field-level detail.
	CodeValidation ErrorCode = "VALIDATION_ERROR"

	// CodeAPI is a generic rejected operation with a human message.
	CodeAPI ErrorCode = "API_ERROR"

	// CodeNotFound means a registry read or mutation named a nonexistent id.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeExport is a rendering/export-specific failure, kept distinct so
	// callers can special-case "retry export" from "retry generation".
	CodeExport ErrorCode = "EXPORT_ERROR"

	// CodeUnknown means the failure payload was absent or unparseable.
	CodeUnknown ErrorCode = "UNKNOWN_ERROR"
)

// Origin identifies which component surfaced a failure, so callers can
// pattern-match on where the error came from.
type Origin string

const (
	OriginGeneration Origin = "generation"
	OriginRegistry   Origin = "registry"
	OriginExport     Origin = "export"
	OriginSettings   Origin = "settings"
	OriginProfiles   Origin = "profiles"
)

// FieldError is one entry of a field-level validation failure. Loc holds the
// location path as reported by the service (segments may be strings or
// array indices).
type FieldError struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type,omitempty"`
}

// ErrorDetails carries the structured remainder of a failure payload.
type ErrorDetails struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// Error is the one normalized failure record every boundary call raises.
type Error struct {
	Code    ErrorCode
	Message string
	Status  int // transport status code, 0 when the exchange never completed
	Origin  Origin
	Details *ErrorDetails
}

func (e *Error) Error() string {
	if e.Origin != "" {
		return fmt.Sprintf("%s: %s: %s", e.Origin, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a normalized error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithStatus sets the transport status code.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// WithOrigin tags the error with the component that raised it.
func (e *Error) WithOrigin(origin Origin) *Error {
	e.Origin = origin
	return e
}

// WithDetails attaches structured details.
func (e *Error) WithDetails(details *ErrorDetails) *Error {
	e.Details = details
	return e
}

// ErrNotFoundf creates a NOT_FOUND error.
func ErrNotFoundf(format string, args ...any) *Error {
	return NewError(CodeNotFound, fmt.Sprintf(format, args...)).WithStatus(404)
}

// CodeOf extracts the normalized code from err, or CodeUnknown when err is
// not a normalized failure.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnknown
}

// IsNotFound reports whether err is a normalized NOT_FOUND failure.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}

// AsError extracts the normalized error from err, if any.
func AsError(err error) (*Error, bool) {
	var de *Error
	ok := errors.As(err, &de)
	return de, ok
}
