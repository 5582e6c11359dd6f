package policy

import (
	"errors"
	"fmt"
)

// Code identifies the failure mode of a policy operation. All of these are
// local validation failures; none is retryable.
type Code string

const (
	// CodeUnsupportedVersion means no default-table row exists for the
	// requested platform version.
	CodeUnsupportedVersion Code = "UNSUPPORTED_VERSION"

	// CodeFileExists means a baseline file already exists at the target
	// path and overwrite was not requested.
	CodeFileExists Code = "FILE_EXISTS"

	// CodeSchemaMismatch means two policy sets cannot be compared: wrong
	// category, wrong component, or differing field sets. This indicates a
	// caller bug, never data drift.
	CodeSchemaMismatch Code = "SCHEMA_MISMATCH"

	// CodeVersionMismatch means a baseline file carries no block for the
	// version being evaluated.
	CodeVersionMismatch Code = "VERSION_MISMATCH"

	// CodeParse means a baseline file or live response could not be
	// decoded into a policy set.
	CodeParse Code = "PARSE_ERROR"
)

// Error is a classified policy error.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by code so callers can use errors.Is with a bare
// &Error{Code: ...} target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

func hasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsUnsupportedVersion reports whether err is an UNSUPPORTED_VERSION error.
func IsUnsupportedVersion(err error) bool { return hasCode(err, CodeUnsupportedVersion) }

// IsFileExists reports whether err is a FILE_EXISTS error.
func IsFileExists(err error) bool { return hasCode(err, CodeFileExists) }

// IsSchemaMismatch reports whether err is a SCHEMA_MISMATCH error.
func IsSchemaMismatch(err error) bool { return hasCode(err, CodeSchemaMismatch) }

// IsVersionMismatch reports whether err is a VERSION_MISMATCH error.
func IsVersionMismatch(err error) bool { return hasCode(err, CodeVersionMismatch) }

// IsParseError reports whether err is a PARSE_ERROR error.
func IsParseError(err error) bool { return hasCode(err, CodeParse) }
