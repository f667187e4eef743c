// Package errors provides the unified error type and factory functions for
// molscope. The parser, scene builder, viewer service and transport layers all
// return AppError so HTTP responses, CLI exit paths and logs agree on one code.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack returns a formatted call-stack string starting two frames above
// the caller (skipping captureStack itself and New/Wrap).
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// AppError
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the structured error type used throughout molscope.
//
// Usage:
//
//	return errors.MalformedRecord("counts line too short").WithDetail("line 4")
//	return errors.Wrap(err, errors.CodeCacheError, "scene cache lookup failed")
type AppError struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is the human-readable description returned to callers.
	Message string

	// Detail carries supplementary context such as a record line number.
	Detail string

	// Cause is the underlying error, traversed by errors.Is / errors.As.
	Cause error

	// Stack is the call stack captured at creation. Not part of Error().
	Stack string
}

// Error implements the error interface.
// Format: "[<code>] <message>: <detail>"
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a shallow copy of the receiver with Detail set.
// It is safe to call on a nil pointer (returns nil).
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

// HTTPStatus returns the HTTP status mapped to the error's code.
func (e *AppError) HTTPStatus() int {
	return HTTPStatusForCode(e.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Primary factory functions
// ─────────────────────────────────────────────────────────────────────────────

// New constructs a fresh AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Newf is New with a format string.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return build(code, fmt.Sprintf(format, args...))
}

// Wrap constructs an AppError that wraps an existing error.
// If err is nil, Wrap returns nil. When code is CodeUnknown and err already
// carries an AppError, the original code is preserved.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Error-chain inspection helpers
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any error in err's chain is an *AppError with the
// given code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether err's chain carries any of the not-found codes.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound) ||
		IsCode(err, ErrCodeSceneNotFound) ||
		IsCode(err, ErrCodeSessionNotFound)
}

// IsMalformedRecord reports whether err's chain carries CodeMalformedRecord.
func IsMalformedRecord(err error) bool {
	return IsCode(err, CodeMalformedRecord)
}

// GetCode extracts the ErrorCode from the first *AppError found in err's chain.
// nil maps to CodeOK, a foreign error to CodeUnknown.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// ─────────────────────────────────────────────────────────────────────────────
// Convenience factories
// ─────────────────────────────────────────────────────────────────────────────

// build is New for the factories below; the captured stack starts at their
// caller.
func build(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Stack: captureStack(2)}
}

// MalformedRecord constructs a CodeMalformedRecord AppError. The parser is the
// only producer; the message names the structural defect.
func MalformedRecord(message string) *AppError { return build(CodeMalformedRecord, message) }

// NotFound constructs a CodeNotFound AppError.
func NotFound(message string) *AppError { return build(CodeNotFound, message) }

// SessionNotFound constructs a CodeSessionNotFound AppError carrying the id.
func SessionNotFound(id string) *AppError {
	e := build(CodeSessionNotFound, "viewer session not found")
	e.Detail = "id=" + id
	return e
}

func Internal(message string) *AppError { return build(CodeInternal, message) }

func RateLimit(message string) *AppError { return build(CodeRateLimit, message) }

//Personal.AI order the ending
