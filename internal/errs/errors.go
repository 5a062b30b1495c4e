// Package errs defines the structured error taxonomy shared by the
// service facade (internal/ctrl) and the public tagbus package. It lives
// in its own package, rather than directly in the root package, so that
// internal/ctrl can construct tagbus errors without importing the root
// package and creating an import cycle; the root package re-exports
// these types with plain aliases.
package errs

import (
	"errors"
	"fmt"
)

// Error is a structured tagbus error carrying the operation, descriptor,
// and level involved, directly analogous to the teacher's device/queue
// error context but scoped to a (tag, level) rendezvous instead of a
// (device, queue) pair.
type Error struct {
	Op    string    // operation that failed ("GET", "SEND", "RECEIVE", "CTL")
	Code  ErrorCode // high-level error category
	Desc  int32     // tag descriptor, -1 if not applicable
	Level int32     // level number, -1 if not applicable
	Inner error     // wrapped error, if any
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Desc >= 0 {
		parts = append(parts, fmt.Sprintf("desc=%d", e.Desc))
	}
	if e.Level >= 0 {
		parts = append(parts, fmt.Sprintf("level=%d", e.Level))
	}
	if len(parts) > 0 {
		return fmt.Sprintf("tagbus: %s (%s)", e.Code, parts[0])
	}
	return fmt.Sprintf("tagbus: %s", e.Code)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is comparison by ErrorCode, ignoring Op/Desc/Level.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// ErrorCode is the eleven-kind error taxonomy from the service boundary.
type ErrorCode string

const (
	CodeInvalidArgument ErrorCode = "invalid argument"
	CodeMessageTooBig   ErrorCode = "message too big"
	CodeNotFound        ErrorCode = "not found"
	CodeKeyExists       ErrorCode = "key exists"
	CodeCapacity        ErrorCode = "capacity"
	CodePermission      ErrorCode = "permission denied"
	CodePrivateTag      ErrorCode = "private tag"
	CodeRemoving        ErrorCode = "removing"
	CodeBusy            ErrorCode = "busy"
	CodeInterrupted     ErrorCode = "interrupted"
	CodeOutOfMemory     ErrorCode = "out of memory"
)

// NewError builds a structured error with no descriptor/level context.
func NewError(op string, code ErrorCode) *Error {
	return &Error{Op: op, Code: code, Desc: -1, Level: -1}
}

// NewTagError builds a structured error scoped to a tag descriptor.
func NewTagError(op string, desc int32, code ErrorCode) *Error {
	return &Error{Op: op, Code: code, Desc: desc, Level: -1}
}

// NewLevelError builds a structured error scoped to a (tag, level) pair.
func NewLevelError(op string, desc int32, level int32, code ErrorCode) *Error {
	return &Error{Op: op, Code: code, Desc: desc, Level: level}
}

// WrapError attaches op/desc/level context to an existing error, preserving
// its code if it is already a *Error.
func WrapError(op string, desc int32, level int32, inner error) *Error {
	if inner == nil {
		return nil
	}
	if e, ok := inner.(*Error); ok {
		return &Error{Op: op, Code: e.Code, Desc: desc, Level: level, Inner: e.Inner}
	}
	return &Error{Op: op, Code: CodeOutOfMemory, Desc: desc, Level: level, Inner: inner}
}

// IsCode reports whether err is a *Error (anywhere in its chain) with the
// given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
