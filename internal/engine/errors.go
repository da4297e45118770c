package engine

import (
	"errors"
	"fmt"
)

// SessionError is returned when a session cannot process an event.
type SessionError struct {
	// Code identifies the error category.
	Code SessionErrorCode

	// Message is a human-readable description.
	Message string

	// Seq is the sequence number of the failing event, if any.
	Seq int64
}

// SessionErrorCode categorizes session errors.
type SessionErrorCode string

const (
	// ErrCodeNotMounted means the session has no document.
	ErrCodeNotMounted SessionErrorCode = "NOT_MOUNTED"

	// ErrCodeAlreadyMounted means Mount was called twice.
	ErrCodeAlreadyMounted SessionErrorCode = "ALREADY_MOUNTED"

	// ErrCodeUnknownCommand means the command kind is not recognized.
	ErrCodeUnknownCommand SessionErrorCode = "UNKNOWN_COMMAND"

	// ErrCodeInvalidCommand means a command is missing a required argument.
	ErrCodeInvalidCommand SessionErrorCode = "INVALID_COMMAND"

	// ErrCodeNothingToUndo means undo or redo found an empty stack.
	ErrCodeNothingToUndo SessionErrorCode = "NOTHING_TO_UNDO"
)

// Error implements the error interface.
func (e *SessionError) Error() string {
	if e.Seq != 0 {
		return fmt.Sprintf("%s: %s (seq=%d)", e.Code, e.Message, e.Seq)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newSessionError(code SessionErrorCode, format string, args ...any) *SessionError {
	return &SessionError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorCode returns the session error code of err, or "" if err is not a
// SessionError.
func ErrorCode(err error) SessionErrorCode {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsNotMounted reports whether err means the session had no document.
func IsNotMounted(err error) bool {
	return ErrorCode(err) == ErrCodeNotMounted
}

// IsNothingToUndo reports whether err came from an empty undo or redo
// stack.
func IsNothingToUndo(err error) bool {
	return ErrorCode(err) == ErrCodeNothingToUndo
}
