package server

import (
	"errors"
	"fmt"
)

// Sentinel errors for common session and server error conditions.
var (
	// ErrSessionClosed is returned when an operation is attempted on a closed session.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrNoConnection is returned when attempting to send on a nil connection.
	ErrNoConnection = errors.New("server: no connection")
)

// Protocol error codes.
const (
	CodeMalformedMessage  = "W401"
	CodeUnexpectedMessage = "W402"
)

// SessionError wraps an error with session context for debugging.
type SessionError struct {
	SessionID string
	Op        string // Operation that failed
	Err       error  // Underlying error
}

// Error returns the error message with session context.
func (e *SessionError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("server: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("server: session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *SessionError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a client frame the bridge rejected.
type ProtocolError struct {
	SessionID string
	Op        string
	Message   string
	Code      string
}

// Error returns the error message.
func (e *ProtocolError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("server: protocol error: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("server: protocol error in session %s: %s: %s",
		e.SessionID, e.Op, e.Message)
}

// ErrorCode returns W401 for malformed frames and W402 for frames that are
// well-formed but not acceptable in the session's state.
func (e *ProtocolError) ErrorCode() string {
	if e.Code == "" {
		return CodeMalformedMessage
	}
	return e.Code
}
