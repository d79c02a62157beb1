// Package domain defines the core domain models for adminctl.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a failure with a structured error code.
// Callers match on the code with errors.Is or Kind.
type DomainError struct {
	Code    string // Error code (e.g., "ADM-AUTH-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += " (" + e.Cause.Error() + ")"
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Kind returns the code of the outermost DomainError in err's chain,
// or "" if there is none.
func Kind(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Authentication errors (AUTH)
// ============================================================================

var (
	// ErrLoginFailed indicates the login exchange did not produce a session.
	ErrLoginFailed = NewDomainError("ADM-AUTH-4010", "login failed")

	// ErrAuthenticationExpired indicates the server rejected the presented credential.
	ErrAuthenticationExpired = NewDomainError("ADM-AUTH-4011", "authentication expired")

	// ErrLoginThrottled indicates too many login attempts in a short window.
	ErrLoginThrottled = NewDomainError("ADM-AUTH-4290", "too many login attempts")
)

// ============================================================================
// Session errors (SESS)
// ============================================================================

var (
	// ErrSessionInvalid indicates a partially populated session.
	ErrSessionInvalid = NewDomainError("ADM-SESS-4001", "invalid session")

	// ErrNotLoggedIn indicates an operation that requires a session ran without one.
	ErrNotLoggedIn = NewDomainError("ADM-SESS-4010", "not logged in")

	// ErrStorage indicates the durable session medium failed.
	ErrStorage = NewDomainError("ADM-SESS-5000", "session storage failure")
)

// ============================================================================
// Transport errors (NET / HTTP)
// ============================================================================

var (
	// ErrTransport indicates a network-level failure.
	ErrTransport = NewDomainError("ADM-NET-5030", "transport error")

	// ErrHTTPStatus indicates a non-success status other than 401.
	ErrHTTPStatus = NewDomainError("ADM-HTTP-0000", "request failed")
)

// StatusError classifies a non-success HTTP status. A 401 maps to
// ErrAuthenticationExpired, everything else to ErrHTTPStatus.
// message is the server-provided message, if any.
func StatusError(status int, message string) *DomainError {
	details := fmt.Sprintf("status %d", status)
	if message != "" {
		details += ": " + message
	}
	if status == http.StatusUnauthorized {
		return ErrAuthenticationExpired.WithDetails(details)
	}
	return ErrHTTPStatus.WithDetails(details)
}
