// Package errs defines the error taxonomy shared by the analysis pipeline.
//
// Every error that crosses a package boundary toward a caller is an *AppError
// carrying a Kind. The Kind decides how the error is treated:
//
//   - InvalidInput: malformed URL, disallowed scheme, blocked host. Surfaced, never retried.
//   - Unreachable, Timeout: fetch failures. One fallback attempt, then surfaced.
//   - ProbeFailed: protocol and site probe failures. Never surfaced; recorded as absent data.
//   - PersistenceFailed: storage failures. Logged and swallowed.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes application errors.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidInput indicates the caller supplied an unusable URL.
	InvalidInput
	// Unreachable indicates the target could not be fetched.
	Unreachable
	// Timeout indicates the target took too long to respond.
	Timeout
	// ParsingFailed indicates the response could not be parsed.
	ParsingFailed
	// ProbeFailed indicates a protocol or site probe failed.
	ProbeFailed
	// PersistenceFailed indicates a result could not be stored.
	PersistenceFailed
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Unreachable:
		return "unreachable"
	case Timeout:
		return "timeout"
	case ParsingFailed:
		return "parsing_failed"
	case ProbeFailed:
		return "probe_failed"
	case PersistenceFailed:
		return "persistence_failed"
	default:
		return "unknown"
	}
}

// AppError carries a category, user message, and original cause.
type AppError struct {
	Kind           Kind
	UpstreamStatus int // HTTP status code returned by the target, if any
	Message        string
	Cause          error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError of the given kind.
func New(kind Kind, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

// WithUpstreamStatus records the status code returned by the target.
func (e *AppError) WithUpstreamStatus(status int) *AppError {
	e.UpstreamStatus = status
	return e
}

// KindOf returns the Kind of the first AppError in err's chain,
// or Unknown if there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a Kind to the status code the HTTP glue should answer with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidInput:
		return http.StatusBadRequest
	case Unreachable:
		return http.StatusBadGateway
	case Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
