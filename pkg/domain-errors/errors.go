// Package errors provides coded domain errors shared across services.
//
// Services return these so transport layers can map failures to responses
// without inspecting infrastructure errors. Stores never construct domain
// errors; they return sentinel errors (pkg/platform/sentinel) which services
// translate at the boundary.
//
// Usage:
//
//	return dErrors.New(dErrors.CodeConflict, "an active record already exists")
//	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
//	if dErrors.HasCode(err, dErrors.CodeNotFound) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and callers that
// branch on failure kind.
type Code string

const (
	// CodeValidation rejects input that parses but violates domain rules
	// (ineligible asset category, unknown visibility, missing reason).
	CodeValidation Code = "validation"

	// CodeInvalidInput rejects input that fails parsing at a trust boundary
	// (malformed IDs, malformed references).
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest rejects malformed transport-level requests (unreadable
	// body, missing required parameter).
	CodeBadRequest Code = "bad_request"

	// CodeConflict signals a uniqueness or state conflict, such as an
	// existing active record for the same asset.
	CodeConflict Code = "conflict"

	// CodePolicyBlocked signals a policy gate refusal. Carries reference_count
	// and reason details for the caller.
	CodePolicyBlocked Code = "policy_blocked"

	// CodeTerminalState signals an attempted change to a record in a terminal
	// status. Terminal records accept no further transitions.
	CodeTerminalState Code = "terminal_state"

	// CodeImmutable signals an attempted overwrite of a write-once field.
	CodeImmutable Code = "immutable"

	// CodeInvariantViolation signals a domain invariant breach detected by an
	// aggregate. Services usually translate this to a caller-facing code.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeNotFound signals the referenced entity does not exist.
	CodeNotFound Code = "not_found"

	// CodeUnauthorized signals missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden signals valid credentials without sufficient rights.
	CodeForbidden Code = "forbidden"

	// CodeResource signals a dependent resource failure (content store,
	// directory) where the request itself was valid.
	CodeResource Code = "resource"

	// CodeTimeout signals an operation exceeded its deadline.
	CodeTimeout Code = "timeout"

	// CodeInternal signals an unexpected failure. Details are logged, never
	// returned to callers.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with optional structured details and an
// optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is lets errors.Is match two domain errors by code and message, so tests
// can compare against a freshly constructed expectation.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New constructs a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is / errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithDetail returns the error with a structured detail attached. Details
// surface in transport responses for codes that carry them (policy blocks
// expose reference_count and reason this way).
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, 2)
	}
	e.Details[key] = value
	return e
}

// HasCode reports whether err or any error in its chain carries the code.
func HasCode(err error, code Code) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability in conditions.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code carried by err, or CodeInternal when err carries
// none. Nil errors have no code; callers check err != nil first.
func CodeOf(err error) Code {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return CodeInternal
}

// DetailsOf returns the structured details carried by err, or nil.
func DetailsOf(err error) map[string]any {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Details
	}
	return nil
}
