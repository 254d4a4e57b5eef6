package engine

import (
	"errors"
	"fmt"
)

// EngineError represents a structural failure surfaced to the caller.
//
// Structural errors include:
//   - Session not found: the session identifier is unknown to the registry
//   - Session complete: the session reached its terminal state and rejects
//     further actions
//   - Invalid action: the action kind is outside the closed set
//   - Invalid argument: a caller-supplied value violates an engine invariant
//     (e.g. negative artificial time)
//
// Structural errors are distinct from domain-soft failures: an action that
// targets a patient absent from an existing session does NOT error - it
// returns a well-formed ActionResult with Success=false and no state mutated.
type EngineError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// SessionID identifies the affected session, when known.
	SessionID string

	// ScenarioID identifies the affected scenario (for load failures).
	ScenarioID string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeSessionNotFound indicates an unknown session identifier.
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"

	// ErrCodeSessionComplete indicates the session is terminal and rejects
	// further mutation.
	ErrCodeSessionComplete ErrorCode = "SESSION_COMPLETE"

	// ErrCodeInvalidAction indicates an action kind outside the closed set.
	ErrCodeInvalidAction ErrorCode = "INVALID_ACTION"

	// ErrCodeInvalidArgument indicates a caller-supplied value that violates
	// an engine invariant.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeScenarioNotFound indicates an unknown scenario identifier.
	ErrCodeScenarioNotFound ErrorCode = "SCENARIO_NOT_FOUND"
)

// Error implements the error interface.
func (e *EngineError) Error() string {
	switch {
	case e.SessionID != "":
		return fmt.Sprintf("%s: %s (session=%s)", e.Code, e.Message, e.SessionID)
	case e.ScenarioID != "":
		return fmt.Sprintf("%s: %s (scenario=%s)", e.Code, e.Message, e.ScenarioID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// CodeOf extracts the error code from an error chain.
// Returns the empty code if the error is not an EngineError.
func CodeOf(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// IsNotFound returns true for session-not-found and scenario-not-found
// errors. Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeSessionNotFound || code == ErrCodeScenarioNotFound
}

// IsSessionComplete returns true if the error is a terminal-session
// rejection.
func IsSessionComplete(err error) bool {
	return CodeOf(err) == ErrCodeSessionComplete
}

// NewSessionNotFound creates an EngineError for an unknown session.
func NewSessionNotFound(sessionID string) *EngineError {
	return &EngineError{
		Code:      ErrCodeSessionNotFound,
		Message:   "session not found",
		SessionID: sessionID,
	}
}

// NewSessionComplete creates an EngineError for a terminal session.
func NewSessionComplete(sessionID string) *EngineError {
	return &EngineError{
		Code:      ErrCodeSessionComplete,
		Message:   "session is already complete",
		SessionID: sessionID,
	}
}

// NewInvalidAction creates an EngineError for an unknown action kind.
func NewInvalidAction(kind ActionKind) *EngineError {
	return &EngineError{
		Code:    ErrCodeInvalidAction,
		Message: fmt.Sprintf("unknown action type %q", kind),
	}
}

// NewInvalidArgument creates an EngineError for an invariant-violating input.
func NewInvalidArgument(format string, args ...any) *EngineError {
	return &EngineError{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewScenarioNotFound creates an EngineError for an unknown scenario.
func NewScenarioNotFound(scenarioID string) *EngineError {
	return &EngineError{
		Code:       ErrCodeScenarioNotFound,
		Message:    "scenario not found",
		ScenarioID: scenarioID,
	}
}
