package engine

import (
	"errors"
	"fmt"
	"strings"
)

// RuntimeError is returned when the engine rejects a call.
//
// A rejected call never mutates the ledger, the graph store or the event
// log.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// GraphID identifies the affected graph, if any.
	GraphID string

	// ChoiceID identifies the rejected choice, if any.
	ChoiceID string

	// Reasons lists why a choice is illegal, one per failing requirement.
	Reasons []string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeIllegalChoice indicates the choice's requirements are not met.
	ErrCodeIllegalChoice RuntimeErrorCode = "ILLEGAL_CHOICE"

	// ErrCodeNotInProgress indicates the graph has no active node.
	ErrCodeNotInProgress RuntimeErrorCode = "NOT_IN_PROGRESS"

	// ErrCodeUnknownGraph indicates no graph with that id is registered.
	ErrCodeUnknownGraph RuntimeErrorCode = "UNKNOWN_GRAPH"

	// ErrCodeUnknownChoice indicates the active node has no such choice.
	ErrCodeUnknownChoice RuntimeErrorCode = "UNKNOWN_CHOICE"

	// ErrCodeNotAvailable indicates start was called on a graph that is not Available.
	ErrCodeNotAvailable RuntimeErrorCode = "NOT_AVAILABLE"

	// ErrCodeAlreadyCompleted indicates start was called on a Completed graph.
	ErrCodeAlreadyCompleted RuntimeErrorCode = "ALREADY_COMPLETED"

	// ErrCodeSessionEnded indicates an ending was triggered earlier.
	ErrCodeSessionEnded RuntimeErrorCode = "SESSION_ENDED"

	// ErrCodeContent indicates invalid content or an invalid snapshot.
	ErrCodeContent RuntimeErrorCode = "CONTENT_ERROR"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	switch {
	case e.GraphID != "" && e.ChoiceID != "":
		fmt.Fprintf(&b, " (graph=%s, choice=%s)", e.GraphID, e.ChoiceID)
	case e.GraphID != "":
		fmt.Fprintf(&b, " (graph=%s)", e.GraphID)
	}
	if len(e.Reasons) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Reasons, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// CodeOf returns the RuntimeErrorCode of err, or "" when err is not a
// RuntimeError. Uses errors.As to handle wrapped errors.
func CodeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsIllegalChoice reports whether err rejected a choice whose requirements
// are unmet.
func IsIllegalChoice(err error) bool {
	return CodeOf(err) == ErrCodeIllegalChoice
}

// IsNotInProgress reports whether err rejected a choice on an idle graph.
func IsNotInProgress(err error) bool {
	return CodeOf(err) == ErrCodeNotInProgress
}

// IsSessionEnded reports whether err was caused by a triggered ending.
func IsSessionEnded(err error) bool {
	return CodeOf(err) == ErrCodeSessionEnded
}

// IsContentError reports whether err was caused by invalid content.
func IsContentError(err error) bool {
	return CodeOf(err) == ErrCodeContent
}

func newError(code RuntimeErrorCode, graphID, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		GraphID: graphID,
	}
}

// NewIllegalChoiceError creates a RuntimeError listing unmet requirements.
func NewIllegalChoiceError(graphID, choiceID string, reasons []string) *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeIllegalChoice,
		Message:  "choice requirements are not met",
		GraphID:  graphID,
		ChoiceID: choiceID,
		Reasons:  reasons,
	}
}
