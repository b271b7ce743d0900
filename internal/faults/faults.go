// Package faults defines the error taxonomy shared by the workflow engine,
// the claim queue, and the trackers. Every state-changing operation returns
// one of these marker errors so callers can map failures onto stable codes
// instead of string-matching messages.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound covers missing files, timers, and sessions.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks an operation that is not valid for the file's
	// current status or stage.
	ErrInvalidState = errors.New("invalid state")
	// ErrAlreadyClaimed marks a lost optimistic claim race.
	ErrAlreadyClaimed = errors.New("already claimed")
	// ErrNotOwner marks an operation reserved for the current claimant or
	// assignee of a file.
	ErrNotOwner = errors.New("not owner")
	// ErrValidation marks malformed input, such as a missing rejection note.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a single-active-invariant violation, such as starting
	// a timer while one is already open.
	ErrConflict = errors.New("conflict")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrConflict
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// CodeOf returns the stable string code for an error, or "internal" when the
// error carries no marker. Codes are part of the API surface and must not
// change between releases.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrValidation):
		return "validation_failed"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}

// IsExpected reports whether an error represents a routine multi-operator
// outcome (a lost race or an ownership miss) rather than a server failure.
func IsExpected(err error) bool {
	return errors.Is(err, ErrAlreadyClaimed) || errors.Is(err, ErrNotOwner)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "operation failure"
	}
	return strings.Join(parts, ": ")
}
