package workflow

import (
	"fmt"
	"strings"
)

// InvalidStateError reports an operation applied to a record whose current
// status does not allow it.
type InvalidStateError struct {
	Op      string // operation attempted, e.g. "submit"
	Subject string // what it was attempted on, e.g. "version 3 of control/CTL-7"
	Status  string // the status that blocked it
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s: status is %q", e.Op, e.Subject, e.Status)
}

// PermissionError reports a caller whose roles do not satisfy the gate for
// a transition.
type PermissionError struct {
	User       string
	Role       string // the role the gate requires
	Transition string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s lacks role %q required for %s", e.User, e.Role, e.Transition)
}

// ConflictError reports a uniqueness violation, most commonly a second
// non-terminal version for the same artifact.
type ConflictError struct {
	Kind   string
	ID     string
	Detail string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s/%s: %s", e.Kind, e.ID, e.Detail)
}

// ValidationError reports one or more input violations. Batch operations
// aggregate every offending item into a single error.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	switch len(e.Violations) {
	case 0:
		return "validation failed"
	case 1:
		return e.Violations[0]
	default:
		return fmt.Sprintf("%d violations: %s", len(e.Violations), strings.Join(e.Violations, "; "))
	}
}

// Violation builds a single-violation ValidationError.
func Violation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Violations: []string{fmt.Sprintf(format, args...)}}
}

// GateError reports an activity started before its prerequisites completed.
type GateError struct {
	Activity string
	Blockers []string // prerequisite activities not yet completed
}

func (e *GateError) Error() string {
	return fmt.Sprintf("cannot start %q: waiting on %s", e.Activity, strings.Join(e.Blockers, ", "))
}

// NothingToResubmitError reports a resubmit on an artifact with no rejected
// version to carry forward from.
type NothingToResubmitError struct {
	Kind string
	ID   string
}

func (e *NothingToResubmitError) Error() string {
	return fmt.Sprintf("%s/%s has no rejected version to resubmit", e.Kind, e.ID)
}
