// Package workflow defines the shared vocabulary of the approval engine:
// artifact references, lifecycle statuses, and the error kinds every
// operation reports.
package workflow

import "fmt"

// Version lifecycle statuses. A version is non-terminal (open) while draft
// or pending_approval; the other three are terminal.
const (
	VersionDraft           = "draft"
	VersionPendingApproval = "pending_approval"
	VersionApproved        = "approved"
	VersionRejected        = "rejected"
	VersionSuperseded      = "superseded"
)

// Tester decisions on an item, made while the version is draft.
const (
	TesterAccept   = "accept"
	TesterDecline  = "decline"
	TesterOverride = "override"
)

// Reviewer decisions on an item, made while the version is pending approval.
const (
	ReviewApproved      = "approved"
	ReviewRejected      = "rejected"
	ReviewNeedsRevision = "needs_revision"
)

// Activity states within a phase.
const (
	ActivityNotStarted        = "not_started"
	ActivityInProgress        = "in_progress"
	ActivityCompleted         = "completed"
	ActivityRevisionRequested = "revision_requested"
)

// Assignment statuses. The acknowledged hop may be skipped.
const (
	AssignmentAssigned     = "assigned"
	AssignmentAcknowledged = "acknowledged"
	AssignmentInProgress   = "in_progress"
	AssignmentCompleted    = "completed"
)

// VersionOpen reports whether a version status is non-terminal.
func VersionOpen(status string) bool {
	return status == VersionDraft || status == VersionPendingApproval
}

// ArtifactRef identifies a reviewable artifact: an attribute decision set,
// a sample selection, a report section. Versions hang off this pair.
type ArtifactRef struct {
	Kind string
	ID   string
}

// String renders the ref as kind/id for messages and logs.
func (r ArtifactRef) String() string {
	return r.Kind + "/" + r.ID
}

// Validate checks that both halves of the ref are present.
func (r ArtifactRef) Validate() error {
	if r.Kind == "" {
		return fmt.Errorf("workflow: artifact kind is required")
	}
	if r.ID == "" {
		return fmt.Errorf("workflow: artifact id is required")
	}
	return nil
}
