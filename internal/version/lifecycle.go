package version

import (
	"fmt"
	"time"

	"github.com/signoffhq/signoff/internal/audit"
	"github.com/signoffhq/signoff/internal/models"
	"github.com/signoffhq/signoff/internal/roles"
	"github.com/signoffhq/signoff/internal/workflow"
	"gorm.io/gorm"
)

// Submit freezes a draft into pending_approval. Once submitted the version
// accepts no further item mutations; review happens through the decision
// package or the version-level verdict operations.
func (m *Manager) Submit(versionID uint, actor, notes string) (*models.Version, error) {
	if err := roles.Check(m.Oracle, m.Gates, "version.submit", actor); err != nil {
		return nil, err
	}

	now := m.now()
	var submitted *models.Version

	err := m.DB.Transaction(func(tx *gorm.DB) error {
		v, err := loadWithItems(tx, versionID)
		if err != nil {
			return err
		}
		if v.Status != workflow.VersionDraft {
			return &workflow.InvalidStateError{Op: "submit", Subject: subject(v), Status: v.Status}
		}
		if m.Policy.RequireDecisions && !anyDecided(v.Items) {
			return workflow.Violation("cannot submit %s: no item carries a tester decision", subject(v))
		}

		updates := map[string]interface{}{
			"status":       workflow.VersionPendingApproval,
			"submitted_at": now,
			"submit_notes": notes,
		}
		if err := tx.Model(&models.Version{}).Where("id = ?", v.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("version: submit %s: %w", subject(v), err)
		}
		v.Status = workflow.VersionPendingApproval
		v.SubmittedAt = &now
		v.SubmitNotes = notes
		submitted = v

		return audit.Record(tx, audit.Event{
			Action:        "version.submit",
			Actor:         actor,
			ArtifactKind:  v.ArtifactKind,
			ArtifactID:    v.ArtifactID,
			VersionNumber: v.Number,
			At:            now,
		})
	})
	if err != nil {
		return nil, err
	}
	return submitted, nil
}

func anyDecided(items []models.ItemDecision) bool {
	for _, it := range items {
		if it.TesterDecision != "" {
			return true
		}
	}
	return false
}

// Approve stamps a pending version approved. Any item already carrying a
// rejected or needs_revision review blocks the version-level approval;
// unreviewed items inherit the approval.
func (m *Manager) Approve(versionID uint, approver, notes string) (*models.Version, error) {
	if err := roles.Check(m.Oracle, m.Gates, "version.approve", approver); err != nil {
		return nil, err
	}

	now := m.now()
	var approved *models.Version

	err := m.DB.Transaction(func(tx *gorm.DB) error {
		v, err := loadWithItems(tx, versionID)
		if err != nil {
			return err
		}
		if v.Status != workflow.VersionPendingApproval {
			return &workflow.InvalidStateError{Op: "approve", Subject: subject(v), Status: v.Status}
		}
		for _, it := range v.Items {
			if it.ReviewDecision != nil && *it.ReviewDecision != workflow.ReviewApproved {
				return &workflow.InvalidStateError{
					Op:      "approve",
					Subject: fmt.Sprintf("%s: item %s", subject(v), it.ItemID),
					Status:  *it.ReviewDecision,
				}
			}
		}
		if err := MarkApproved(tx, v, approver, notes, now); err != nil {
			return err
		}
		approved = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject stamps a pending version rejected. A reason is mandatory; it is
// what the authoring role sees when deciding what to fix before resubmit.
func (m *Manager) Reject(versionID uint, approver, reason string) (*models.Version, error) {
	if err := roles.Check(m.Oracle, m.Gates, "version.reject", approver); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, workflow.Violation("reject reason is required")
	}

	now := m.now()
	var rejected *models.Version

	err := m.DB.Transaction(func(tx *gorm.DB) error {
		v, err := load(tx, versionID)
		if err != nil {
			return err
		}
		if v.Status != workflow.VersionPendingApproval {
			return &workflow.InvalidStateError{Op: "reject", Subject: subject(v), Status: v.Status}
		}
		if err := MarkRejected(tx, v, approver, reason, now); err != nil {
			return err
		}
		rejected = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// MarkApproved applies the approval stamp to a pending version inside an
// open transaction: fills unreviewed items with an approved review, clears
// the open marker, and supersedes any older approved version of the same
// artifact. Callers have already verified status and permissions.
func MarkApproved(tx *gorm.DB, v *models.Version, approver, notes string, now time.Time) error {
	fill := map[string]interface{}{
		"review_decision": workflow.ReviewApproved,
		"decided_by":      approver,
		"decided_at":      now,
	}
	err := tx.Model(&models.ItemDecision{}).
		Where("version_id = ? AND review_decision IS NULL", v.ID).
		Updates(fill).Error
	if err != nil {
		return fmt.Errorf("version: fill unreviewed items of %s: %w", subject(v), err)
	}

	err = tx.Model(&models.Version{}).
		Where("artifact_kind = ? AND artifact_id = ? AND status = ? AND id <> ?",
			v.ArtifactKind, v.ArtifactID, workflow.VersionApproved, v.ID).
		Update("status", workflow.VersionSuperseded).Error
	if err != nil {
		return fmt.Errorf("version: supersede prior approval of %s/%s: %w", v.ArtifactKind, v.ArtifactID, err)
	}

	updates := map[string]interface{}{
		"status":         workflow.VersionApproved,
		"open_marker":    nil,
		"approved_by":    approver,
		"approved_at":    now,
		"approval_notes": notes,
	}
	if err := tx.Model(&models.Version{}).Where("id = ?", v.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("version: approve %s: %w", subject(v), err)
	}
	v.Status = workflow.VersionApproved
	v.OpenMarker = nil
	v.ApprovedBy = approver
	v.ApprovedAt = &now
	v.ApprovalNotes = notes

	return audit.Record(tx, audit.Event{
		Action:        "version.approve",
		Actor:         approver,
		ArtifactKind:  v.ArtifactKind,
		ArtifactID:    v.ArtifactID,
		VersionNumber: v.Number,
		At:            now,
	})
}

// MarkRejected applies the rejection stamp to a pending version inside an
// open transaction and clears the open marker. Callers have already
// verified status, permissions, and a non-empty reason.
func MarkRejected(tx *gorm.DB, v *models.Version, approver, reason string, now time.Time) error {
	updates := map[string]interface{}{
		"status":        workflow.VersionRejected,
		"open_marker":   nil,
		"rejected_by":   approver,
		"rejected_at":   now,
		"reject_reason": reason,
	}
	if err := tx.Model(&models.Version{}).Where("id = ?", v.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("version: reject %s: %w", subject(v), err)
	}
	v.Status = workflow.VersionRejected
	v.OpenMarker = nil
	v.RejectedBy = approver
	v.RejectedAt = &now
	v.RejectReason = reason

	return audit.Record(tx, audit.Event{
		Action:        "version.reject",
		Actor:         approver,
		ArtifactKind:  v.ArtifactKind,
		ArtifactID:    v.ArtifactID,
		VersionNumber: v.Number,
		At:            now,
		Detail:        map[string]interface{}{"reason": reason},
	})
}
