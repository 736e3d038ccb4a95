// Package audit appends immutable audit events alongside engine mutations.
// Record is always called with the mutation's own transaction handle, so the
// trail can never disagree with the data it describes.
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/signoffhq/signoff/internal/models"
	"gorm.io/gorm"
)

// Event describes one engine mutation for the audit trail.
type Event struct {
	Action        string // e.g. "version.submit", "assignment.escalated"
	Actor         string
	ArtifactKind  string
	ArtifactID    string
	VersionNumber int
	AssignmentID  string
	At            time.Time              // zero means time.Now
	Detail        map[string]interface{} // extra context, stored as JSON
}

// Record appends an event inside the caller's transaction.
func Record(tx *gorm.DB, ev Event) error {
	if ev.Action == "" {
		return fmt.Errorf("audit: action is required")
	}

	detail := "{}"
	if len(ev.Detail) > 0 {
		data, err := json.Marshal(ev.Detail)
		if err != nil {
			return fmt.Errorf("audit: marshal detail for %s: %w", ev.Action, err)
		}
		detail = string(data)
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	row := models.AuditEvent{
		ID:            uuid.NewString(),
		Action:        ev.Action,
		Actor:         ev.Actor,
		ArtifactKind:  ev.ArtifactKind,
		ArtifactID:    ev.ArtifactID,
		VersionNumber: ev.VersionNumber,
		AssignmentID:  ev.AssignmentID,
		Detail:        detail,
		CreatedAt:     at,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("audit: record %s: %w", ev.Action, err)
	}
	return nil
}

// Trail returns an artifact's audit events, oldest first.
func Trail(db *gorm.DB, kind, id string) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	if err := db.Where("artifact_kind = ? AND artifact_id = ?", kind, id).
		Order("created_at ASC, id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("audit: trail %s/%s: %w", kind, id, err)
	}
	return events, nil
}

// ForAssignment returns an assignment's audit events, oldest first.
func ForAssignment(db *gorm.DB, assignmentID string) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	if err := db.Where("assignment_id = ?", assignmentID).
		Order("created_at ASC, id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("audit: trail for assignment %s: %w", assignmentID, err)
	}
	return events, nil
}
