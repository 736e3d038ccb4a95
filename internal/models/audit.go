package models

import "time"

// AuditEvent is one row of the append-only audit trail. Events are written
// in the same transaction as the mutation they describe, so the trail never
// disagrees with the data.
type AuditEvent struct {
	ID            string    `gorm:"primaryKey;size:36"`
	Action        string    `gorm:"size:64;not null;index"`
	Actor         string    `gorm:"size:64;index"`
	ArtifactKind  string    `gorm:"size:64;index:idx_audit_artifact"`
	ArtifactID    string    `gorm:"size:64;index:idx_audit_artifact"`
	VersionNumber int
	AssignmentID  string    `gorm:"size:32;index"`
	Detail        string    `gorm:"type:json"`
	CreatedAt     time.Time `gorm:"index"`
}
