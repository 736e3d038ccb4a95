package models

import "time"

// Assignment is a cross-role task handoff with a due date derived from the
// SLA policy for its transition. EscalationLevel only ever increases; the
// sweep raises it with a compare-and-swap so concurrent passes cannot
// double-escalate.
type Assignment struct {
	ID              string    `gorm:"primaryKey;size:32"`
	Transition      string    `gorm:"size:64;not null;index"`
	FromRole        string    `gorm:"size:64;not null"`
	ToRole          string    `gorm:"size:64;not null;index"`
	Title           string    `gorm:"not null"`
	Priority        int       `gorm:"default:2"`
	ArtifactKind    string    `gorm:"size:64"`
	ArtifactID      string    `gorm:"size:64"`
	Status          string    `gorm:"size:16;not null;default:assigned;index"`
	EscalationLevel int       `gorm:"not null;default:0"`
	DueAt           time.Time `gorm:"index"`
	CreatedBy       string    `gorm:"size:64"`
	CreatedAt       time.Time
	AcknowledgedAt  *time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
}
