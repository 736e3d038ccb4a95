package models

import "time"

// Version is one snapshot of a reviewable artifact's decisions. It is
// mutable while draft and frozen once submitted; terminal versions are
// retained forever as review history.
type Version struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	ArtifactKind string `gorm:"size:64;not null;uniqueIndex:idx_artifact_number,priority:1;uniqueIndex:idx_artifact_open,priority:1"`
	ArtifactID   string `gorm:"size:64;not null;uniqueIndex:idx_artifact_number,priority:2;uniqueIndex:idx_artifact_open,priority:2"`
	Number       int    `gorm:"not null;uniqueIndex:idx_artifact_number,priority:3"`
	Status       string `gorm:"size:24;not null;default:draft;index"`
	// OpenMarker is "open" while the version is draft or pending_approval
	// and NULL once terminal. The idx_artifact_open unique index rides on
	// it so the database allows at most one open version per artifact.
	OpenMarker      *string `gorm:"size:8;uniqueIndex:idx_artifact_open,priority:3"`
	ParentVersionID *uint
	CreatedBy       string `gorm:"size:64;not null"`
	CreatedAt       time.Time
	SubmittedAt     *time.Time
	SubmitNotes     string `gorm:"type:text"`
	ApprovedBy      string `gorm:"size:64"`
	ApprovedAt      *time.Time
	ApprovalNotes   string `gorm:"type:text"`
	RejectedBy      string `gorm:"size:64"`
	RejectedAt      *time.Time
	RejectReason    string `gorm:"type:text"`

	Parent *Version       `gorm:"foreignKey:ParentVersionID"`
	Items  []ItemDecision `gorm:"foreignKey:VersionID"`
}

// ItemDecision is one reviewable unit inside a version: the tester's own
// call on the item plus the reviewing role's verdict. Rows belong to
// exactly one version and are copied, never shared, on resubmission.
type ItemDecision struct {
	ID             uint    `gorm:"primaryKey;autoIncrement"`
	VersionID      uint    `gorm:"not null;uniqueIndex:idx_version_item,priority:1;index"`
	ItemID         string  `gorm:"size:64;not null;uniqueIndex:idx_version_item,priority:2"`
	TesterDecision string  `gorm:"size:16"`       // accept, decline, override; empty until decided
	TesterNotes    string  `gorm:"type:text"`
	ReviewDecision *string `gorm:"size:16;index"` // approved, rejected, needs_revision; NULL until reviewed
	ReviewNotes    string  `gorm:"type:text"`
	DecidedBy      string  `gorm:"size:64"`
	DecidedAt      *time.Time
	Include        bool  `gorm:"default:true"`
	CarriedFrom    *uint // item row this was copied from on resubmission
}
