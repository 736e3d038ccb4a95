package models

import "time"

// Activity is a discrete unit of work within a phase. Ordering declares
// its prerequisites: every activity with a lower ordering in the same
// phase must complete before this one may start.
type Activity struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	Phase          string `gorm:"size:64;not null;uniqueIndex:idx_phase_name,priority:1;index"`
	Name           string `gorm:"size:128;not null;uniqueIndex:idx_phase_name,priority:2"`
	Ordering       int    `gorm:"not null;default:0"`
	State          string `gorm:"size:24;not null;default:not_started;index"`
	RevisionReason string `gorm:"type:text"`
	LastUpdatedBy  string `gorm:"size:64"`
	LastUpdatedAt  *time.Time
}
