package models

import "time"

// NotificationRecord logs every event handed to the notification
// dispatcher. Writes are best-effort; delivery to external channels is the
// dispatcher's problem, not the engine's.
type NotificationRecord struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	Kind         string `gorm:"size:32;not null;index"`
	AssignmentID string `gorm:"size:32;index"`
	Transition   string `gorm:"size:64"`
	ToRole       string `gorm:"size:64"`
	Level        int
	Title        string `gorm:"size:256"`
	Body         string `gorm:"type:text"`
	CreatedAt    time.Time
}
