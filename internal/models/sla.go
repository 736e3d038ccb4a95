package models

// SLAPolicy maps a cross-role transition to its time budget. Assignments
// created for (transition, from_role, to_role) get due_at = created_at +
// Hours; the escalation rules then take over once the budget is blown.
type SLAPolicy struct {
	ID                uint   `gorm:"primaryKey;autoIncrement"`
	Transition        string `gorm:"size:64;not null;uniqueIndex:idx_sla_key,priority:1"`
	FromRole          string `gorm:"size:64;not null;uniqueIndex:idx_sla_key,priority:2"`
	ToRole            string `gorm:"size:64;not null;uniqueIndex:idx_sla_key,priority:3"`
	Hours             int    `gorm:"not null"`
	EscalationEnabled bool   `gorm:"default:true"`
	Active            bool   `gorm:"default:true"`

	Rules []EscalationRule `gorm:"foreignKey:PolicyID"`
}

// EscalationRule is one step of a policy's escalation chain. Hours is
// measured from the assignment's original creation, not from the previous
// escalation, so the total delay per level is deterministic.
type EscalationRule struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	PolicyID uint   `gorm:"not null;uniqueIndex:idx_policy_level,priority:1;index"`
	Level    int    `gorm:"not null;uniqueIndex:idx_policy_level,priority:2"`
	Hours    int    `gorm:"not null"`
	ToRole   string `gorm:"size:64;not null"`
}
