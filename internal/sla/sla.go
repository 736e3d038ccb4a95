// Package sla maps cross-role transitions to time budgets and escalates
// assignments that blow them. Policies are seeded from config; the sweeper
// is the engine's only background process.
package sla

import (
	"errors"
	"fmt"

	"github.com/signoffhq/signoff/internal/models"
	"gorm.io/gorm"
)

// Policy returns the policy for a transition with its escalation rules
// preloaded in level order, or (nil, nil) when none is configured. Active
// and escalation_enabled are left for the caller to interpret: due-date
// lookup and the sweeper skip differently.
func Policy(db *gorm.DB, transition, fromRole, toRole string) (*models.SLAPolicy, error) {
	var p models.SLAPolicy
	err := db.Preload("Rules", func(db *gorm.DB) *gorm.DB { return db.Order("level ASC") }).
		Where("transition = ? AND from_role = ? AND to_role = ?", transition, fromRole, toRole).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("sla: lookup policy %s %s->%s: %w", transition, fromRole, toRole, err)
	}
	return &p, nil
}

// Hours returns the time budget for a transition: the active policy's hours
// when one matches, else the configured default. There is no silent zero;
// config validation guarantees defaultHours > 0.
func Hours(db *gorm.DB, transition, fromRole, toRole string, defaultHours int) (int, error) {
	p, err := Policy(db, transition, fromRole, toRole)
	if err != nil {
		return 0, err
	}
	if p == nil || !p.Active {
		return defaultHours, nil
	}
	return p.Hours, nil
}
