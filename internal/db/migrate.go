package db

import (
	"fmt"

	"github.com/signoffhq/signoff/internal/config"
	"github.com/signoffhq/signoff/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Version{},
		&models.ItemDecision{},
		&models.Activity{},
		&models.Assignment{},
		&models.SLAPolicy{},
		&models.EscalationRule{},
		&models.NotificationRecord{},
		&models.AuditEvent{},
	}
}

// AutoMigrate creates or updates all engine tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedSLAPolicies upserts SLAPolicy rows from configuration and replaces
// each policy's escalation rules with the configured chain. Policies in the
// database but absent from config are left untouched.
func SeedSLAPolicies(db *gorm.DB, policies []config.SLAPolicyConfig) error {
	for _, pc := range policies {
		pc := pc
		err := db.Transaction(func(tx *gorm.DB) error {
			policy := models.SLAPolicy{
				Transition:        pc.Transition,
				FromRole:          pc.FromRole,
				ToRole:            pc.ToRole,
				Hours:             pc.Hours,
				EscalationEnabled: pc.Escalation,
				Active:            true,
			}

			result := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "transition"}, {Name: "from_role"}, {Name: "to_role"},
				},
				DoUpdates: clause.AssignmentColumns([]string{"hours", "escalation_enabled", "active"}),
			}).Create(&policy)
			if result.Error != nil {
				return fmt.Errorf("db: seed policy %s/%s/%s: %w", pc.Transition, pc.FromRole, pc.ToRole, result.Error)
			}

			// The upsert leaves policy.ID unset on conflict; look it up.
			var stored models.SLAPolicy
			if err := tx.Where("transition = ? AND from_role = ? AND to_role = ?",
				pc.Transition, pc.FromRole, pc.ToRole).First(&stored).Error; err != nil {
				return fmt.Errorf("db: load seeded policy %s/%s/%s: %w", pc.Transition, pc.FromRole, pc.ToRole, err)
			}

			if err := tx.Where("policy_id = ?", stored.ID).Delete(&models.EscalationRule{}).Error; err != nil {
				return fmt.Errorf("db: clear rules for policy %d: %w", stored.ID, err)
			}
			for _, lv := range pc.Levels {
				rule := models.EscalationRule{
					PolicyID: stored.ID,
					Level:    lv.Level,
					Hours:    lv.Hours,
					ToRole:   lv.ToRole,
				}
				if err := tx.Create(&rule).Error; err != nil {
					return fmt.Errorf("db: seed rule level %d for policy %d: %w", lv.Level, stored.ID, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
