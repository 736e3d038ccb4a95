// Package version implements the draft/submit/approve/reject/resubmit
// lifecycle for artifact versions and the item decisions nested in them.
package version

import (
	"errors"
	"fmt"
	"time"

	"github.com/signoffhq/signoff/internal/audit"
	"github.com/signoffhq/signoff/internal/models"
	"github.com/signoffhq/signoff/internal/roles"
	"github.com/signoffhq/signoff/internal/workflow"
	"gorm.io/gorm"
)

// SubmitPolicy controls what a draft needs before Submit accepts it.
type SubmitPolicy struct {
	// RequireDecisions rejects submission of a draft in which no item
	// carries a tester decision.
	RequireDecisions bool
}

// Manager mutates version state. Every operation runs in one transaction
// and appends an audit event stamped with the operation's clock time.
type Manager struct {
	DB     *gorm.DB
	Oracle roles.Oracle
	Gates  roles.Gates
	Policy SubmitPolicy
	Clock  func() time.Time // nil means time.Now
}

func (m *Manager) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

// openMarker returns the marker value carried by every non-terminal version.
func openMarker() *string {
	s := "open"
	return &s
}

// subject names a version for error messages: "version 3 of control/CTL-7".
func subject(v *models.Version) string {
	return fmt.Sprintf("version %d of %s/%s", v.Number, v.ArtifactKind, v.ArtifactID)
}

// conflictFor translates a duplicate-key error from the open-version unique
// index into the engine's ConflictError.
func conflictFor(err error, ref workflow.ArtifactRef) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &workflow.ConflictError{Kind: ref.Kind, ID: ref.ID, Detail: "an open version already exists"}
	}
	return err
}

// CreateDraft opens version max+1 for the artifact in draft status. It fails
// with ConflictError while any draft or pending_approval version exists; the
// open-version unique index backstops concurrent racers.
func (m *Manager) CreateDraft(ref workflow.ArtifactRef, actor string) (*models.Version, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, fmt.Errorf("version: actor is required")
	}
	if err := roles.Check(m.Oracle, m.Gates, "version.draft", actor); err != nil {
		return nil, err
	}

	now := m.now()
	var created models.Version

	err := m.DB.Transaction(func(tx *gorm.DB) error {
		var open models.Version
		err := tx.Where("artifact_kind = ? AND artifact_id = ? AND open_marker IS NOT NULL", ref.Kind, ref.ID).
			First(&open).Error
		if err == nil {
			return &workflow.ConflictError{
				Kind: ref.Kind, ID: ref.ID,
				Detail: fmt.Sprintf("version %d is still %s", open.Number, open.Status),
			}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("version: check open version for %s: %w", ref, err)
		}

		next, err := nextNumber(tx, ref)
		if err != nil {
			return err
		}

		created = models.Version{
			ArtifactKind: ref.Kind,
			ArtifactID:   ref.ID,
			Number:       next,
			Status:       workflow.VersionDraft,
			OpenMarker:   openMarker(),
			CreatedBy:    actor,
			CreatedAt:    now,
		}
		if err := tx.Create(&created).Error; err != nil {
			return conflictFor(fmt.Errorf("version: create draft for %s: %w", ref, err), ref)
		}

		return audit.Record(tx, audit.Event{
			Action:        "version.draft",
			Actor:         actor,
			ArtifactKind:  ref.Kind,
			ArtifactID:    ref.ID,
			VersionNumber: created.Number,
			At:            now,
		})
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// nextNumber returns 1 + the highest version number for the artifact.
func nextNumber(tx *gorm.DB, ref workflow.ArtifactRef) (int, error) {
	var max int
	err := tx.Model(&models.Version{}).
		Where("artifact_kind = ? AND artifact_id = ?", ref.Kind, ref.ID).
		Select("COALESCE(MAX(number), 0)").Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("version: max number for %s: %w", ref, err)
	}
	return max + 1, nil
}

// AddItem attaches a reviewable item to a draft version. include marks
// whether the item counts toward the final scoped set.
func (m *Manager) AddItem(versionID uint, itemID string, include bool, actor string) (*models.ItemDecision, error) {
	if itemID == "" {
		return nil, fmt.Errorf("version: item id is required")
	}

	now := m.now()
	var item models.ItemDecision

	err := m.DB.Transaction(func(tx *gorm.DB) error {
		v, err := load(tx, versionID)
		if err != nil {
			return err
		}
		if v.Status != workflow.VersionDraft {
			return &workflow.InvalidStateError{Op: "add item to", Subject: subject(v), Status: v.Status}
		}

		item = models.ItemDecision{VersionID: v.ID, ItemID: itemID, Include: include}
		if err := tx.Create(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &workflow.ConflictError{
					Kind: v.ArtifactKind, ID: v.ArtifactID,
					Detail: fmt.Sprintf("item %s already exists on version %d", itemID, v.Number),
				}
			}
			return fmt.Errorf("version: add item %s: %w", itemID, err)
		}

		return audit.Record(tx, audit.Event{
			Action:        "item.add",
			Actor:         actor,
			ArtifactKind:  v.ArtifactKind,
			ArtifactID:    v.ArtifactID,
			VersionNumber: v.Number,
			At:            now,
			Detail:        map[string]interface{}{"item": itemID, "include": include},
		})
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// RecordTesterDecision stores the authoring role's own call on an item.
// Decisions are free to change while the version stays draft.
func (m *Manager) RecordTesterDecision(versionID uint, itemID, decision, notes, actor string) (*models.ItemDecision, error) {
	switch decision {
	case workflow.TesterAccept, workflow.TesterDecline, workflow.TesterOverride:
	default:
		return nil, workflow.Violation("tester decision %q is not one of accept, decline, override", decision)
	}

	now := m.now()
	var item models.ItemDecision

	err := m.DB.Transaction(func(tx *gorm.DB) error {
		v, err := load(tx, versionID)
		if err != nil {
			return err
		}
		if v.Status != workflow.VersionDraft {
			return &workflow.InvalidStateError{Op: "decide item on", Subject: subject(v), Status: v.Status}
		}

		if err := tx.Where("version_id = ? AND item_id = ?", v.ID, itemID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("version: item %s not found on version %d", itemID, v.Number)
			}
			return fmt.Errorf("version: load item %s: %w", itemID, err)
		}

		updates := map[string]interface{}{
			"tester_decision": decision,
			"tester_notes":    notes,
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return fmt.Errorf("version: record tester decision on %s: %w", itemID, err)
		}
		item.TesterDecision = decision
		item.TesterNotes = notes

		return audit.Record(tx, audit.Event{
			Action:        "item.tester_decision",
			Actor:         actor,
			ArtifactKind:  v.ArtifactKind,
			ArtifactID:    v.ArtifactID,
			VersionNumber: v.Number,
			At:            now,
			Detail:        map[string]interface{}{"item": itemID, "decision": decision},
		})
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// load fetches a version by primary key without items.
func load(tx *gorm.DB, versionID uint) (*models.Version, error) {
	var v models.Version
	if err := tx.First(&v, versionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("version: not found: %d", versionID)
		}
		return nil, fmt.Errorf("version: load %d: %w", versionID, err)
	}
	return &v, nil
}

// loadWithItems fetches a version by primary key with items preloaded.
func loadWithItems(tx *gorm.DB, versionID uint) (*models.Version, error) {
	var v models.Version
	if err := tx.Preload("Items").First(&v, versionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("version: not found: %d", versionID)
		}
		return nil, fmt.Errorf("version: load %d: %w", versionID, err)
	}
	return &v, nil
}
