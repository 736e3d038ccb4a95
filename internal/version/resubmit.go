package version

import (
	"errors"
	"fmt"

	"github.com/signoffhq/signoff/internal/audit"
	"github.com/signoffhq/signoff/internal/models"
	"github.com/signoffhq/signoff/internal/roles"
	"github.com/signoffhq/signoff/internal/workflow"
	"gorm.io/gorm"
)

// Resubmit opens a new draft from the latest rejected version of the
// artifact. Items the reviewing role already approved carry forward with
// their review intact; everything else carries forward pending, its tester
// and review fields cleared, so the authoring role re-decides only what was
// actually contested.
func (m *Manager) Resubmit(ref workflow.ArtifactRef, actor string) (*models.Version, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if actor == "" {
		return nil, fmt.Errorf("version: actor is required")
	}
	if err := roles.Check(m.Oracle, m.Gates, "version.resubmit", actor); err != nil {
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

		var source models.Version
		err = tx.Preload("Items").
			Where("artifact_kind = ? AND artifact_id = ? AND status = ?", ref.Kind, ref.ID, workflow.VersionRejected).
			Order("number DESC").
			First(&source).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &workflow.NothingToResubmitError{Kind: ref.Kind, ID: ref.ID}
			}
			return fmt.Errorf("version: find rejected version of %s: %w", ref, err)
		}

		next, err := nextNumber(tx, ref)
		if err != nil {
			return err
		}

		created = models.Version{
			ArtifactKind:    ref.Kind,
			ArtifactID:      ref.ID,
			Number:          next,
			Status:          workflow.VersionDraft,
			OpenMarker:      openMarker(),
			ParentVersionID: &source.ID,
			CreatedBy:       actor,
			CreatedAt:       now,
		}
		if err := tx.Create(&created).Error; err != nil {
			return conflictFor(fmt.Errorf("version: create resubmission for %s: %w", ref, err), ref)
		}

		carried := carryItems(created.ID, source.Items)
		if len(carried) > 0 {
			if err := tx.Create(&carried).Error; err != nil {
				return fmt.Errorf("version: carry items to version %d of %s: %w", created.Number, ref, err)
			}
		}
		created.Items = carried

		return audit.Record(tx, audit.Event{
			Action:        "version.resubmit",
			Actor:         actor,
			ArtifactKind:  ref.Kind,
			ArtifactID:    ref.ID,
			VersionNumber: created.Number,
			At:            now,
			Detail: map[string]interface{}{
				"from_version": source.Number,
				"items":        len(carried),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// carryItems builds the item rows for a resubmitted draft. Approved items
// keep everything; the rest reset to undecided and unreviewed.
func carryItems(versionID uint, source []models.ItemDecision) []models.ItemDecision {
	carried := make([]models.ItemDecision, 0, len(source))
	for _, src := range source {
		srcID := src.ID
		item := models.ItemDecision{
			VersionID:   versionID,
			ItemID:      src.ItemID,
			Include:     src.Include,
			CarriedFrom: &srcID,
		}
		if src.ReviewDecision != nil && *src.ReviewDecision == workflow.ReviewApproved {
			item.TesterDecision = src.TesterDecision
			item.TesterNotes = src.TesterNotes
			item.ReviewDecision = src.ReviewDecision
			item.ReviewNotes = src.ReviewNotes
			item.DecidedBy = src.DecidedBy
			item.DecidedAt = src.DecidedAt
		}
		carried = append(carried, item)
	}
	return carried
}

// Current returns the version a caller should look at right now: the open
// version if one exists, else the standing approved version, else the
// highest-numbered version. There is no stored pointer; the answer is
// derived from status on every call.
func (m *Manager) Current(ref workflow.ArtifactRef) (*models.Version, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	var v models.Version
	err := m.DB.Preload("Items").
		Where("artifact_kind = ? AND artifact_id = ? AND open_marker IS NOT NULL", ref.Kind, ref.ID).
		First(&v).Error
	if err == nil {
		return &v, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("version: current of %s: %w", ref, err)
	}

	err = m.DB.Preload("Items").
		Where("artifact_kind = ? AND artifact_id = ? AND status = ?", ref.Kind, ref.ID, workflow.VersionApproved).
		First(&v).Error
	if err == nil {
		return &v, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("version: current of %s: %w", ref, err)
	}

	err = m.DB.Preload("Items").
		Where("artifact_kind = ? AND artifact_id = ?", ref.Kind, ref.ID).
		Order("number DESC").
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("version: no versions for %s", ref)
		}
		return nil, fmt.Errorf("version: current of %s: %w", ref, err)
	}
	return &v, nil
}

// History returns every version of the artifact ascending by number, items
// preloaded. This is the input the review resolver works over.
func (m *Manager) History(ref workflow.ArtifactRef) ([]models.Version, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	var versions []models.Version
	err := m.DB.Preload("Items").
		Where("artifact_kind = ? AND artifact_id = ?", ref.Kind, ref.ID).
		Order("number ASC").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("version: history of %s: %w", ref, err)
	}
	return versions, nil
}

// Get fetches one version by primary key with items preloaded.
func (m *Manager) Get(versionID uint) (*models.Version, error) {
	return loadWithItems(m.DB, versionID)
}
