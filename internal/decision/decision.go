// Package decision applies reviewer verdicts to submitted items, singly or
// in bulk. A batch is all-or-nothing: one bad item aborts every decision in
// it, and a version whose items end up fully reviewed flips to its overall
// verdict in the same transaction.
package decision

import (
	"fmt"
	"time"

	"github.com/signoffhq/signoff/internal/audit"
	"github.com/signoffhq/signoff/internal/models"
	"github.com/signoffhq/signoff/internal/roles"
	"github.com/signoffhq/signoff/internal/version"
	"github.com/signoffhq/signoff/internal/workflow"
	"gorm.io/gorm"
)

// Processor applies review decisions for one acting role.
type Processor struct {
	DB     *gorm.DB
	Oracle roles.Oracle
	Gates  roles.Gates
	Clock  func() time.Time // nil means time.Now
}

func (p *Processor) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now()
}

// Outcome reports one applied decision for audit logging.
type Outcome struct {
	ItemID    uint   // ItemDecision row
	Item      string // the reviewable unit it decides
	VersionID uint
	Action    string
	DecidedAt time.Time
}

// ApplyBulk applies one action to every item in the batch. Every item must
// exist and belong to a pending_approval version; any violation aborts the
// whole batch with a ValidationError listing each offender and nothing is
// written. On success all decisions land in one transaction, and versions
// left fully reviewed flip to approved or rejected by the usual stamping
// rules.
func (p *Processor) ApplyBulk(itemIDs []uint, action, notes, actor string) ([]Outcome, error) {
	switch action {
	case workflow.ReviewApproved, workflow.ReviewRejected, workflow.ReviewNeedsRevision:
	default:
		return nil, workflow.Violation("action %q is not one of approved, rejected, needs_revision", action)
	}
	if len(itemIDs) == 0 {
		return nil, workflow.Violation("no items given")
	}
	if err := roles.Check(p.Oracle, p.Gates, "item.decide", actor); err != nil {
		return nil, err
	}

	now := p.now()
	var outcomes []Outcome

	err := p.DB.Transaction(func(tx *gorm.DB) error {
		items, versions, err := loadBatch(tx, itemIDs)
		if err != nil {
			return err
		}

		// Validation pass: nothing is written until every item checks out.
		var violations []string
		for _, id := range itemIDs {
			it, ok := items[id]
			if !ok {
				violations = append(violations, fmt.Sprintf("item %d not found", id))
				continue
			}
			v := versions[it.VersionID]
			if v.Status != workflow.VersionPendingApproval {
				violations = append(violations, fmt.Sprintf(
					"item %d (%s): version %d of %s/%s is %s, not pending approval",
					id, it.ItemID, v.Number, v.ArtifactKind, v.ArtifactID, v.Status))
			}
		}
		if len(violations) > 0 {
			return &workflow.ValidationError{Violations: violations}
		}

		var touched []uint // version IDs in first-seen order
		seen := make(map[uint]bool)

		for _, id := range itemIDs {
			it := items[id]
			updates := map[string]interface{}{
				"review_decision": action,
				"review_notes":    notes,
				"decided_by":      actor,
				"decided_at":      now,
			}
			if err := tx.Model(&models.ItemDecision{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return fmt.Errorf("decision: apply %s to item %d: %w", action, id, err)
			}

			v := versions[it.VersionID]
			if err := audit.Record(tx, audit.Event{
				Action:        "item.decide",
				Actor:         actor,
				ArtifactKind:  v.ArtifactKind,
				ArtifactID:    v.ArtifactID,
				VersionNumber: v.Number,
				At:            now,
				Detail:        map[string]interface{}{"item": it.ItemID, "action": action},
			}); err != nil {
				return err
			}

			outcomes = append(outcomes, Outcome{
				ItemID:    id,
				Item:      it.ItemID,
				VersionID: it.VersionID,
				Action:    action,
				DecidedAt: now,
			})
			if !seen[it.VersionID] {
				seen[it.VersionID] = true
				touched = append(touched, it.VersionID)
			}
		}

		for _, vid := range touched {
			if err := deriveVerdict(tx, vid, actor, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Apply is the single-item convenience wrapper around ApplyBulk.
func (p *Processor) Apply(itemID uint, action, notes, actor string) (*Outcome, error) {
	outcomes, err := p.ApplyBulk([]uint{itemID}, action, notes, actor)
	if err != nil {
		return nil, err
	}
	return &outcomes[0], nil
}

// loadBatch fetches the batch's items and their versions in two queries.
func loadBatch(tx *gorm.DB, itemIDs []uint) (map[uint]models.ItemDecision, map[uint]models.Version, error) {
	var rows []models.ItemDecision
	if err := tx.Where("id IN ?", itemIDs).Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("decision: load items: %w", err)
	}
	items := make(map[uint]models.ItemDecision, len(rows))
	versionIDs := make([]uint, 0, len(rows))
	for _, it := range rows {
		items[it.ID] = it
		versionIDs = append(versionIDs, it.VersionID)
	}

	versions := make(map[uint]models.Version)
	if len(versionIDs) > 0 {
		var vrows []models.Version
		if err := tx.Where("id IN ?", versionIDs).Find(&vrows).Error; err != nil {
			return nil, nil, fmt.Errorf("decision: load versions: %w", err)
		}
		for _, v := range vrows {
			versions[v.ID] = v
		}
	}
	return items, versions, nil
}

// deriveVerdict flips a pending version whose items are now all reviewed:
// rejected if any item is negative, approved if every item came back
// approved. Partially reviewed versions stay pending.
func deriveVerdict(tx *gorm.DB, versionID uint, actor string, now time.Time) error {
	var v models.Version
	if err := tx.Preload("Items").First(&v, versionID).Error; err != nil {
		return fmt.Errorf("decision: reload version %d: %w", versionID, err)
	}
	if v.Status != workflow.VersionPendingApproval {
		return nil
	}

	negatives := 0
	for _, it := range v.Items {
		if it.ReviewDecision == nil {
			return nil // still partially reviewed
		}
		if *it.ReviewDecision != workflow.ReviewApproved {
			negatives++
		}
	}

	if negatives > 0 {
		reason := fmt.Sprintf("%d of %d items rejected or needing revision", negatives, len(v.Items))
		return version.MarkRejected(tx, &v, actor, reason, now)
	}
	return version.MarkApproved(tx, &v, actor, "", now)
}
