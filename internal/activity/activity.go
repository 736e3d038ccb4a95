// Package activity tracks phase-level work units and the ordering gate
// between them. Activities are plain data rows; the tracker enforces the
// state machine (not_started → in_progress → completed, with completed →
// revision_requested reachable only by the reviewing role).
package activity

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

// Tracker mutates activity state. Transitions re-applied to their own
// target state are no-ops so manual overrides stay idempotent.
type Tracker struct {
	DB     *gorm.DB
	Oracle roles.Oracle
	Gates  roles.Gates
	Clock  func() time.Time // nil means time.Now
}

func (t *Tracker) now() time.Time {
	if t.Clock != nil {
		return t.Clock()
	}
	return time.Now()
}

// Define inserts an activity into a phase. The (phase, name) pair is
// unique; ordering declares which activities must complete first.
func (t *Tracker) Define(phase, name string, ordering int, actor string) (*models.Activity, error) {
	if phase == "" {
		return nil, fmt.Errorf("activity: phase is required")
	}
	if name == "" {
		return nil, fmt.Errorf("activity: name is required")
	}

	now := t.now()
	act := models.Activity{
		Phase:    phase,
		Name:     name,
		Ordering: ordering,
		State:    workflow.ActivityNotStarted,
	}

	err := t.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&act).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &workflow.ConflictError{
					Kind: "phase", ID: phase,
					Detail: fmt.Sprintf("activity %q already defined", name),
				}
			}
			return fmt.Errorf("activity: define %s/%s: %w", phase, name, err)
		}
		return audit.Record(tx, audit.Event{
			Action: "activity.define",
			Actor:  actor,
			At:     now,
			Detail: map[string]interface{}{"phase": phase, "name": name, "ordering": ordering},
		})
	})
	if err != nil {
		return nil, err
	}
	return &act, nil
}

// Start moves an activity to in_progress. Every activity with a lower
// ordering in the phase must be completed first; a violation names each
// blocker so the caller knows what to chase.
func (t *Tracker) Start(phase, name, actor string) (*models.Activity, error) {
	now := t.now()
	var started *models.Activity

	err := t.DB.Transaction(func(tx *gorm.DB) error {
		act, err := loadActivity(tx, phase, name)
		if err != nil {
			return err
		}

		switch act.State {
		case workflow.ActivityInProgress:
			started = act
			return nil // already running
		case workflow.ActivityCompleted:
			return &workflow.InvalidStateError{Op: "start", Subject: subject(act), Status: act.State}
		}

		var blockers []string
		err = tx.Model(&models.Activity{}).
			Where("phase = ? AND ordering < ? AND state <> ?", phase, act.Ordering, workflow.ActivityCompleted).
			Order("ordering ASC").
			Pluck("name", &blockers).Error
		if err != nil {
			return fmt.Errorf("activity: check prerequisites of %s/%s: %w", phase, name, err)
		}
		if len(blockers) > 0 {
			return &workflow.GateError{Activity: name, Blockers: blockers}
		}

		if err := t.transition(tx, act, workflow.ActivityInProgress, actor, "", now); err != nil {
			return err
		}
		started = act
		return audit.Record(tx, audit.Event{
			Action: "activity.start",
			Actor:  actor,
			At:     now,
			Detail: map[string]interface{}{"phase": phase, "name": name},
		})
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

// Complete moves an in_progress activity to completed.
func (t *Tracker) Complete(phase, name, actor string) (*models.Activity, error) {
	now := t.now()
	var completed *models.Activity

	err := t.DB.Transaction(func(tx *gorm.DB) error {
		act, err := loadActivity(tx, phase, name)
		if err != nil {
			return err
		}

		switch act.State {
		case workflow.ActivityCompleted:
			completed = act
			return nil
		case workflow.ActivityInProgress:
		default:
			return &workflow.InvalidStateError{Op: "complete", Subject: subject(act), Status: act.State}
		}

		if err := t.transition(tx, act, workflow.ActivityCompleted, actor, "", now); err != nil {
			return err
		}
		completed = act
		return audit.Record(tx, audit.Event{
			Action: "activity.complete",
			Actor:  actor,
			At:     now,
			Detail: map[string]interface{}{"phase": phase, "name": name},
		})
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// RequestRevision knocks a completed activity back for rework. Only the
// reviewing role holds this transition, and the reason is what the workers
// see, so it is mandatory.
func (t *Tracker) RequestRevision(phase, name, actor, reason string) (*models.Activity, error) {
	if err := roles.Check(t.Oracle, t.Gates, "activity.request_revision", actor); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, workflow.Violation("revision reason is required")
	}

	now := t.now()
	var revised *models.Activity

	err := t.DB.Transaction(func(tx *gorm.DB) error {
		act, err := loadActivity(tx, phase, name)
		if err != nil {
			return err
		}

		switch act.State {
		case workflow.ActivityRevisionRequested:
			revised = act
			return nil
		case workflow.ActivityCompleted:
		default:
			return &workflow.InvalidStateError{Op: "request revision of", Subject: subject(act), Status: act.State}
		}

		if err := t.transition(tx, act, workflow.ActivityRevisionRequested, actor, reason, now); err != nil {
			return err
		}
		revised = act
		return audit.Record(tx, audit.Event{
			Action: "activity.request_revision",
			Actor:  actor,
			At:     now,
			Detail: map[string]interface{}{"phase": phase, "name": name, "reason": reason},
		})
	})
	if err != nil {
		return nil, err
	}
	return revised, nil
}

// transition writes the new state and stamps who moved it when.
func (t *Tracker) transition(tx *gorm.DB, act *models.Activity, state, actor, reason string, now time.Time) error {
	updates := map[string]interface{}{
		"state":           state,
		"last_updated_by": actor,
		"last_updated_at": now,
		"revision_reason": reason,
	}
	if err := tx.Model(&models.Activity{}).Where("id = ?", act.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("activity: move %s/%s to %s: %w", act.Phase, act.Name, state, err)
	}
	act.State = state
	act.LastUpdatedBy = actor
	act.LastUpdatedAt = &now
	act.RevisionReason = reason
	return nil
}

// Phase returns the activities of a phase in prerequisite order.
func (t *Tracker) Phase(phase string) ([]models.Activity, error) {
	var acts []models.Activity
	err := t.DB.Where("phase = ?", phase).Order("ordering ASC, name ASC").Find(&acts).Error
	if err != nil {
		return nil, fmt.Errorf("activity: list phase %s: %w", phase, err)
	}
	return acts, nil
}

// Get fetches one activity by phase and name.
func (t *Tracker) Get(phase, name string) (*models.Activity, error) {
	return loadActivity(t.DB, phase, name)
}

func loadActivity(tx *gorm.DB, phase, name string) (*models.Activity, error) {
	var act models.Activity
	err := tx.Where("phase = ? AND name = ?", phase, name).First(&act).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("activity: %s/%s not found", phase, name)
		}
		return nil, fmt.Errorf("activity: load %s/%s: %w", phase, name, err)
	}
	return &act, nil
}

func subject(act *models.Activity) string {
	return fmt.Sprintf("activity %s/%s", act.Phase, act.Name)
}

// PhaseStatus reduces a phase's activity states to one aggregate: completed
// iff everything completed, else revision_requested if anything needs
// rework, else in_progress if anything is running, else not_started. A mix
// of completed and not_started with nothing running reads as not_started,
// not a partial state.
func PhaseStatus(states []string) string {
	if len(states) == 0 {
		return workflow.ActivityNotStarted
	}

	allCompleted := true
	anyRevision := false
	anyInProgress := false
	for _, s := range states {
		if s != workflow.ActivityCompleted {
			allCompleted = false
		}
		switch s {
		case workflow.ActivityRevisionRequested:
			anyRevision = true
		case workflow.ActivityInProgress:
			anyInProgress = true
		}
	}

	switch {
	case allCompleted:
		return workflow.ActivityCompleted
	case anyRevision:
		return workflow.ActivityRevisionRequested
	case anyInProgress:
		return workflow.ActivityInProgress
	default:
		return workflow.ActivityNotStarted
	}
}
