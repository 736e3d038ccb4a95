// Package assignment tracks cross-role task handoffs against SLA due
// dates. Assignments move assigned → acknowledged → in_progress →
// completed; the acknowledged hop may be skipped. Escalation past the due
// date is the sla package's job.
package assignment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/signoffhq/signoff/internal/audit"
	"github.com/signoffhq/signoff/internal/models"
	"github.com/signoffhq/signoff/internal/notify"
	"github.com/signoffhq/signoff/internal/sla"
	"github.com/signoffhq/signoff/internal/workflow"
	"gorm.io/gorm"
)

// Manager creates assignments and walks them through their state machine.
type Manager struct {
	DB           *gorm.DB
	Notifier     notify.Dispatcher
	Clock        func() time.Time // nil means time.Now
	DefaultHours int              // SLA fallback when no policy matches
}

func (m *Manager) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

// GenerateID returns a fresh assignment ID of the form asg-1a2b3.
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("assignment: generate ID: %w", err)
	}
	return "asg-" + hex.EncodeToString(b)[:5], nil
}

func generateUniqueID(db *gorm.DB) (string, error) {
	for i := 0; i < 2; i++ {
		id, err := GenerateID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Assignment{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("assignment: check ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("assignment: failed to generate unique ID after retries")
}

// CreateOpts holds parameters for creating a new assignment.
type CreateOpts struct {
	Transition   string
	FromRole     string
	ToRole       string
	Title        string
	Priority     int    // 1 = urgent, 2 = normal, 3 = low; 0 defaults to 2
	ArtifactKind string // optional link to the versioned artifact
	ArtifactID   string
	CreatedBy    string
}

// Create opens an assignment with a due date taken from the SLA policy for
// its transition, falling back to the manager's configured default hours.
func (m *Manager) Create(opts CreateOpts) (*models.Assignment, error) {
	var violations []string
	if opts.Transition == "" {
		violations = append(violations, "transition is required")
	}
	if opts.FromRole == "" {
		violations = append(violations, "from role is required")
	}
	if opts.ToRole == "" {
		violations = append(violations, "to role is required")
	}
	if opts.Title == "" {
		violations = append(violations, "title is required")
	}
	if len(violations) > 0 {
		return nil, &workflow.ValidationError{Violations: violations}
	}
	if opts.Priority == 0 {
		opts.Priority = 2
	}

	hours, err := sla.Hours(m.DB, opts.Transition, opts.FromRole, opts.ToRole, m.DefaultHours)
	if err != nil {
		return nil, err
	}

	now := m.now()
	var a models.Assignment

	err = m.DB.Transaction(func(tx *gorm.DB) error {
		id, err := generateUniqueID(tx)
		if err != nil {
			return err
		}
		a = models.Assignment{
			ID:           id,
			Transition:   opts.Transition,
			FromRole:     opts.FromRole,
			ToRole:       opts.ToRole,
			Title:        opts.Title,
			Priority:     opts.Priority,
			ArtifactKind: opts.ArtifactKind,
			ArtifactID:   opts.ArtifactID,
			Status:       workflow.AssignmentAssigned,
			DueAt:        now.Add(time.Duration(hours) * time.Hour),
			CreatedBy:    opts.CreatedBy,
			CreatedAt:    now,
		}
		if err := tx.Create(&a).Error; err != nil {
			return fmt.Errorf("assignment: create: %w", err)
		}
		return audit.Record(tx, audit.Event{
			Action:       "assignment.create",
			Actor:        opts.CreatedBy,
			AssignmentID: a.ID,
			ArtifactKind: opts.ArtifactKind,
			ArtifactID:   opts.ArtifactID,
			At:           now,
			Detail: map[string]interface{}{
				"transition": opts.Transition,
				"to_role":    opts.ToRole,
				"due_hours":  hours,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if m.Notifier != nil {
		m.Notifier.Notify(context.Background(), notify.Event{Kind: notify.EventCreated, Assignment: &a})
	}
	return &a, nil
}

// Acknowledge marks an assigned task as seen by its target role.
func (m *Manager) Acknowledge(id, actor string) (*models.Assignment, error) {
	return m.transition(id, actor, "acknowledge", func(a *models.Assignment, now time.Time) (map[string]interface{}, bool, error) {
		switch a.Status {
		case workflow.AssignmentAcknowledged:
			return nil, false, nil
		case workflow.AssignmentAssigned:
			a.Status = workflow.AssignmentAcknowledged
			a.AcknowledgedAt = &now
			return map[string]interface{}{"status": a.Status, "acknowledged_at": now}, true, nil
		default:
			return nil, false, &workflow.InvalidStateError{Op: "acknowledge", Subject: "assignment " + a.ID, Status: a.Status}
		}
	})
}

// StartWork moves an assignment to in_progress. Acknowledging first is
// optional.
func (m *Manager) StartWork(id, actor string) (*models.Assignment, error) {
	return m.transition(id, actor, "start", func(a *models.Assignment, now time.Time) (map[string]interface{}, bool, error) {
		switch a.Status {
		case workflow.AssignmentInProgress:
			return nil, false, nil
		case workflow.AssignmentAssigned, workflow.AssignmentAcknowledged:
			a.Status = workflow.AssignmentInProgress
			a.StartedAt = &now
			return map[string]interface{}{"status": a.Status, "started_at": now}, true, nil
		default:
			return nil, false, &workflow.InvalidStateError{Op: "start", Subject: "assignment " + a.ID, Status: a.Status}
		}
	})
}

// Complete closes an in_progress assignment and notifies the channels.
// Completing twice is a no-op and does not re-notify.
func (m *Manager) Complete(id, actor string) (*models.Assignment, error) {
	closed := false
	a, err := m.transition(id, actor, "complete", func(a *models.Assignment, now time.Time) (map[string]interface{}, bool, error) {
		switch a.Status {
		case workflow.AssignmentCompleted:
			return nil, false, nil
		case workflow.AssignmentInProgress:
			a.Status = workflow.AssignmentCompleted
			a.CompletedAt = &now
			closed = true
			return map[string]interface{}{"status": a.Status, "completed_at": now}, true, nil
		default:
			return nil, false, &workflow.InvalidStateError{Op: "complete", Subject: "assignment " + a.ID, Status: a.Status}
		}
	})
	if err != nil {
		return nil, err
	}
	if closed && m.Notifier != nil {
		m.Notifier.Notify(context.Background(), notify.Event{Kind: notify.EventCompleted, Assignment: a})
	}
	return a, nil
}

// transition loads the assignment, applies the step's updates, and audits.
// A step returning no updates is an idempotent no-op.
func (m *Manager) transition(id, actor, action string, step func(*models.Assignment, time.Time) (map[string]interface{}, bool, error)) (*models.Assignment, error) {
	now := m.now()
	var a *models.Assignment

	err := m.DB.Transaction(func(tx *gorm.DB) error {
		loaded, err := loadAssignment(tx, id)
		if err != nil {
			return err
		}
		a = loaded

		updates, changed, err := step(a, now)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}

		if err := tx.Model(&models.Assignment{}).Where("id = ?", a.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("assignment: %s %s: %w", action, a.ID, err)
		}
		return audit.Record(tx, audit.Event{
			Action:       "assignment." + action,
			Actor:        actor,
			AssignmentID: a.ID,
			ArtifactKind: a.ArtifactKind,
			ArtifactID:   a.ArtifactID,
			At:           now,
		})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func loadAssignment(tx *gorm.DB, id string) (*models.Assignment, error) {
	var a models.Assignment
	if err := tx.Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("assignment: not found: %s", id)
		}
		return nil, fmt.Errorf("assignment: load %s: %w", id, err)
	}
	return &a, nil
}

// Get retrieves an assignment by ID.
func (m *Manager) Get(id string) (*models.Assignment, error) {
	return loadAssignment(m.DB, id)
}

// Filters holds optional filters for listing assignments.
type Filters struct {
	ToRole     string
	Status     string
	Transition string
}

// List returns assignments matching the filters, urgent and oldest-due
// first.
func (m *Manager) List(filters Filters) ([]models.Assignment, error) {
	q := m.DB.Model(&models.Assignment{})

	if filters.ToRole != "" {
		q = q.Where("to_role = ?", filters.ToRole)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Transition != "" {
		q = q.Where("transition = ?", filters.Transition)
	}

	var out []models.Assignment
	if err := q.Order("priority ASC, due_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("assignment: list: %w", err)
	}
	return out, nil
}

// Overdue returns non-completed assignments whose due date has passed.
func (m *Manager) Overdue(now time.Time) ([]models.Assignment, error) {
	var out []models.Assignment
	err := m.DB.Where("due_at < ? AND status <> ?", now, workflow.AssignmentCompleted).
		Order("due_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("assignment: list overdue: %w", err)
	}
	return out, nil
}

// IsOverdue reports whether an assignment has blown its due date.
func IsOverdue(a *models.Assignment, now time.Time) bool {
	return a.Status != workflow.AssignmentCompleted && a.DueAt.Before(now)
}
