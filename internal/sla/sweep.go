package sla

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/signoffhq/signoff/internal/audit"
	"github.com/signoffhq/signoff/internal/models"
	"github.com/signoffhq/signoff/internal/notify"
	"github.com/signoffhq/signoff/internal/workflow"
	"gorm.io/gorm"
)

// Sweeper walks non-completed assignments and applies every escalation rule
// whose deadline has passed. Passes are idempotent: each escalation is a
// compare-and-swap on the current level, so concurrent sweeps cannot
// double-fire a rule.
type Sweeper struct {
	DB       *gorm.DB
	Notifier notify.Dispatcher
	Clock    func() time.Time // nil means time.Now
}

func (s *Sweeper) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// Sweep runs one pass and returns how many escalations it applied. A single
// assignment's failure is logged and skipped; only the initial listing can
// fail the pass.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()

	var open []models.Assignment
	err := s.DB.Where("status <> ?", workflow.AssignmentCompleted).
		Order("created_at ASC").
		Find(&open).Error
	if err != nil {
		return 0, fmt.Errorf("sla: list open assignments: %w", err)
	}

	total := 0
	for i := range open {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		n, err := s.escalate(ctx, &open[i], now)
		total += n
		if err != nil {
			log.Printf("sla: escalate %s: %v", open[i].ID, err)
			continue
		}
	}
	return total, nil
}

// escalate chains the assignment through every rule past its deadline.
// Deadlines are measured from the original creation, so the level an
// assignment should sit at is a pure function of elapsed time.
func (s *Sweeper) escalate(ctx context.Context, a *models.Assignment, now time.Time) (int, error) {
	policy, err := Policy(s.DB, a.Transition, a.FromRole, a.ToRole)
	if err != nil {
		return 0, err
	}
	if policy == nil || !policy.Active || !policy.EscalationEnabled {
		return 0, nil
	}

	count := 0
	for _, rule := range policy.Rules {
		if rule.Level <= a.EscalationLevel {
			continue
		}
		deadline := a.CreatedAt.Add(time.Duration(rule.Hours) * time.Hour)
		if now.Before(deadline) {
			continue
		}

		applied := false
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Assignment{}).
				Where("id = ? AND escalation_level = ?", a.ID, a.EscalationLevel).
				Updates(map[string]interface{}{
					"to_role":          rule.ToRole,
					"escalation_level": rule.Level,
				})
			if res.Error != nil {
				return fmt.Errorf("sla: apply level %d to %s: %w", rule.Level, a.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				return nil // another sweep moved it first
			}
			applied = true
			return audit.Record(tx, audit.Event{
				Action:       "assignment.escalate",
				Actor:        "sweeper",
				AssignmentID: a.ID,
				ArtifactKind: a.ArtifactKind,
				ArtifactID:   a.ArtifactID,
				At:           now,
				Detail: map[string]interface{}{
					"level":   rule.Level,
					"to_role": rule.ToRole,
				},
			})
		})
		if err != nil {
			return count, err
		}
		if !applied {
			return count, nil
		}

		a.ToRole = rule.ToRole
		a.EscalationLevel = rule.Level
		count++
		if s.Notifier != nil {
			s.Notifier.Notify(ctx, notify.Event{
				Kind:       notify.EventEscalated,
				Assignment: a,
				Detail:     fmt.Sprintf("re-routed to %s after %dh", rule.ToRole, rule.Hours),
			})
		}
	}
	return count, nil
}

// Run sweeps on a fixed interval until the context is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	log.Printf("sla: sweeping every %s", interval)
	for {
		n, err := s.Sweep(ctx)
		if err != nil {
			log.Printf("sla: sweep: %v", err)
		} else if n > 0 {
			log.Printf("sla: escalated %d assignment(s)", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}
