package dashboard

import (
	"fmt"
	"time"

	"github.com/signoffhq/signoff/internal/activity"
	"github.com/signoffhq/signoff/internal/models"
	"github.com/signoffhq/signoff/internal/review"
	"github.com/signoffhq/signoff/internal/workflow"
	"gorm.io/gorm"
)

// QueueEntry is one submitted version awaiting review.
type QueueEntry struct {
	VersionID    uint       `json:"version_id"`
	ArtifactKind string     `json:"artifact_kind"`
	ArtifactID   string     `json:"artifact_id"`
	Number       int        `json:"number"`
	CreatedBy    string     `json:"created_by"`
	SubmittedAt  *time.Time `json:"submitted_at"`
	Items        int        `json:"items"`
	Reviewed     int        `json:"reviewed"`
}

// ReviewQueue returns pending versions oldest-submission first, with item
// progress so reviewers can pick the largest outstanding batch.
func ReviewQueue(db *gorm.DB) ([]QueueEntry, error) {
	var versions []models.Version
	err := db.Preload("Items").
		Where("status = ?", workflow.VersionPendingApproval).
		Order("submitted_at ASC").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard: review queue: %w", err)
	}

	entries := make([]QueueEntry, len(versions))
	for i, v := range versions {
		reviewed := 0
		for _, it := range v.Items {
			if it.ReviewDecision != nil {
				reviewed++
			}
		}
		entries[i] = QueueEntry{
			VersionID:    v.ID,
			ArtifactKind: v.ArtifactKind,
			ArtifactID:   v.ArtifactID,
			Number:       v.Number,
			CreatedBy:    v.CreatedBy,
			SubmittedAt:  v.SubmittedAt,
			Items:        len(v.Items),
			Reviewed:     reviewed,
		}
	}
	return entries, nil
}

// OverdueEntry is one assignment past its due date.
type OverdueEntry struct {
	ID              string    `json:"id"`
	Transition      string    `json:"transition"`
	ToRole          string    `json:"to_role"`
	Title           string    `json:"title"`
	Priority        int       `json:"priority"`
	Status          string    `json:"status"`
	EscalationLevel int       `json:"escalation_level"`
	DueAt           time.Time `json:"due_at"`
	HoursOverdue    int       `json:"hours_overdue"`
}

// OverdueAssignments returns non-completed assignments past due, most
// overdue first.
func OverdueAssignments(db *gorm.DB, now time.Time) ([]OverdueEntry, error) {
	var assignments []models.Assignment
	err := db.Where("due_at < ? AND status <> ?", now, workflow.AssignmentCompleted).
		Order("due_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard: overdue assignments: %w", err)
	}

	entries := make([]OverdueEntry, len(assignments))
	for i, a := range assignments {
		entries[i] = OverdueEntry{
			ID:              a.ID,
			Transition:      a.Transition,
			ToRole:          a.ToRole,
			Title:           a.Title,
			Priority:        a.Priority,
			Status:          a.Status,
			EscalationLevel: a.EscalationLevel,
			DueAt:           a.DueAt,
			HoursOverdue:    int(now.Sub(a.DueAt).Hours()),
		}
	}
	return entries, nil
}

// HistoryItem is one item decision inside a history or feedback view.
type HistoryItem struct {
	ItemID         string     `json:"item_id"`
	TesterDecision string     `json:"tester_decision,omitempty"`
	ReviewDecision *string    `json:"review_decision"`
	DecidedBy      string     `json:"decided_by,omitempty"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	Include        bool       `json:"include"`
}

// HistoryVersion is one version in an artifact's timeline.
type HistoryVersion struct {
	Number       int           `json:"number"`
	Status       string        `json:"status"`
	CreatedBy    string        `json:"created_by"`
	CreatedAt    time.Time     `json:"created_at"`
	SubmittedAt  *time.Time    `json:"submitted_at,omitempty"`
	RejectReason string        `json:"reject_reason,omitempty"`
	Items        []HistoryItem `json:"items"`
}

// FeedbackView is the resolver's answer rendered for the API.
type FeedbackView struct {
	Version int            `json:"version"`
	Status  string         `json:"status"`
	Counts  map[string]int `json:"counts"`
	Items   []HistoryItem  `json:"items"`
}

// HistoryView is the full timeline of an artifact plus the resolved
// feedback, absent when nothing has been reviewed yet.
type HistoryView struct {
	ArtifactKind string           `json:"artifact_kind"`
	ArtifactID   string           `json:"artifact_id"`
	Versions     []HistoryVersion `json:"versions"`
	Feedback     *FeedbackView    `json:"feedback,omitempty"`
}

// ArtifactHistory loads every version of an artifact ascending and resolves
// the current feedback over it. Returns nil for an unknown artifact.
func ArtifactHistory(db *gorm.DB, kind, id string) (*HistoryView, error) {
	var versions []models.Version
	err := db.Preload("Items").
		Where("artifact_kind = ? AND artifact_id = ?", kind, id).
		Order("number ASC").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard: history of %s/%s: %w", kind, id, err)
	}
	if len(versions) == 0 {
		return nil, nil
	}

	view := &HistoryView{ArtifactKind: kind, ArtifactID: id}
	for _, v := range versions {
		view.Versions = append(view.Versions, HistoryVersion{
			Number:       v.Number,
			Status:       v.Status,
			CreatedBy:    v.CreatedBy,
			CreatedAt:    v.CreatedAt,
			SubmittedAt:  v.SubmittedAt,
			RejectReason: v.RejectReason,
			Items:        historyItems(v.Items),
		})
	}

	if feedback := review.Resolve(versions); feedback.Reviewed {
		view.Feedback = &FeedbackView{
			Version: feedback.Version.Number,
			Status:  feedback.Version.Status,
			Counts:  feedback.Counts(),
			Items:   historyItems(feedback.Items),
		}
	}
	return view, nil
}

func historyItems(items []models.ItemDecision) []HistoryItem {
	out := make([]HistoryItem, len(items))
	for i, it := range items {
		out[i] = HistoryItem{
			ItemID:         it.ItemID,
			TesterDecision: it.TesterDecision,
			ReviewDecision: it.ReviewDecision,
			DecidedBy:      it.DecidedBy,
			DecidedAt:      it.DecidedAt,
			Include:        it.Include,
		}
	}
	return out
}

// ActivityEntry is one activity on a phase board.
type ActivityEntry struct {
	Name           string `json:"name"`
	Ordering       int    `json:"ordering"`
	State          string `json:"state"`
	RevisionReason string `json:"revision_reason,omitempty"`
}

// PhaseView is a phase's activities and its aggregate status.
type PhaseView struct {
	Phase      string          `json:"phase"`
	Status     string          `json:"status"`
	Activities []ActivityEntry `json:"activities"`
}

// PhaseBoard returns a phase's activities in prerequisite order with the
// rolled-up status. Returns nil for an unknown phase.
func PhaseBoard(db *gorm.DB, phase string) (*PhaseView, error) {
	var acts []models.Activity
	err := db.Where("phase = ?", phase).Order("ordering ASC, name ASC").Find(&acts).Error
	if err != nil {
		return nil, fmt.Errorf("dashboard: phase %s: %w", phase, err)
	}
	if len(acts) == 0 {
		return nil, nil
	}

	view := &PhaseView{Phase: phase}
	states := make([]string, len(acts))
	for i, a := range acts {
		states[i] = a.State
		view.Activities = append(view.Activities, ActivityEntry{
			Name:           a.Name,
			Ordering:       a.Ordering,
			State:          a.State,
			RevisionReason: a.RevisionReason,
		})
	}
	view.Status = activity.PhaseStatus(states)
	return view, nil
}
