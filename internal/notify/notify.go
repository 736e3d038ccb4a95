// Package notify fans assignment events out to the configured channels.
// Dispatch is fire-and-forget: a dropped notification never fails the
// state change that produced it, so adapters log their own errors.
package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/signoffhq/signoff/internal/config"
	"github.com/signoffhq/signoff/internal/models"
	"gorm.io/gorm"
)

// Event kinds.
const (
	EventCreated   = "assignment.created"
	EventEscalated = "assignment.escalated"
	EventCompleted = "assignment.completed"
)

// Sidebar colors by event kind, shared by the Slack and Discord adapters.
const (
	colorSuccess = "#36a64f"
	colorInfo    = "#2196f3"
	colorWarning = "#ff9800"
)

// Event describes one assignment state change worth telling someone about.
type Event struct {
	Kind       string
	Assignment *models.Assignment
	Detail     string // extra line, e.g. the escalation hop
}

// Title renders the headline for the event.
func (e Event) Title() string {
	a := e.Assignment
	switch e.Kind {
	case EventCreated:
		return fmt.Sprintf("Assignment %s: %s → %s", a.ID, a.FromRole, a.ToRole)
	case EventEscalated:
		return fmt.Sprintf("Assignment %s escalated to level %d", a.ID, a.EscalationLevel)
	case EventCompleted:
		return fmt.Sprintf("Assignment %s completed", a.ID)
	default:
		return fmt.Sprintf("Assignment %s: %s", a.ID, e.Kind)
	}
}

// Body renders the detail lines for the event.
func (e Event) Body() string {
	a := e.Assignment
	body := fmt.Sprintf("%s (%s, due %s)", a.Title, a.Transition, a.DueAt.Format("2006-01-02 15:04 MST"))
	if e.Detail != "" {
		body += "\n" + e.Detail
	}
	return body
}

func (e Event) color() string {
	switch e.Kind {
	case EventCompleted:
		return colorSuccess
	case EventEscalated:
		return colorWarning
	default:
		return colorInfo
	}
}

// Dispatcher delivers events. Implementations must not block on slow
// channels longer than the context allows and must swallow their own
// delivery failures.
type Dispatcher interface {
	Notify(ctx context.Context, ev Event)
}

// LogDispatcher writes events to the process log. It is the fallback when
// no external channel is configured, and is always part of the stack.
type LogDispatcher struct{}

func (LogDispatcher) Notify(_ context.Context, ev Event) {
	log.Printf("notify: %s: %s", ev.Kind, ev.Title())
}

// Recorder persists each event as a NotificationRecord row so operators can
// see what was sent without trawling channel history.
type Recorder struct {
	DB *gorm.DB
}

func (r Recorder) Notify(_ context.Context, ev Event) {
	a := ev.Assignment
	rec := models.NotificationRecord{
		Kind:         ev.Kind,
		AssignmentID: a.ID,
		Transition:   a.Transition,
		ToRole:       a.ToRole,
		Level:        a.EscalationLevel,
		Title:        ev.Title(),
		Body:         ev.Body(),
	}
	if err := r.DB.Create(&rec).Error; err != nil {
		log.Printf("notify: record event: %v", err)
	}
}

// Multi fans an event out to every dispatcher in order.
type Multi []Dispatcher

func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, d := range m {
		d.Notify(ctx, ev)
	}
}

// FromConfig assembles the dispatcher stack: always the log and the DB
// record, plus Slack and Discord when configured.
func FromConfig(cfg *config.Config, db *gorm.DB) Dispatcher {
	stack := Multi{LogDispatcher{}, Recorder{DB: db}}
	if cfg.Notify.Slack.Token != "" {
		stack = append(stack, NewSlack(cfg.Notify.Slack.Token, cfg.Notify.Slack.Channel))
	}
	if cfg.Notify.Discord.Token != "" {
		d, err := NewDiscord(cfg.Notify.Discord.Token, cfg.Notify.Discord.ChannelID)
		if err != nil {
			log.Printf("notify: discord disabled: %v", err)
		} else {
			stack = append(stack, d)
		}
	}
	return stack
}
