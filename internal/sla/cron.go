package sla

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard 5-field expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextRun parses a 5-field cron expression and returns the first fire time
// after now.
func NextRun(expr string, now time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("sla: parse schedule %q: %w", expr, err)
	}
	return sched.Next(now), nil
}

// RunSchedule sweeps on a cron schedule until the context is done. The
// expression is validated up front so a typo fails the daemon at startup
// instead of never firing.
func (s *Sweeper) RunSchedule(ctx context.Context, expr string) error {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return fmt.Errorf("sla: parse schedule %q: %w", expr, err)
	}

	log.Printf("sla: sweeping on schedule %q", expr)
	for {
		next := sched.Next(time.Now())
		sleepWithContext(ctx, time.Until(next))
		if ctx.Err() != nil {
			return nil
		}
		n, err := s.Sweep(ctx)
		if err != nil {
			log.Printf("sla: sweep: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("sla: escalated %d assignment(s)", n)
		}
	}
}

// sleepWithContext sleeps for duration d, returning early if ctx is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
