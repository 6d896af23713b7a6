// Package jobs runs periodic maintenance tasks.
package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// SessionCleaner deletes expired auth sessions.
type SessionCleaner interface {
	CleanupExpiredSessions() (int64, error)
}

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	s *gocron.Scheduler
}

// New creates a stopped scheduler.
func New() *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{s: s}
}

// ScheduleSessionCleanup runs CleanupExpiredSessions every interval.
func (sc *Scheduler) ScheduleSessionCleanup(c SessionCleaner, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("cleanup interval must be positive, got %s", interval)
	}
	_, err := sc.s.Every(interval).Do(func() {
		CleanupSessions(c)
	})
	if err != nil {
		return fmt.Errorf("schedule session cleanup: %w", err)
	}
	return nil
}

// CleanupSessions runs one cleanup pass and logs the outcome.
func CleanupSessions(c SessionCleaner) {
	n, err := c.CleanupExpiredSessions()
	if err != nil {
		slog.Error("session cleanup failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("removed expired sessions", "count", n)
	}
}

// Start runs the scheduled jobs in the background.
func (sc *Scheduler) Start() {
	sc.s.StartAsync()
}

// Stop stops the scheduler.
func (sc *Scheduler) Stop() {
	sc.s.Stop()
}
