package sessions

import (
	"context"
	"log/slog"
	"time"
)

// Janitor deletes sessions that have been expired or revoked for longer
// than the retention window. Runs are idempotent.
type Janitor struct {
	sessionRepo SessionRepository
	interval    time.Duration
	retention   time.Duration
}

func NewJanitor(sessionRepo SessionRepository, interval time.Duration, retention time.Duration) *Janitor {
	return &Janitor{
		sessionRepo: sessionRepo,
		interval:    interval,
		retention:   retention,
	}
}

// Run blocks until ctx is cancelled, purging stale sessions on each tick.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

func (j *Janitor) RunOnce(ctx context.Context) {
	cutoff := time.Now().Add(-j.retention)
	deleted, err := j.sessionRepo.PurgeStale(ctx, cutoff)
	if err != nil {
		slog.Error("Session cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Purged stale sessions", "deleted", deleted, "cutoff", cutoff)
	}
}
