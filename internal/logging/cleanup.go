package logging

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes log records older than a cutoff.
type Pruner interface {
	DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartCleanup prunes system_logs older than retention once per interval
// until done is closed.
func StartCleanup(pruner Pruner, retention, interval time.Duration, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pruneOnce(pruner, retention)
			case <-done:
				return
			}
		}
	}()
}

func pruneOnce(pruner Pruner, retention time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := pruner.DeleteLogsBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		slog.Warn("log cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("log cleanup completed", "deleted", deleted)
	}
}
