package council

import (
	"context"
	"log/slog"
	"time"
)

// RunForever convenes once immediately, then again every interval,
// until ctx is cancelled. A convene already in flight (including one
// triggered through the HTTP decision surface) is skipped rather than
// queued, matching Convene's own ErrAlreadyRunning guard.
func (c *Council) RunForever(ctx context.Context, interval time.Duration) {
	c.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runOnce(ctx)
		}
	}
}

func (c *Council) runOnce(ctx context.Context) {
	report, err := c.Convene(ctx)
	if err != nil {
		if err == ErrAlreadyRunning {
			slog.Warn("council: skipping scheduled convene, one is already running")
			return
		}
		slog.Error("council: convene failed", "error", err)
		return
	}
	slog.Info("council: convene complete", "achieved", report.Achieved, "target", report.Target, "total_attempted", report.TotalAttempted)
}
