package harvester

import (
	"context"
	"log/slog"
	"time"
)

// RunForever ticks the harvester's pending-session state machine every
// tickInterval until ctx is cancelled. tickInterval governs how often
// Tick is polled, not the refresh cadence — Cfg.RefreshInterval and
// Cfg.MinWaitAfterCreate decide whether a given tick actually does
// anything.
func (h *Harvester) RunForever(ctx context.Context, tickInterval time.Duration) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.Tick(ctx); err != nil {
				slog.Error("harvester: tick failed", "error", err)
			}
		}
	}
}
