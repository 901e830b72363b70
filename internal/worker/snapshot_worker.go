package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SnapshotLoader refreshes the settings snapshot cache.
type SnapshotLoader interface {
	Refresh(ctx context.Context) error
}

// StartSnapshotWarmer reloads the settings snapshot every interval until ctx
// ends, so request paths rarely pay for a cache miss.
func StartSnapshotWarmer(ctx context.Context, loader SnapshotLoader, interval time.Duration, logger *zap.Logger) {
	if loader == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := loader.Refresh(ctx); err != nil && ctx.Err() == nil {
					logger.Warn("snapshot refresh failed", zap.Error(err))
				}
			}
		}
	}()
}
