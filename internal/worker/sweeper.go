package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/observability"
)

// StartRevocationSweeper periodically purges naturally-expired entries from
// the revocation registry. The registry stays correct without it; the sweeper
// only bounds memory growth. Stops when ctx is cancelled.
func StartRevocationSweeper(ctx context.Context, blacklist *auth.Blacklist, interval time.Duration, metrics *observability.Metrics, logger *zap.Logger) {
	if blacklist == nil {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				removed := blacklist.SweepExpired(now)
				metrics.RecordSweep(removed)
				if removed > 0 {
					logger.Info("swept revoked tokens",
						zap.Int("removed", removed),
						zap.Int("remaining", blacklist.Len()),
					)
				}
			}
		}
	}()
}
