package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/osakwee57-dev/My-attendance/internal/config"
	"github.com/osakwee57-dev/My-attendance/internal/session"
)

// StartSessionExpiryJob periodically closes sessions older than the
// configured max age. A HOC who forgets to close a session should not leave
// its code live indefinitely.
func StartSessionExpiryJob(ctx context.Context, cfg config.Config, ctrl *session.Controller, log *zap.SugaredLogger) {
	if !cfg.SessionExpiryEnabled {
		return
	}
	interval := cfg.SessionExpiryInterval
	if interval <= 0 {
		interval = time.Minute
	}
	maxAge := cfg.SessionMaxAge
	if maxAge <= 0 {
		maxAge = 3 * time.Hour
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				closed, err := ctrl.CloseExpired(tickCtx, maxAge)
				cancel()
				if err != nil {
					log.Errorw("session expiry job", "error", err)
					continue
				}
				if closed > 0 {
					log.Infow("session expiry job closed sessions", "count", closed)
				}
			}
		}
	}()
}
