// Package reaper periodically purges expired sessions from the session store.
package reaper

import (
	"context"
	"time"

	"github.com/YousefAdel777/chatter-backend-sub000/internal/logging"
)

// ExpiredDeleter removes sessions whose expiry is at or before now.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Reaper struct {
	store    ExpiredDeleter
	interval time.Duration
	logger   logging.Logger
	now      func() time.Time
}

// New returns a Reaper that sweeps every interval. A non-positive interval
// makes Run return immediately.
func New(store ExpiredDeleter, interval time.Duration, logger logging.Logger) *Reaper {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Reaper{
		store:    store,
		interval: interval,
		logger:   logger.With("module", "reaper"),
		now:      time.Now,
	}
}

// Sweep runs a single purge and returns the number of removed sessions.
func (r *Reaper) Sweep(ctx context.Context) (int64, error) {
	n, err := r.store.DeleteExpired(ctx, r.now())
	if err != nil {
		r.logger.Error(ctx, "expired session sweep failed", "error", err)
		return 0, err
	}
	if n > 0 {
		r.logger.Info(ctx, "expired sessions removed", "count", n)
	}
	return n, nil
}

// Run sweeps on every tick until ctx is done. Sweep failures are logged and
// do not stop the loop.
func (r *Reaper) Run(ctx context.Context) error {
	if r.interval <= 0 {
		r.logger.Info(ctx, "session reaper disabled")
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = r.Sweep(ctx)
		}
	}
}
