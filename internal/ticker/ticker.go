package ticker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Refresher schedules a reload of all configured sources.
type Refresher interface {
	TriggerRefresh()
}

// Ticker periodically requests a source refresh so dashboards stay
// current without anyone pressing the refresh button.
type Ticker struct {
	refresher Refresher
	interval  time.Duration
	logger    zerolog.Logger
}

// NewTicker creates a new Ticker
func NewTicker(refresher Refresher, interval time.Duration, logger zerolog.Logger) *Ticker {
	return &Ticker{
		refresher: refresher,
		interval:  interval,
		logger:    logger,
	}
}

// Start begins scheduling refreshes until the context is cancelled
func (t *Ticker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info().Dur("interval", t.interval).Msg("auto-refresh ticker started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("auto-refresh ticker stopped")
			return

		case now := <-ticker.C:
			t.refresher.TriggerRefresh()
			t.logger.Debug().
				Str("at", now.Format(time.RFC3339)).
				Msg("scheduled refresh")
		}
	}
}
