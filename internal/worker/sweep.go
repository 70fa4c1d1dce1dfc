package worker

// sweep.go
// Background goroutine that periodically cancels preparations whose prepare
// date has passed without checking ever starting. The same sweep also runs
// inline before prepare listings, so this loop only bounds staleness for
// batches nobody is looking at.

import (
	"context"
	"time"

	"github.com/jusondac/factory-app/internal/service"

	"github.com/rs/zerolog/log"
)

// StartSweep launches a goroutine that cancels outdated preparations on a
// fixed interval. It respects the context for graceful shutdown.
func StartSweep(ctx context.Context, prepares service.PrepareService, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("sweep: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("sweep: shutting down")
				return
			case <-ticker.C:
				n, err := prepares.CancelOutdated(ctx)
				if err != nil {
					log.Error().Err(err).Msg("sweep: cancel outdated preparations")
					continue
				}
				if n > 0 {
					log.Info().Int64("cancelled", n).Msg("sweep: cancelled outdated preparations")
				}
			}
		}
	}()
}
