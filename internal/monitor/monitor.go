package monitor

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/senseo-controller/internal/datadog"
	"github.com/thatsimonsguy/senseo-controller/internal/model"
	"github.com/thatsimonsguy/senseo-controller/internal/mqtt"
)

// StatusSource is satisfied by *senseo.Controller.
type StatusSource interface {
	Status(ctx context.Context) (model.Status, error)
}

var now = time.Now

// RunMonitor samples the machine every interval until ctx is cancelled. The
// returned channel is closed once the loop has exited.
func RunMonitor(ctx context.Context, source StatusSource, publisher mqtt.Publisher, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info().Dur("interval", interval).Msg("Starting machine monitor")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("Machine monitor stopped")
				return
			case <-ticker.C:
				sample(ctx, source, publisher)
			}
		}
	}()
	return done
}

// Start runs the monitor when interval is positive. Otherwise it returns an
// already closed channel so callers can wait on it unconditionally.
func Start(ctx context.Context, source StatusSource, publisher mqtt.Publisher, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		log.Info().Msg("Machine monitor disabled")
		done := make(chan struct{})
		close(done)
		return done
	}
	return RunMonitor(ctx, source, publisher, interval)
}

func sample(ctx context.Context, source StatusSource, publisher mqtt.Publisher) {
	st, err := source.Status(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("Could not sample machine status")
		}
		return
	}

	log.Debug().
		Bool("powered_on", st.PoweredOn).
		Bool("ready", st.Ready).
		Msg("Sampled machine status")

	datadog.ReportStatus(st)
	if err := publisher.PublishState(st, now()); err != nil {
		log.Warn().Err(err).Msg("Failed to publish machine state")
	}
}
