package shutdown

import (
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/senseo-controller/internal/datadog"
)

var exit = os.Exit

// Shutdown releases resources in the order given and exits cleanly. The
// machine controller goes first so the button pins are driven low before
// anything else; the log file goes last.
func Shutdown(resources ...io.Closer) {
	log.Info().Msg("Releasing coffee machine and exiting")
	release(resources)
	exit(0)
}

func ShutdownWithError(err error, msg string, resources ...io.Closer) {
	log.Error().Err(err).Msg(msg)
	release(resources)
	exit(1)
}

func release(resources []io.Closer) {
	for _, r := range resources {
		if r == nil {
			continue
		}
		if err := r.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to release resource during shutdown")
		}
	}
	datadog.Close()
}
