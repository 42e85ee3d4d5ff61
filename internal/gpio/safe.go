package gpio

import "github.com/rs/zerolog/log"

// SafeDriver passes reads through to the wrapped driver and swallows every
// operation that would drive a pin.
type SafeDriver struct {
	Driver
}

func NewSafeDriver(d Driver) *SafeDriver {
	return &SafeDriver{Driver: d}
}

func (d *SafeDriver) ConfigureOutput(pin int, initial bool) error {
	log.Debug().Int("pin", pin).Bool("initial", initial).Msg("Safe mode: skipping output configuration")
	return nil
}

func (d *SafeDriver) Write(pin int, level bool) error {
	log.Info().Int("pin", pin).Bool("level", level).Msg("Safe mode: suppressed pin write")
	return nil
}
