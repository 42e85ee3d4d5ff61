// Package simulator plays the coffee machine side of the wiring so the API can
// be exercised against a second Raspberry Pi. Pin directions are the reverse of
// the controller: buttons are read, the LED is driven.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/senseo-controller/internal/gpio"
	"github.com/thatsimonsguy/senseo-controller/internal/model"
	"github.com/thatsimonsguy/senseo-controller/internal/senseo"
)

const (
	BlinkHalfPeriod = 500 * time.Millisecond
	ReadInterval    = 500 * time.Millisecond
	HeartbeatPeriod = time.Second
)

// Buttons is one sample of the three button lines.
type Buttons struct {
	Power  bool
	OneMug bool
	TwoMug bool
}

type Simulator struct {
	pins   model.PinConfig
	driver gpio.Driver
	sleep  senseo.SleepFunc
}

func New(pins model.PinConfig, driver gpio.Driver, sleep senseo.SleepFunc) (*Simulator, error) {
	if err := senseo.ValidatePins(pins); err != nil {
		return nil, err
	}
	if sleep == nil {
		sleep = senseo.ContextSleep
	}

	for _, pin := range pins.Buttons() {
		if err := driver.ConfigureInput(pin, gpio.PullDown); err != nil {
			return nil, fmt.Errorf("setup button pin: %w", err)
		}
	}
	if err := driver.ConfigureOutput(pins.LED, gpio.Low); err != nil {
		return nil, fmt.Errorf("setup led pin: %w", err)
	}

	log.Info().Msg("Coffee machine simulator setup is ready")
	return &Simulator{pins: pins, driver: driver, sleep: sleep}, nil
}

// On blinks the LED like a heating machine until ctx is done.
func (s *Simulator) On(ctx context.Context) error {
	log.Debug().Msg("Coffee machine is ON and heating")
	for {
		for _, level := range []bool{gpio.High, gpio.Low} {
			if err := s.driver.Write(s.pins.LED, level); err != nil {
				return err
			}
			log.Debug().Bool("led", level).Msg("Current status for LED")
			if err := s.sleep(ctx, BlinkHalfPeriod); err != nil {
				return done(err)
			}
		}
	}
}

// Heat holds the LED solid like a ready machine until ctx is done.
func (s *Simulator) Heat(ctx context.Context) error {
	if err := s.driver.Write(s.pins.LED, gpio.High); err != nil {
		return err
	}
	log.Debug().Msg("Coffee machine is ON and ready")
	for {
		if err := s.sleep(ctx, HeartbeatPeriod); err != nil {
			return done(err)
		}
		log.Debug().Bool("led", gpio.High).Msg("Current status for LED")
	}
}

func (s *Simulator) Off() error {
	if err := s.driver.Write(s.pins.LED, gpio.Low); err != nil {
		return err
	}
	log.Debug().Msg("Coffee machine is now OFF")
	return nil
}

// Read lights the LED then reports the button levels every ReadInterval.
func (s *Simulator) Read(ctx context.Context, report func(Buttons)) error {
	if err := s.driver.Write(s.pins.LED, gpio.High); err != nil {
		return err
	}
	if err := s.sleep(ctx, ReadInterval); err != nil {
		return done(err)
	}

	log.Debug().Msg("Reading inputs for coffee machine buttons")
	for {
		b, err := s.sample()
		if err != nil {
			return err
		}
		report(b)
		if err := s.sleep(ctx, ReadInterval); err != nil {
			return done(err)
		}
	}
}

func (s *Simulator) sample() (Buttons, error) {
	var b Buttons
	var err error
	if b.Power, err = s.driver.Read(s.pins.PowerButton); err != nil {
		return b, err
	}
	if b.OneMug, err = s.driver.Read(s.pins.OneMugButton); err != nil {
		return b, err
	}
	if b.TwoMug, err = s.driver.Read(s.pins.TwoMugButton); err != nil {
		return b, err
	}
	return b, nil
}

// Close drives the LED low and releases the driver.
func (s *Simulator) Close() error {
	errLED := s.driver.Write(s.pins.LED, gpio.Low)
	return errors.Join(errLED, s.driver.Close())
}

// done maps cancellation to a clean stop.
func done(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
