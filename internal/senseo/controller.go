// Package senseo drives a Senseo Classic coffee machine through four GPIO
// lines: three outputs wired across the power, one-mug and two-mug buttons,
// and one input sensing the front LED.
//
// The machine's state is never stored. Every query re-polls the LED:
//
//	OFF -> (press power) -> HEATING (LED blinks) -> READY (LED steady) -> (press mug) -> BREWING
//
// The LED heuristic cannot tell a slowly blinking LED from one that is off when
// the blink period exceeds the poll window.
package senseo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/senseo-controller/internal/gpio"
	"github.com/thatsimonsguy/senseo-controller/internal/model"
)

// Controller owns the machine's pins. All operations are serialized, so
// concurrent callers never interleave presses.
type Controller struct {
	mu     sync.Mutex
	pins   model.PinConfig
	driver gpio.Driver
	poller Poller
	press  time.Duration
}

type Option func(*Controller)

// WithPoller replaces the poll policy. A nil Sleep falls back to ContextSleep.
func WithPoller(p Poller) Option {
	return func(c *Controller) {
		if p.Sleep == nil {
			p.Sleep = ContextSleep
		}
		c.poller = p
	}
}

// WithSleep replaces the sleep used between polls and while holding a button.
func WithSleep(sleep SleepFunc) Option {
	return func(c *Controller) {
		c.poller.Sleep = sleep
	}
}

func WithPressDuration(d time.Duration) Option {
	return func(c *Controller) {
		c.press = d
	}
}

// ValidatePins checks that every role has a header pin of its own.
func ValidatePins(pins model.PinConfig) error {
	used := map[int]model.PinRole{}
	for _, role := range model.Roles {
		pin, _ := pins.Pin(role)
		if pin < 0 || pin > model.MaxPin {
			return &ConfigurationError{Reason: fmt.Sprintf("%s uses pin %d outside 0..%d", role, pin, model.MaxPin)}
		}
		if other, exists := used[pin]; exists {
			return &ConfigurationError{Reason: fmt.Sprintf("%s and %s both use pin %d", other, role, pin)}
		}
		used[pin] = role
	}
	return nil
}

// New configures the button pins as outputs driven low and the LED pin as an
// input with pull-up, then returns a controller bound to them.
func New(pins model.PinConfig, driver gpio.Driver, opts ...Option) (*Controller, error) {
	if err := ValidatePins(pins); err != nil {
		return nil, err
	}

	c := &Controller{
		pins:   pins,
		driver: driver,
		poller: DefaultPoller(),
		press:  DefaultPressDuration,
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, pin := range pins.Buttons() {
		if err := driver.ConfigureOutput(pin, gpio.Low); err != nil {
			return nil, fmt.Errorf("setup button pin: %w", err)
		}
	}
	if err := driver.ConfigureInput(pins.LED, gpio.PullUp); err != nil {
		return nil, fmt.Errorf("setup led pin: %w", err)
	}

	log.Info().
		Int("power_button", pins.PowerButton).
		Int("one_mug_button", pins.OneMugButton).
		Int("two_mug_button", pins.TwoMugButton).
		Int("led", pins.LED).
		Msg("Coffee machine setup is ready")

	return c, nil
}

func (c *Controller) Pins() model.PinConfig {
	return c.pins
}

// IsLEDOn performs a single read of the LED pin.
func (c *Controller) IsLEDOn(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.isLEDOn()
}

func (c *Controller) isLEDOn() (bool, error) {
	on, err := c.driver.Read(c.pins.LED)
	if err != nil {
		return false, fmt.Errorf("read led: %w", err)
	}
	log.Debug().Bool("led", on).Msg("Read LED")
	return on, nil
}

// IsPoweredOn reports true as soon as the LED is seen lit. A blinking LED is
// caught during one of its lit phases.
func (c *Controller) IsPoweredOn(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isPoweredOn(ctx)
}

func (c *Controller) isPoweredOn(ctx context.Context) (bool, error) {
	on, err := c.poller.Until(ctx, c.isLEDOn, true)
	if err != nil {
		return false, fmt.Errorf("check power: %w", err)
	}
	log.Debug().Bool("powered_on", on).Msg("Checked power status of coffee machine")
	return on, nil
}

// IsReady reports true only if the LED stays lit for every poll. The first
// dark read means the machine is still heating.
func (c *Controller) IsReady(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isReady(ctx)
}

func (c *Controller) isReady(ctx context.Context) (bool, error) {
	sawDark, err := c.poller.Until(ctx, c.isLEDOn, false)
	if err != nil {
		return false, fmt.Errorf("check readiness: %w", err)
	}
	log.Debug().Bool("ready", !sawDark).Msg("Checked readiness of coffee machine")
	return !sawDark, nil
}

// Status polls power and, only when powered, readiness.
func (c *Controller) Status(ctx context.Context) (model.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var st model.Status
	on, err := c.isPoweredOn(ctx)
	if err != nil {
		return st, err
	}
	st.PoweredOn = on
	if !on {
		return st, nil
	}

	ready, err := c.isReady(ctx)
	if err != nil {
		return st, err
	}
	st.Ready = ready
	return st, nil
}

// SinglePress holds a button pin high for the press duration.
func (c *Controller) SinglePress(ctx context.Context, pin int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	isButton := false
	for _, b := range c.pins.Buttons() {
		if b == pin {
			isButton = true
		}
	}
	if !isButton {
		return fmt.Errorf("pin %d is not a button pin", pin)
	}
	return c.singlePress(ctx, pin)
}

// singlePress always attempts the release, even when the hold is cut short.
func (c *Controller) singlePress(ctx context.Context, pin int) error {
	log.Info().Int("pin", pin).Dur("hold", c.press).Msg("Pressing button")

	if err := c.driver.Write(pin, gpio.High); err != nil {
		return fmt.Errorf("press pin %d: %w", pin, err)
	}
	holdErr := c.poller.Sleep(ctx, c.press)
	if err := c.driver.Write(pin, gpio.Low); err != nil {
		return fmt.Errorf("release pin %d: %w", pin, err)
	}
	if holdErr != nil {
		return fmt.Errorf("hold pin %d: %w", pin, holdErr)
	}

	log.Debug().Int("pin", pin).Msg("Button was successfully pressed")
	return nil
}

// Start presses power unless the machine is already on.
func (c *Controller) Start(ctx context.Context) error {
	_, err := c.SetPower(ctx, true)
	return err
}

// Stop presses power only if the machine is on.
func (c *Controller) Stop(ctx context.Context) error {
	_, err := c.SetPower(ctx, false)
	return err
}

// SetPower polls power once and presses the power button when the machine is
// not in the requested state.
func (c *Controller) SetPower(ctx context.Context, on bool) (model.PowerChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	powered, err := c.isPoweredOn(ctx)
	if err != nil {
		return model.PowerChangeNone, err
	}

	switch {
	case on && !powered:
		log.Info().Msg("Pressing power button to startup")
		if err := c.singlePress(ctx, c.pins.PowerButton); err != nil {
			return model.PowerChangeNone, err
		}
		return model.PowerChangeOn, nil
	case !on && powered:
		log.Info().Msg("Pressing power button to shutdown")
		if err := c.singlePress(ctx, c.pins.PowerButton); err != nil {
			return model.PowerChangeNone, err
		}
		return model.PowerChangeOff, nil
	default:
		log.Debug().Bool("requested", on).Msg("Coffee machine already in requested power state")
		return model.PowerChangeNone, nil
	}
}

// Brew presses the mug button for size once the machine is on and heated.
// Size, power and readiness are checked in that order on every call.
func (c *Controller) Brew(ctx context.Context, size int) error {
	var pin int
	switch size {
	case 1:
		pin = c.pins.OneMugButton
	case 2:
		pin = c.pins.TwoMugButton
	default:
		return &InvalidSizeError{Size: size}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	on, err := c.isPoweredOn(ctx)
	if err != nil {
		return err
	}
	if !on {
		return &PreconditionError{Reason: ReasonNotPoweredOn}
	}

	ready, err := c.isReady(ctx)
	if err != nil {
		return err
	}
	if !ready {
		return &PreconditionError{Reason: ReasonNotReady}
	}

	log.Info().Int("size", size).Msg("Requesting coffee run")
	return c.singlePress(ctx, pin)
}

// Close drives every button low and releases the driver.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, pin := range c.pins.Buttons() {
		if err := c.driver.Write(pin, gpio.Low); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.driver.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("release pins: %v", errs)
	}
	return nil
}
