//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

const DefaultChip = "gpiochip0"

// CdevDriver drives pins through the Linux GPIO character device. Each pin is
// requested from the chip on first configuration and held until Close.
type CdevDriver struct {
	mu    sync.Mutex
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

func NewCdevDriver(chipName string) (*CdevDriver, error) {
	if chipName == "" {
		chipName = DefaultChip
	}
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("senseo-api"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}
	return &CdevDriver{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line),
	}, nil
}

func lineValue(level bool) int {
	if level {
		return 1
	}
	return 0
}

func biasOption(bias Bias) gpiocdev.LineReqOption {
	switch bias {
	case PullUp:
		return gpiocdev.WithPullUp
	case PullDown:
		return gpiocdev.WithPullDown
	default:
		return gpiocdev.WithBiasDisabled
	}
}

func (d *CdevDriver) configure(pin int, opts ...gpiocdev.LineReqOption) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if line, ok := d.lines[pin]; ok {
		cfgOpts := make([]gpiocdev.LineConfigOption, 0, len(opts))
		for _, opt := range opts {
			if co, ok := opt.(gpiocdev.LineConfigOption); ok {
				cfgOpts = append(cfgOpts, co)
			}
		}
		return line.Reconfigure(cfgOpts...)
	}

	line, err := d.chip.RequestLine(pin, opts...)
	if err != nil {
		return err
	}
	d.lines[pin] = line
	return nil
}

func (d *CdevDriver) ConfigureOutput(pin int, initial bool) error {
	if err := d.configure(pin, gpiocdev.AsOutput(lineValue(initial))); err != nil {
		return fmt.Errorf("configure output pin %d: %w", pin, err)
	}
	return nil
}

func (d *CdevDriver) ConfigureInput(pin int, bias Bias) error {
	if err := d.configure(pin, gpiocdev.AsInput, biasOption(bias)); err != nil {
		return fmt.Errorf("configure input pin %d: %w", pin, err)
	}
	return nil
}

func (d *CdevDriver) line(pin int) (*gpiocdev.Line, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	line, ok := d.lines[pin]
	if !ok {
		return nil, fmt.Errorf("pin %d is not configured", pin)
	}
	return line, nil
}

func (d *CdevDriver) Read(pin int) (bool, error) {
	line, err := d.line(pin)
	if err != nil {
		return false, err
	}
	v, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", pin, err)
	}
	return v != 0, nil
}

func (d *CdevDriver) Write(pin int, level bool) error {
	line, err := d.line(pin)
	if err != nil {
		return err
	}
	if err := line.SetValue(lineValue(level)); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

// Close returns every requested line to input with pull-down, matching the Pi
// boot defaults, then releases the lines and the chip.
func (d *CdevDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for pin, line := range d.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
		delete(d.lines, pin)
	}
	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		d.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
