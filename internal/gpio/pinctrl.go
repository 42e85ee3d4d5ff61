package gpio

import (
	"fmt"

	"github.com/thatsimonsguy/senseo-controller/internal/pinctrl"
)

// PinctrlDriver drives pins through the Raspberry Pi pinctrl tool. Pin state
// lives in the kernel, so there is nothing to release on Close.
type PinctrlDriver struct {
	setPin    func(pin int, opts ...string) error
	readLevel func(pin int) (bool, error)
}

func NewPinctrlDriver() *PinctrlDriver {
	return &PinctrlDriver{
		setPin:    pinctrl.SetPin,
		readLevel: pinctrl.ReadLevel,
	}
}

func driveOpt(level bool) string {
	if level {
		return "dh"
	}
	return "dl"
}

func pullOpt(bias Bias) string {
	switch bias {
	case PullUp:
		return "pu"
	case PullDown:
		return "pd"
	default:
		return "pn"
	}
}

func (d *PinctrlDriver) ConfigureOutput(pin int, initial bool) error {
	if err := d.setPin(pin, "op", "pn", driveOpt(initial)); err != nil {
		return fmt.Errorf("configure output pin %d: %w", pin, err)
	}
	return nil
}

func (d *PinctrlDriver) ConfigureInput(pin int, bias Bias) error {
	if err := d.setPin(pin, "ip", pullOpt(bias)); err != nil {
		return fmt.Errorf("configure input pin %d: %w", pin, err)
	}
	return nil
}

func (d *PinctrlDriver) Read(pin int) (bool, error) {
	return d.readLevel(pin)
}

func (d *PinctrlDriver) Write(pin int, level bool) error {
	if err := d.setPin(pin, "op", "pn", driveOpt(level)); err != nil {
		return fmt.Errorf("write pin %d: %w", pin, err)
	}
	return nil
}

func (d *PinctrlDriver) Close() error {
	return nil
}
