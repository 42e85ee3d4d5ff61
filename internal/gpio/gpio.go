// Package gpio provides digital pin access with hardware abstraction.
// Backends shell out to the Raspberry Pi pinctrl tool or use the Linux GPIO
// character device. The fake backend allows testing without hardware.
package gpio

import "fmt"

const (
	Low  = false
	High = true
)

type Bias int

const (
	BiasDisabled Bias = iota
	PullUp
	PullDown
)

func (b Bias) String() string {
	switch b {
	case PullUp:
		return "pull-up"
	case PullDown:
		return "pull-down"
	default:
		return "disabled"
	}
}

// Driver reads and drives GPIO lines addressed by BCM number.
type Driver interface {
	// ConfigureOutput makes pin an output driven to initial.
	ConfigureOutput(pin int, initial bool) error

	// ConfigureInput makes pin an input with the given bias.
	ConfigureInput(pin int, bias Bias) error

	// Read returns true when the pin is high.
	Read(pin int) (bool, error)

	// Write drives an output pin high (true) or low (false).
	Write(pin int, level bool) error

	// Close releases GPIO resources.
	Close() error
}

const (
	KindPinctrl = "pinctrl"
	KindCdev    = "cdev"
)

// Open returns the driver backend named by kind. When safeMode is set all
// output operations are suppressed.
func Open(kind, chip string, safeMode bool) (Driver, error) {
	var (
		driver Driver
		err    error
	)

	switch kind {
	case "", KindPinctrl:
		driver = NewPinctrlDriver()
	case KindCdev:
		driver, err = NewCdevDriver(chip)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown gpio driver %q", kind)
	}

	if safeMode {
		return NewSafeDriver(driver), nil
	}
	return driver, nil
}
