package senseo

import (
	"errors"
	"fmt"
)

const (
	ReasonNotPoweredOn = "not powered on"
	ReasonNotReady     = "not ready"
)

// ConfigurationError reports a missing or unusable pin mapping or timing setting.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Reason
}

// InvalidSizeError is returned by Brew for any size other than one or two mugs.
type InvalidSizeError struct {
	Size int
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("invalid coffee size requested: %d, only 1 or 2 are accepted", e.Size)
}

// PreconditionError is returned by Brew when the machine is off or still heating.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "coffee machine is " + e.Reason
}

type Kind int

const (
	KindNone Kind = iota
	KindConfiguration
	KindInvalidSize
	KindPrecondition
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfiguration:
		return "configuration"
	case KindInvalidSize:
		return "invalid_size"
	case KindPrecondition:
		return "precondition"
	default:
		return "unexpected"
	}
}

// KindOf classifies err so callers can pick a response without type switches of their own.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var cfgErr *ConfigurationError
	var sizeErr *InvalidSizeError
	var preErr *PreconditionError

	switch {
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &sizeErr):
		return KindInvalidSize
	case errors.As(err, &preErr):
		return KindPrecondition
	default:
		return KindUnexpected
	}
}
