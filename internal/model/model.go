package model

import (
	"fmt"
	"strings"
)

type PinRole string

const (
	RolePowerButton  PinRole = "power_button"
	RoleOneMugButton PinRole = "1_mug_button"
	RoleTwoMugButton PinRole = "2_mug_button"
	RoleLED          PinRole = "led"
)

// Roles lists every pin role in configuration order.
var Roles = []PinRole{RolePowerButton, RoleOneMugButton, RoleTwoMugButton, RoleLED}

// MaxPin is the highest BCM GPIO number broken out on the Raspberry Pi header.
const MaxPin = 27

// PinConfig binds each logical role of the machine to a BCM pin number.
type PinConfig struct {
	PowerButton  int `json:"power_button"`
	OneMugButton int `json:"1_mug_button"`
	TwoMugButton int `json:"2_mug_button"`
	LED          int `json:"led"`
}

func (p PinConfig) Pin(role PinRole) (int, bool) {
	switch role {
	case RolePowerButton:
		return p.PowerButton, true
	case RoleOneMugButton:
		return p.OneMugButton, true
	case RoleTwoMugButton:
		return p.TwoMugButton, true
	case RoleLED:
		return p.LED, true
	default:
		return 0, false
	}
}

func (p *PinConfig) SetPin(role PinRole, pin int) error {
	switch role {
	case RolePowerButton:
		p.PowerButton = pin
	case RoleOneMugButton:
		p.OneMugButton = pin
	case RoleTwoMugButton:
		p.TwoMugButton = pin
	case RoleLED:
		p.LED = pin
	default:
		return fmt.Errorf("unknown pin role %q", role)
	}
	return nil
}

// Buttons returns the output pins in role order.
// String renders the mapping as "role=pin" pairs in role order.
func (p PinConfig) String() string {
	parts := make([]string, 0, len(Roles))
	for _, role := range Roles {
		pin, _ := p.Pin(role)
		parts = append(parts, fmt.Sprintf("%s=%d", role, pin))
	}
	return strings.Join(parts, " ")
}

func (p PinConfig) Buttons() []int {
	return []int{p.PowerButton, p.OneMugButton, p.TwoMugButton}
}

// Status is a snapshot of the machine as inferred from the LED.
type Status struct {
	PoweredOn bool `json:"is_powered_on"`
	Ready     bool `json:"is_ready"`
}

type PowerChange string

const (
	PowerChangeNone PowerChange = "none"
	PowerChangeOn   PowerChange = "powering_on"
	PowerChangeOff  PowerChange = "powering_off"
)
