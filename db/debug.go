package db

import (
	"fmt"

	"github.com/thatsimonsguy/senseo-controller/internal/model"
)

// SeedPinsCLI overwrites the registry with pins.
func SeedPinsCLI(dbPath string, pins model.PinConfig) error {
	conn, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()
	return SeedPins(conn, pins)
}

// ShowPinsCLI returns one "role=pin" line per role.
func ShowPinsCLI(dbPath string) ([]string, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	pins, err := GetPins(conn)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(model.Roles))
	for _, role := range model.Roles {
		pin, _ := pins.Pin(role)
		lines = append(lines, fmt.Sprintf("%s=%d", role, pin))
	}
	return lines, nil
}

// SyncPinsCLI brings the registry at dbPath in line with the configured pins.
func SyncPinsCLI(dbPath string, configured model.PinConfig) (model.PinConfig, error) {
	conn, err := Open(dbPath)
	if err != nil {
		return model.PinConfig{}, err
	}
	defer conn.Close()
	return SyncPins(conn, configured)
}
