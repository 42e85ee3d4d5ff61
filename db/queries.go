package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/thatsimonsguy/senseo-controller/internal/model"
)

// CountPins returns the number of registered roles.
func CountPins(conn *sql.DB) (int, error) {
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM pins`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count pins: %w", err)
	}
	return n, nil
}

// GetPin retrieves the pin bound to a single role.
func GetPin(conn *sql.DB, role model.PinRole) (int, error) {
	var pin int
	err := conn.QueryRow(`SELECT pin_number FROM pins WHERE role = ?`, string(role)).Scan(&pin)
	if err != nil {
		return 0, fmt.Errorf("failed to get pin for %s: %w", role, err)
	}
	return pin, nil
}

// GetPins retrieves the full mapping. Every role must be present.
func GetPins(conn *sql.DB) (model.PinConfig, error) {
	var pins model.PinConfig

	rows, err := conn.Query(`SELECT role, pin_number FROM pins`)
	if err != nil {
		return pins, fmt.Errorf("failed to query pins: %w", err)
	}
	defer rows.Close()

	seen := map[model.PinRole]bool{}
	for rows.Next() {
		var role string
		var pin int
		if err := rows.Scan(&role, &pin); err != nil {
			return pins, fmt.Errorf("failed to scan pin: %w", err)
		}
		if err := pins.SetPin(model.PinRole(role), pin); err != nil {
			return pins, err
		}
		seen[model.PinRole(role)] = true
	}
	if err := rows.Err(); err != nil {
		return pins, fmt.Errorf("failed to read pins: %w", err)
	}

	var missing []string
	for _, role := range model.Roles {
		if !seen[role] {
			missing = append(missing, string(role))
		}
	}
	if len(missing) > 0 {
		return pins, fmt.Errorf("pin registry missing roles: %s", strings.Join(missing, ", "))
	}
	return pins, nil
}
