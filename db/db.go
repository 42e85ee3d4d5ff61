package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/senseo-controller/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pins (
	role TEXT PRIMARY KEY,
	pin_number INTEGER NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Open opens (creating if needed) the SQLite pin registry at dbPath and applies
// the schema.
func Open(dbPath string) (*sql.DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := ApplySchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func ApplySchema(conn *sql.DB) error {
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// SeedPins writes every role of pins into the registry, replacing existing rows.
func SeedPins(conn *sql.DB, pins model.PinConfig) error {
	tx, err := StartTransaction(conn)
	if err != nil {
		return err
	}
	defer RollbackTransaction(tx)

	if _, err := tx.Exec(`DELETE FROM pins`); err != nil {
		return fmt.Errorf("failed to clear pins: %w", err)
	}
	for _, role := range model.Roles {
		pin, _ := pins.Pin(role)
		if err := upsertPin(tx, role, pin); err != nil {
			return err
		}
	}

	if err := CommitTransaction(tx); err != nil {
		return err
	}

	log.Info().Msg("Pin registry seeded from config")
	return nil
}

// SyncPins makes the registry match the configured mapping and returns it. The
// config file is authoritative: a registry left over from an older config is
// overwritten, with a warning naming both mappings.
func SyncPins(conn *sql.DB, configured model.PinConfig) (model.PinConfig, error) {
	count, err := CountPins(conn)
	if err != nil {
		return model.PinConfig{}, err
	}

	if count > 0 {
		registered, err := GetPins(conn)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("Pin registry unreadable, reseeding from config")
		case registered == configured:
			return registered, nil
		default:
			log.Warn().
				Str("registry", registered.String()).
				Str("config", configured.String()).
				Msg("Pin config changed since last start, updating registry")
		}
	}

	if err := SeedPins(conn, configured); err != nil {
		return model.PinConfig{}, err
	}
	return configured, nil
}
