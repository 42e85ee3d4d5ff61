package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/thatsimonsguy/senseo-controller/internal/model"
)

// StartTransaction starts a new database transaction.
func StartTransaction(db *sql.DB) (*sql.Tx, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

// CommitTransaction commits the given transaction.
func CommitTransaction(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the given transaction.
func RollbackTransaction(tx *sql.Tx) {
	tx.Rollback()
}

func upsertPin(tx *sql.Tx, role model.PinRole, pin int) error {
	_, err := tx.Exec(`INSERT OR REPLACE INTO pins (role, pin_number, updated_at) VALUES (?, ?, ?)`,
		string(role), pin, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write pin %s: %w", role, err)
	}
	return nil
}
