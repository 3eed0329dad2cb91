package database

import (
	"database/sql"
	"fmt"
	"log"
)

func schemaVersion(conn *sql.DB) (int, error) {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

// setSchemaVersion runs outside any transaction; modernc/sqlite ignores
// user_version changes made inside one.
func setSchemaVersion(conn *sql.DB, version int) error {
	if _, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("setting version %d: %w", version, err)
	}
	return nil
}

// hasChannelsTable detects stores written before schema versioning: they
// have a channels table but user_version 0.
func hasChannelsTable(conn *sql.DB) (bool, error) {
	var count int
	err := conn.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='channels'",
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking for channels table: %w", err)
	}
	return count > 0, nil
}

// migrate applies every migration newer than the stored user_version.
func migrate(conn *sql.DB) error {
	current, err := schemaVersion(conn)
	if err != nil {
		return err
	}

	if current == 0 {
		unversioned, err := hasChannelsTable(conn)
		if err != nil {
			return err
		}
		if unversioned {
			// Migration 1 is idempotent DDL, so it fills in whatever
			// tables an unversioned store is missing.
			log.Printf("detected unversioned channel database, replaying all migrations")
		}
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if err := apply(conn, m); err != nil {
			return err
		}
		current = m.Version
	}
	return nil
}

func apply(conn *sql.DB, m Migration) error {
	log.Printf("applying migration %d: %s", m.Version, m.Description)

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	if err := m.Up(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}
	return setSchemaVersion(conn, m.Version)
}
