package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 1

// Open opens (creating if needed) the SQLite database at path and applies
// migrations. Use ":memory:" for throwaway databases in tests.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite %s: pragmas: %w", path, err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate ensures the schema exists and is upgraded to SchemaVersion.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create users table: %w", err)
	}

	// level and mood are snapshot convenience columns; they are rewritten
	// from xp/health on every state update and never read as truth.
	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS plants (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 1,
			xp INTEGER NOT NULL DEFAULT 0,
			health INTEGER NOT NULL,
			soil_quality INTEGER NOT NULL,
			mood TEXT NOT NULL DEFAULT '',
			last_updated TEXT NOT NULL,
			created_at TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			FOREIGN KEY(user_id) REFERENCES users(id)
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create plants table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS interactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			plant_id TEXT NOT NULL,
			action_type TEXT NOT NULL,
			effect_value INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY(plant_id) REFERENCES plants(id)
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create interactions table: %w", err)
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_plants_user_id ON plants(user_id);`)
	if err != nil {
		return fmt.Errorf("migrate: create idx_plants_user_id: %w", err)
	}

	_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_interactions_plant_id_created ON interactions(plant_id, created_at);`)
	if err != nil {
		return fmt.Errorf("migrate: create idx_interactions_plant_id_created: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}
	return nil
}
