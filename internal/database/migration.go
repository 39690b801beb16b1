package database

import (
	"fmt"
	"log"
	"time"
)

type migration struct {
	version    int
	name       string
	statements []string
}

// migrations are applied in order and never edited once released; add a new version instead
var migrations = []migration{
	{
		version: 1,
		name:    "create prices table",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS prices (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp    TEXT    NOT NULL,
				brand        TEXT    NOT NULL,
				model        TEXT    NOT NULL,
				fuel         TEXT    NOT NULL DEFAULT '',
				transmission TEXT    NOT NULL DEFAULT '',
				variant      TEXT    NOT NULL DEFAULT '',
				price        INTEGER NOT NULL CHECK (price > 0),
				source       TEXT    NOT NULL CHECK (source IN ('scraped', 'manual'))
			)`,
			`CREATE INDEX IF NOT EXISTS idx_timestamp ON prices(timestamp)`,
		},
	},
	{
		version:    2,
		name:       "index brand and model for history",
		statements: []string{`CREATE INDEX IF NOT EXISTS idx_brand_model ON prices(brand, model)`},
	},
	{
		version:    3,
		name:       "index source",
		statements: []string{`CREATE INDEX IF NOT EXISTS idx_source ON prices(source, timestamp)`},
	},
}

// Init creates the schema and applies any pending migrations. Safe to call repeatedly.
func (d *Database) Init() error {
	if _, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	current, err := d.SchemaVersion()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := d.apply(m); err != nil {
			return err
		}
		log.Printf("🗄️  Applied migration %d: %s", m.version, m.name)
	}
	return nil
}

// SchemaVersion returns the highest applied migration version, 0 for a fresh database
func (d *Database) SchemaVersion() (int, error) {
	var version int
	if err := d.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (d *Database) apply(m migration) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
		m.version, m.name, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}
