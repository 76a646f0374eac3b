package session

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	upSQL   string
}

// Session schema: a key/value state table (the dashboard's localStorage
// analogue) and the local mutation history log.
var migrations = []migration{
	{
		version: 1,
		name:    "001_state",
		upSQL: `CREATE TABLE IF NOT EXISTS state(
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`,
	},
	{
		version: 2,
		name:    "002_history",
		upSQL: `CREATE TABLE IF NOT EXISTS history(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	action TEXT NOT NULL,
	process_type TEXT NOT NULL,
	process_id INTEGER NOT NULL,
	country_code TEXT NOT NULL DEFAULT '',
	payload_json TEXT NOT NULL DEFAULT '{}'
);`,
	},
}

// migrate applies pending schema migrations in order.
func migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version(version INTEGER NOT NULL);`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}
	var current int
	err = tx.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&current)
	if err == sql.ErrNoRows {
		if _, err := tx.Exec(`INSERT INTO schema_version(version) VALUES (0)`); err != nil {
			return fmt.Errorf("init schema_version: %w", err)
		}
		current = 0
	} else if err != nil {
		return fmt.Errorf("read schema_version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := tx.Exec(m.upSQL); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
		if _, err := tx.Exec(`UPDATE schema_version SET version=?`, m.version); err != nil {
			return fmt.Errorf("update schema_version: %w", err)
		}
		current = m.version
	}
	return tx.Commit()
}
