// Package store provides SQLite-backed persistence for per-guild Pulse state:
// guild configuration, the ClickUp space allow-list, responsable channel
// mappings and the admin action history.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Store provides SQLite-backed persistence for Pulse state.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS guilds (
	guild_id TEXT PRIMARY KEY,
	clickup_token_enc TEXT NOT NULL DEFAULT '',
	team_id TEXT NOT NULL DEFAULT '',
	default_space_id TEXT NOT NULL DEFAULT '',
	default_list_id TEXT NOT NULL DEFAULT '',
	timezone TEXT NOT NULL DEFAULT '',
	admin_role_id TEXT NOT NULL DEFAULT '',
	morning_time TEXT NOT NULL DEFAULT '',
	digest_time TEXT NOT NULL DEFAULT '',
	overdue_time TEXT NOT NULL DEFAULT '',
	tomorrow_time TEXT NOT NULL DEFAULT '',
	stats_time TEXT NOT NULL DEFAULT '',
	completed_time TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS guild_projects (
	guild_id TEXT NOT NULL,
	space_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (guild_id, space_id)
);

CREATE TABLE IF NOT EXISTS responsables (
	guild_id TEXT NOT NULL,
	name TEXT NOT NULL,
	channel_id TEXT NOT NULL DEFAULT '',
	member_ids TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (guild_id, name)
);

CREATE TABLE IF NOT EXISTS admin_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	guild_id TEXT NOT NULL,
	actor_id TEXT NOT NULL,
	action TEXT NOT NULL,
	details TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_responsables_channel ON responsables(guild_id, channel_id);
CREATE INDEX IF NOT EXISTS idx_history_guild ON admin_history(guild_id, created_at);
`

// Open creates or opens a SQLite database at the given path and ensures the schema exists.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// migrate applies incremental schema migrations for existing databases.
func migrate(db *sql.DB) error {
	// Add admin_role_id column if it doesn't exist (for databases created
	// before admin-role gating was added).
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('guilds') WHERE name = 'admin_role_id'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("check admin_role_id column: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE guilds ADD COLUMN admin_role_id TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("add admin_role_id column: %w", err)
		}
	}

	// Add completed_time column if it doesn't exist.
	err = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('guilds') WHERE name = 'completed_time'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("check completed_time column: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE guilds ADD COLUMN completed_time TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("add completed_time column: %w", err)
		}
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
