package repository

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS project_groups (
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL DEFAULT '',
		project  TEXT NOT NULL DEFAULT '',
		members  TEXT NOT NULL DEFAULT '[]',
		deadline TEXT,
		status   TEXT NOT NULL DEFAULT 'healthy'
	)`,
	`CREATE TABLE IF NOT EXISTS students (
		id    TEXT PRIMARY KEY,
		name  TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS contributions (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		student_id TEXT NOT NULL,
		group_id   TEXT NOT NULL DEFAULT '',
		task       TEXT NOT NULL DEFAULT '',
		action     TEXT NOT NULL DEFAULT '',
		hours      REAL NOT NULL CHECK(hours >= 0),
		timestamp  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_contributions_group ON contributions(group_id)`,
	`CREATE INDEX IF NOT EXISTS idx_contributions_student ON contributions(student_id)`,
	`CREATE TABLE IF NOT EXISTS milestones (
		seq         INTEGER PRIMARY KEY AUTOINCREMENT,
		id          TEXT NOT NULL DEFAULT '',
		group_id    TEXT NOT NULL,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		due_date    TEXT NOT NULL,
		status      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_milestones_group ON milestones(group_id)`,
	`CREATE TABLE IF NOT EXISTS communications (
		seq       INTEGER PRIMARY KEY AUTOINCREMENT,
		id        TEXT NOT NULL DEFAULT '',
		group_id  TEXT NOT NULL,
		sender    TEXT NOT NULL DEFAULT '',
		recipient TEXT NOT NULL DEFAULT '',
		message   TEXT NOT NULL DEFAULT '',
		tone      TEXT NOT NULL DEFAULT 'neutral',
		timestamp TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_communications_group ON communications(group_id)`,
	`CREATE TABLE IF NOT EXISTS health_snapshots (
		seq                INTEGER PRIMARY KEY AUTOINCREMENT,
		id                 TEXT NOT NULL,
		group_id           TEXT NOT NULL,
		health_score       REAL NOT NULL,
		status             TEXT NOT NULL,
		high_alerts        INTEGER NOT NULL DEFAULT 0,
		medium_alerts      INTEGER NOT NULL DEFAULT 0,
		participation_rate REAL NOT NULL DEFAULT 0,
		total_hours        REAL NOT NULL DEFAULT 0,
		recorded_at        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_health_snapshots_group ON health_snapshots(group_id, seq)`,
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
