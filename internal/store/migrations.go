package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "turns: raw conversation turns per user",
		SQL: `
CREATE TABLE turns (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL,
    text           TEXT NOT NULL,
    emotion        TEXT NOT NULL DEFAULT '',
    themes         TEXT NOT NULL DEFAULT '[]',
    created_at     INTEGER NOT NULL
);

CREATE INDEX idx_turns_user    ON turns(user_id, created_at DESC);
`,
	},
	{
		Version:     2,
		Description: "memories: embedding records indexed for semantic recall",
		SQL: `
CREATE TABLE memories (
    id             INTEGER PRIMARY KEY,
    turn_id        TEXT NOT NULL,
    user_id        TEXT NOT NULL,
    embedding      BLOB,
    model          TEXT NOT NULL DEFAULT '',
    dimensions     INTEGER NOT NULL DEFAULT 0,
    themes         TEXT NOT NULL DEFAULT '[]',
    emotion        TEXT NOT NULL DEFAULT '',
    created_at     INTEGER NOT NULL,

    FOREIGN KEY (turn_id) REFERENCES turns(id) ON DELETE CASCADE
);

CREATE INDEX idx_memories_user ON memories(user_id, created_at DESC);
CREATE INDEX idx_memories_turn ON memories(turn_id);
`,
	},
	{
		Version:     3,
		Description: "facts: typed personal facts with conflict tracking",
		SQL: `
CREATE TABLE facts (
    id                INTEGER PRIMARY KEY,
    user_id           TEXT NOT NULL,
    fact_type         TEXT NOT NULL CHECK (fact_type IN ('name', 'job', 'location', 'relationship', 'preference', 'health', 'other')),
    value             TEXT NOT NULL,
    confidence        REAL NOT NULL CHECK (confidence > 0 AND confidence <= 1),
    source_turn_id    TEXT NOT NULL DEFAULT '',
    first_seen_at     INTEGER NOT NULL,
    last_confirmed_at INTEGER NOT NULL,

    UNIQUE (user_id, fact_type, value)
);

CREATE INDEX idx_facts_user ON facts(user_id, fact_type);
`,
	},
	{
		Version:     4,
		Description: "engagement: per-user rolling stress and session state",
		SQL: `
CREATE TABLE engagement (
    user_id              TEXT PRIMARY KEY,
    stress_score         REAL NOT NULL DEFAULT 30 CHECK (stress_score >= 0 AND stress_score <= 100),
    session_turn_count   INTEGER NOT NULL DEFAULT 0,
    turns_since_suggest  INTEGER NOT NULL DEFAULT 0,
    low_content_streak   INTEGER NOT NULL DEFAULT 0,
    session_started_at   INTEGER NOT NULL DEFAULT 0,
    last_turn_at         INTEGER NOT NULL DEFAULT 0,
    last_suggestion_at   INTEGER NOT NULL DEFAULT 0,
    updated_at           INTEGER NOT NULL DEFAULT 0
);
`,
	},
	{
		Version:     5,
		Description: "suggestions: append-only proactive suggestion log",
		SQL: `
CREATE TABLE suggestions (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL,
    kind           TEXT NOT NULL,
    reason         TEXT NOT NULL CHECK (reason IN ('high-stress', 'low-engagement', 'long-session')),
    triggered_at   INTEGER NOT NULL
);

CREATE INDEX idx_suggestions_user ON suggestions(user_id, triggered_at DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
