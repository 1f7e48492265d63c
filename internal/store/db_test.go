package store

import (
	"testing"
)

func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if db.Path != ":memory:" {
		t.Errorf("Path = %q, want :memory:", db.Path)
	}
}

func TestSchemaVersion(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 5 {
		t.Errorf("SchemaVersion = %d, want 5", v)
	}
}

func TestTablesExist(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	tables := []string{"schema_versions", "turns", "memories", "facts", "engagement", "suggestions"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestFactsConstraints(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	// Valid insert
	_, err = db.Exec(`
		INSERT INTO facts (user_id, fact_type, value, confidence, first_seen_at, last_confirmed_at)
		VALUES ('u1', 'name', 'asha', 0.9, 1000, 1000)
	`)
	if err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}

	// Invalid fact_type
	_, err = db.Exec(`
		INSERT INTO facts (user_id, fact_type, value, confidence, first_seen_at, last_confirmed_at)
		VALUES ('u1', 'invalid', 'x', 0.9, 1000, 1000)
	`)
	if err == nil {
		t.Error("expected error for invalid fact_type, got nil")
	}

	// Confidence out of range
	_, err = db.Exec(`
		INSERT INTO facts (user_id, fact_type, value, confidence, first_seen_at, last_confirmed_at)
		VALUES ('u1', 'job', 'teacher', 1.5, 1000, 1000)
	`)
	if err == nil {
		t.Error("expected error for confidence > 1, got nil")
	}
}

func TestSuggestionsConstraints(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	// Valid insert
	_, err = db.Exec(`
		INSERT INTO suggestions (id, user_id, kind, reason, triggered_at)
		VALUES ('s1', 'u1', 'riddle', 'high-stress', 1000)
	`)
	if err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}

	// Invalid reason
	_, err = db.Exec(`
		INSERT INTO suggestions (id, user_id, kind, reason, triggered_at)
		VALUES ('s2', 'u1', 'riddle', 'invalid', 1000)
	`)
	if err == nil {
		t.Error("expected error for invalid reason, got nil")
	}
}

func TestMemoriesCascade(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if err := db.InsertTurn(&Turn{ID: "t1", UserID: "u1", Text: "hello"}); err != nil {
		t.Fatalf("InsertTurn: %v", err)
	}
	if err := db.InsertMemory(&Memory{TurnID: "t1", UserID: "u1", Embedding: []float64{0.1, 0.2}}); err != nil {
		t.Fatalf("InsertMemory: %v", err)
	}

	if _, err := db.Exec("DELETE FROM turns WHERE id = 't1'"); err != nil {
		t.Fatalf("delete turn: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM memories WHERE turn_id = 't1'").Scan(&count); err != nil {
		t.Fatalf("count memories: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 memories after turn delete, got %d", count)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	// Running migrate again should be a no-op
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 5 {
		t.Errorf("SchemaVersion after re-migrate = %d, want 5", v)
	}
}

func TestWALMode(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	var mode string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	if err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	// In-memory databases may use "memory" mode instead of WAL
	if mode != "wal" && mode != "memory" {
		t.Errorf("journal_mode = %q, want wal or memory", mode)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	var fk int
	err = db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}
