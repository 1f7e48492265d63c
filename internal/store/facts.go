package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Fact is a durable statement about a user, extracted from conversation.
type Fact struct {
	ID              int64
	UserID          string
	Type            string
	Value           string
	Confidence      float64
	SourceTurnID    string
	FirstSeenAt     int64
	LastConfirmedAt int64
}

// Fact types. Single-valued types hold one current value per user; the
// rest accumulate distinct values.
const (
	FactName         = "name"
	FactJob          = "job"
	FactLocation     = "location"
	FactRelationship = "relationship"
	FactPreference   = "preference"
	FactHealth       = "health"
	FactOther        = "other"
)

// Outcomes of UpsertFact.
const (
	FactAdded     = "added"
	FactConfirmed = "confirmed"
	FactReplaced  = "replaced"
	FactKept      = "kept"
)

var singleValued = map[string]bool{
	FactName:     true,
	FactJob:      true,
	FactLocation: true,
}

// confidenceBump is added on re-mention, capped at 1.0.
const confidenceBump = 0.1

// UpsertFact applies the conflict policy for a newly extracted fact and
// returns the action taken. For single-valued types an existing different
// value is replaced only when the candidate's confidence is at least the
// existing one's, or the existing fact has not been confirmed within
// staleness. Callers serialize writes per user, so check-then-write is safe.
func (db *DB) UpsertFact(f *Fact, staleness time.Duration) (string, error) {
	now := time.Now().UnixMilli()

	if singleValued[f.Type] {
		return db.upsertSingle(f, staleness, now)
	}
	return db.upsertMulti(f, now)
}

func (db *DB) upsertSingle(f *Fact, staleness time.Duration, now int64) (string, error) {
	var existing Fact
	err := db.QueryRow(`
		SELECT id, value, confidence, last_confirmed_at
		FROM facts WHERE user_id = ? AND fact_type = ?
	`, f.UserID, f.Type).Scan(&existing.ID, &existing.Value, &existing.Confidence, &existing.LastConfirmedAt)
	if err == sql.ErrNoRows {
		return FactAdded, db.insertFact(f, now)
	}
	if err != nil {
		return "", fmt.Errorf("check existing fact: %w", err)
	}

	if existing.Value == f.Value {
		return FactConfirmed, db.confirmFact(existing.ID, f.SourceTurnID, now)
	}

	stale := now-existing.LastConfirmedAt > staleness.Milliseconds()
	if f.Confidence >= existing.Confidence || stale {
		_, err := db.Exec(`
			UPDATE facts
			SET value = ?, confidence = ?, source_turn_id = ?, first_seen_at = ?, last_confirmed_at = ?
			WHERE id = ?
		`, f.Value, f.Confidence, f.SourceTurnID, now, now, existing.ID)
		if err != nil {
			return "", fmt.Errorf("replace fact: %w", err)
		}
		return FactReplaced, nil
	}
	return FactKept, nil
}

func (db *DB) upsertMulti(f *Fact, now int64) (string, error) {
	var id int64
	err := db.QueryRow(`
		SELECT id FROM facts WHERE user_id = ? AND fact_type = ? AND value = ?
	`, f.UserID, f.Type, f.Value).Scan(&id)
	if err == sql.ErrNoRows {
		return FactAdded, db.insertFact(f, now)
	}
	if err != nil {
		return "", fmt.Errorf("check existing fact: %w", err)
	}
	return FactConfirmed, db.confirmFact(id, f.SourceTurnID, now)
}

func (db *DB) insertFact(f *Fact, now int64) error {
	res, err := db.Exec(`
		INSERT INTO facts (user_id, fact_type, value, confidence, source_turn_id, first_seen_at, last_confirmed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, f.UserID, f.Type, f.Value, f.Confidence, f.SourceTurnID, now, now)
	if err != nil {
		return fmt.Errorf("insert fact: %w", err)
	}
	f.ID, _ = res.LastInsertId()
	f.FirstSeenAt = now
	f.LastConfirmedAt = now
	return nil
}

// confirmFact refreshes last_confirmed_at and bumps confidence on re-mention.
func (db *DB) confirmFact(id int64, sourceTurnID string, now int64) error {
	_, err := db.Exec(`
		UPDATE facts
		SET confidence = MIN(1.0, confidence + ?), source_turn_id = ?, last_confirmed_at = ?
		WHERE id = ?
	`, confidenceBump, sourceTurnID, now, id)
	if err != nil {
		return fmt.Errorf("confirm fact: %w", err)
	}
	return nil
}

// FactsForUser returns a user's facts, optionally filtered by type.
func (db *DB) FactsForUser(userID, factType string) ([]Fact, error) {
	query := `
		SELECT id, user_id, fact_type, value, confidence, source_turn_id, first_seen_at, last_confirmed_at
		FROM facts WHERE user_id = ?`
	args := []any{userID}
	if factType != "" {
		query += " AND fact_type = ?"
		args = append(args, factType)
	}
	query += " ORDER BY fact_type, last_confirmed_at DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("facts for user: %w", err)
	}
	defer rows.Close()

	var facts []Fact
	for rows.Next() {
		var f Fact
		if err := rows.Scan(&f.ID, &f.UserID, &f.Type, &f.Value, &f.Confidence, &f.SourceTurnID, &f.FirstSeenAt, &f.LastConfirmedAt); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
