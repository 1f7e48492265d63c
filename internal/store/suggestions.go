package store

import (
	"fmt"
	"time"
)

// Suggestion records one proactive engagement event: what was offered,
// why it fired, and when. The log doubles as the cooldown history.
type Suggestion struct {
	ID          string
	UserID      string
	Kind        string
	Reason      string
	TriggeredAt int64
}

// Suggestion trigger reasons.
const (
	ReasonHighStress    = "high-stress"
	ReasonLowEngagement = "low-engagement"
	ReasonLongSession   = "long-session"
)

// AddSuggestion appends a suggestion event.
func (db *DB) AddSuggestion(s *Suggestion) error {
	if s.TriggeredAt == 0 {
		s.TriggeredAt = time.Now().UnixMilli()
	}
	_, err := db.Exec(`
		INSERT INTO suggestions (id, user_id, kind, reason, triggered_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.UserID, s.Kind, s.Reason, s.TriggeredAt)
	if err != nil {
		return fmt.Errorf("add suggestion: %w", err)
	}
	return nil
}

// SuggestionsForUser returns a user's suggestion history, newest first.
func (db *DB) SuggestionsForUser(userID string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, user_id, kind, reason, triggered_at
		FROM suggestions WHERE user_id = ?
		ORDER BY triggered_at DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("suggestions for user: %w", err)
	}
	defer rows.Close()

	var events []Suggestion
	for rows.Next() {
		var s Suggestion
		if err := rows.Scan(&s.ID, &s.UserID, &s.Kind, &s.Reason, &s.TriggeredAt); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		events = append(events, s)
	}
	return events, rows.Err()
}
