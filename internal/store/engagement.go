package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Engagement is the per-user tracker state: the smoothed stress score and
// the session counters the suggestion policy reads. One row per user.
type Engagement struct {
	UserID            string
	StressScore       float64
	SessionTurnCount  int
	TurnsSinceSuggest int
	LowContentStreak  int
	SessionStartedAt  int64
	LastTurnAt        int64
	LastSuggestionAt  int64 // 0 = never suggested
	UpdatedAt         int64
}

// GetEngagement returns the tracker state for a user, or nil if the user has
// no recorded turns yet.
func (db *DB) GetEngagement(userID string) (*Engagement, error) {
	var e Engagement
	err := db.QueryRow(`
		SELECT user_id, stress_score, session_turn_count, turns_since_suggest, low_content_streak,
		       session_started_at, last_turn_at, last_suggestion_at, updated_at
		FROM engagement WHERE user_id = ?
	`, userID).Scan(&e.UserID, &e.StressScore, &e.SessionTurnCount, &e.TurnsSinceSuggest, &e.LowContentStreak,
		&e.SessionStartedAt, &e.LastTurnAt, &e.LastSuggestionAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get engagement: %w", err)
	}
	return &e, nil
}

// SaveEngagement writes the tracker state back, creating the row on first use.
func (db *DB) SaveEngagement(e *Engagement) error {
	e.UpdatedAt = time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO engagement (user_id, stress_score, session_turn_count, turns_since_suggest, low_content_streak,
		                        session_started_at, last_turn_at, last_suggestion_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			stress_score = ?, session_turn_count = ?, turns_since_suggest = ?, low_content_streak = ?,
			session_started_at = ?, last_turn_at = ?, last_suggestion_at = ?, updated_at = ?
	`, e.UserID, e.StressScore, e.SessionTurnCount, e.TurnsSinceSuggest, e.LowContentStreak,
		e.SessionStartedAt, e.LastTurnAt, e.LastSuggestionAt, e.UpdatedAt,
		e.StressScore, e.SessionTurnCount, e.TurnsSinceSuggest, e.LowContentStreak,
		e.SessionStartedAt, e.LastTurnAt, e.LastSuggestionAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save engagement: %w", err)
	}
	return nil
}
