package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Turn is one raw conversation turn: the user's message plus the signals
// attached to it at ingestion time. Immutable once created.
type Turn struct {
	ID        string
	UserID    string
	Text      string
	Emotion   string // label from the vision service, empty when unavailable
	Themes    []string
	CreatedAt int64
}

// encodeThemes serializes a theme set as a JSON array. Nil becomes "[]".
func encodeThemes(themes []string) string {
	if len(themes) == 0 {
		return "[]"
	}
	data, err := json.Marshal(themes)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeThemes parses a JSON theme array. Malformed input decodes to nil
// rather than failing the row.
func decodeThemes(s string) []string {
	if s == "" || s == "[]" {
		return nil
	}
	var themes []string
	if err := json.Unmarshal([]byte(s), &themes); err != nil {
		return nil
	}
	return themes
}

// InsertTurn stores a conversation turn. CreatedAt defaults to now.
func (db *DB) InsertTurn(t *Turn) error {
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().UnixMilli()
	}
	_, err := db.Exec(`
		INSERT INTO turns (id, user_id, text, emotion, themes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.UserID, t.Text, t.Emotion, encodeThemes(t.Themes), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

// GetTurn returns a turn by ID, or nil if not found.
func (db *DB) GetTurn(id string) (*Turn, error) {
	var t Turn
	var themes string
	err := db.QueryRow(`
		SELECT id, user_id, text, emotion, themes, created_at
		FROM turns WHERE id = ?
	`, id).Scan(&t.ID, &t.UserID, &t.Text, &t.Emotion, &themes, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get turn: %w", err)
	}
	t.Themes = decodeThemes(themes)
	return &t, nil
}

// RecentTurns returns the user's most recent turns in chronological order.
func (db *DB) RecentTurns(userID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, user_id, text, emotion, themes, created_at
		FROM turns WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var themes string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Text, &t.Emotion, &themes, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Themes = decodeThemes(themes)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order (oldest first)
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// CountTurns returns the total number of turns stored for a user.
func (db *DB) CountTurns(userID string) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM turns WHERE user_id = ?", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}
	return count, nil
}
