package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"time"
)

// Memory is the semantic index entry for a turn: its embedding plus the
// metadata recall scoring needs. Embedding is nil when the embedder was
// unavailable at ingestion time; such records are still reachable through
// the theme fallback.
type Memory struct {
	ID         int64
	TurnID     string
	UserID     string
	Text       string
	Embedding  []float64
	Model      string
	Dimensions int
	Themes     []string
	Emotion    string
	CreatedAt  int64
}

// encodeEmbedding converts a []float64 to a binary BLOB (8 bytes per float64).
func encodeEmbedding(vec []float64) []byte {
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeEmbedding converts a binary BLOB back to []float64.
func decodeEmbedding(buf []byte) []float64 {
	n := len(buf) / 8
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}

// InsertMemory stores the index entry for a turn. A nil embedding is stored
// as NULL so the record can later be found by theme even though it cannot
// participate in similarity search.
func (db *DB) InsertMemory(m *Memory) error {
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().UnixMilli()
	}
	var blob []byte
	dims := 0
	if m.Embedding != nil {
		blob = encodeEmbedding(m.Embedding)
		dims = len(m.Embedding)
	}
	res, err := db.Exec(`
		INSERT INTO memories (turn_id, user_id, embedding, model, dimensions, themes, emotion, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.TurnID, m.UserID, blob, m.Model, dims, encodeThemes(m.Themes), m.Emotion, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}
	m.ID, _ = res.LastInsertId()
	m.Dimensions = dims
	return nil
}

// MemoriesForUser returns every index entry for a user, joined with the turn
// text. Records whose embedding BLOB does not match its declared dimensions
// are logged and skipped rather than poisoning the result set.
func (db *DB) MemoriesForUser(userID string) ([]Memory, error) {
	rows, err := db.Query(`
		SELECT m.id, m.turn_id, m.user_id, t.text, m.embedding, m.model, m.dimensions, m.themes, m.emotion, m.created_at
		FROM memories m
		JOIN turns t ON t.id = m.turn_id
		WHERE m.user_id = ?
		ORDER BY m.created_at DESC, m.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("memories for user: %w", err)
	}
	defer rows.Close()

	var records []Memory
	for rows.Next() {
		var m Memory
		var blob []byte
		var themes string
		if err := rows.Scan(&m.ID, &m.TurnID, &m.UserID, &m.Text, &blob, &m.Model, &m.Dimensions, &themes, &m.Emotion, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		m.Themes = decodeThemes(themes)
		if blob != nil {
			if len(blob)%8 != 0 || len(blob)/8 != m.Dimensions {
				log.Printf("store: memory %d has corrupt embedding (%d bytes, %d dims declared), skipping", m.ID, len(blob), m.Dimensions)
				continue
			}
			m.Embedding = decodeEmbedding(blob)
		}
		records = append(records, m)
	}
	return records, rows.Err()
}

// GetMemoryByTurn returns the index entry for a turn, or nil if not found.
func (db *DB) GetMemoryByTurn(turnID string) (*Memory, error) {
	var m Memory
	var blob []byte
	var themes string
	err := db.QueryRow(`
		SELECT m.id, m.turn_id, m.user_id, t.text, m.embedding, m.model, m.dimensions, m.themes, m.emotion, m.created_at
		FROM memories m
		JOIN turns t ON t.id = m.turn_id
		WHERE m.turn_id = ?
	`, turnID).Scan(&m.ID, &m.TurnID, &m.UserID, &m.Text, &blob, &m.Model, &m.Dimensions, &themes, &m.Emotion, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get memory: %w", err)
	}
	m.Themes = decodeThemes(themes)
	if blob != nil {
		m.Embedding = decodeEmbedding(blob)
	}
	return &m, nil
}

// PurgeOlderThan deletes turns (and, via cascade, their memories) older than
// the cutoff. Facts are never purged here; they persist until replaced or
// the user is erased. Returns the number of turns removed.
func (db *DB) PurgeOlderThan(cutoff int64) (int64, error) {
	res, err := db.Exec("DELETE FROM turns WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge turns: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
