package store

import "fmt"

// EraseUser removes every row belonging to a user: turns and their memories
// (via cascade), facts, engagement state, and suggestion history. Returns
// the number of turns removed.
func (db *DB) EraseUser(userID string) (int64, error) {
	res, err := db.Exec("DELETE FROM turns WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("erase turns: %w", err)
	}
	n, _ := res.RowsAffected()

	for _, table := range []string{"facts", "engagement", "suggestions"} {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE user_id = ?", table), userID); err != nil {
			return n, fmt.Errorf("erase %s: %w", table, err)
		}
	}
	return n, nil
}
