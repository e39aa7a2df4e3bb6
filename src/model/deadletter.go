package model

import (
	"database/sql"
	"fmt"

	"github.com/username/momovisor/backend/src/models"
)

// InsertDeadLetter appends one entry to the dead-letter log.
// The log is append-only: entries are never updated or fed back into the
// transaction store automatically.
func InsertDeadLetter(db *sql.DB, entry models.DeadLetterEntry) error {
	_, err := db.Exec(`
		INSERT INTO dead_letters (run_id, address, raw_body, reason, captured_at)
		VALUES (?, ?, ?, ?, ?)`,
		entry.RunID, entry.Address, entry.RawBody, entry.Reason, entry.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting dead letter: %w", err)
	}
	return nil
}

// ListDeadLetters returns dead-letter entries, newest first.
func ListDeadLetters(db *sql.DB, limit, offset int) ([]models.DeadLetterEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT id, run_id, address, raw_body, reason, captured_at
		FROM dead_letters
		ORDER BY id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error querying dead letters: %w", err)
	}
	defer rows.Close()

	var entries []models.DeadLetterEntry
	for rows.Next() {
		var e models.DeadLetterEntry
		var address sql.NullString
		if err := rows.Scan(&e.ID, &e.RunID, &address, &e.RawBody, &e.Reason, &e.CapturedAt); err != nil {
			return nil, fmt.Errorf("error scanning dead letter row: %w", err)
		}
		e.Address = address.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountDeadLettersByRun returns how many entries a run produced.
func CountDeadLettersByRun(db *sql.DB, runID string) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM dead_letters WHERE run_id = ?", runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting dead letters for run %s: %w", runID, err)
	}
	return count, nil
}
