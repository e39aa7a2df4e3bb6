package model

import (
	"database/sql"
	"fmt"
)

// ReplaceStats regenerates the stats table wholesale from the given map.
// Stats are derived data: replacing instead of patching avoids drift between
// runs (no incremental update contract).
func ReplaceStats(db *sql.DB, stats map[string]string, updatedAt string) error {
	dbTx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error beginning stats transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec("DELETE FROM stats"); err != nil {
		return fmt.Errorf("error clearing stats table: %w", err)
	}

	stmt, err := dbTx.Prepare("INSERT INTO stats (stat_name, stat_value, updated_at) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("error preparing stats insert: %w", err)
	}
	defer stmt.Close()

	for name, value := range stats {
		if _, err := stmt.Exec(name, value, updatedAt); err != nil {
			return fmt.Errorf("error inserting stat %s: %w", name, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing stats: %w", err)
	}
	return nil
}

// GetStats returns the current stats table as a name -> value map.
func GetStats(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query("SELECT stat_name, stat_value FROM stats")
	if err != nil {
		return nil, fmt.Errorf("error querying stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("error scanning stats row: %w", err)
		}
		stats[name] = value
	}
	return stats, rows.Err()
}
