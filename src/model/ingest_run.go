package model

import (
	"database/sql"
	"fmt"

	"github.com/username/momovisor/backend/src/models"
)

// InsertIngestRun records the outcome of one pipeline run.
func InsertIngestRun(db *sql.DB, report models.IngestReport) error {
	_, err := db.Exec(`
		INSERT INTO ingest_runs
			(run_id, source, filename, processed, loaded, updated, dead_lettered, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Source, report.Filename,
		report.Processed, report.Loaded, report.Updated, report.DeadLettered,
		report.StartedAt, report.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("error recording ingest run %s: %w", report.RunID, err)
	}
	return nil
}

// ListIngestRuns returns run summaries, newest first.
func ListIngestRuns(db *sql.DB, limit int) ([]models.IngestReport, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT run_id, source, filename, processed, loaded, updated, dead_lettered, started_at, finished_at
		FROM ingest_runs
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []models.IngestReport
	for rows.Next() {
		var r models.IngestReport
		var filename sql.NullString
		err := rows.Scan(&r.RunID, &r.Source, &filename, &r.Processed, &r.Loaded,
			&r.Updated, &r.DeadLettered, &r.StartedAt, &r.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning ingest run row: %w", err)
		}
		r.Filename = filename.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
