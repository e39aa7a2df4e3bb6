package model

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/username/momovisor/backend/src/models"
)

// TransactionFilter carries the optional query parameters of the list endpoint.
// Zero values mean "no filter". A negative Limit disables pagination entirely
// and returns every matching row; the snapshot export relies on that.
type TransactionFilter struct {
	Type     string
	Category string
	DateFrom string
	DateTo   string
	Search   string
	Limit    int
	Offset   int
}

const transactionColumns = `id, date, description, amount, type, category,
	counterparty, phone, reference, address, hash_id, processed_date`

func scanTransaction(row interface{ Scan(...any) error }) (models.Transaction, error) {
	var tx models.Transaction
	var counterparty, phone, reference, address sql.NullString
	err := row.Scan(
		&tx.ID, &tx.Date, &tx.Description, &tx.Amount, &tx.Type, &tx.Category,
		&counterparty, &phone, &reference, &address, &tx.HashID, &tx.ProcessedDate,
	)
	if err != nil {
		return tx, err
	}
	tx.Counterparty = counterparty.String
	tx.Phone = phone.String
	tx.Reference = reference.String
	tx.Address = address.String
	return tx, nil
}

// TransactionExists reports whether a row with the given dedup key is present.
func TransactionExists(db *sql.DB, hashID string) (bool, error) {
	var id int64
	err := db.QueryRow("SELECT id FROM transactions WHERE hash_id = ?", hashID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error checking transaction existence for hash %s: %w", hashID, err)
	}
	return true, nil
}

// UpsertTransaction inserts a classified transaction, or updates the existing
// row in place when the dedup key is already present. Re-running the pipeline
// over overlapping input therefore never duplicates rows.
func UpsertTransaction(db *sql.DB, tx models.ClassifiedTransaction, processedDate string) error {
	_, err := db.Exec(`
		INSERT INTO transactions
			(date, description, amount, type, category, counterparty, phone, reference, address, hash_id, processed_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash_id) DO UPDATE SET
			date = excluded.date,
			description = excluded.description,
			amount = excluded.amount,
			type = excluded.type,
			category = excluded.category,
			counterparty = excluded.counterparty,
			phone = excluded.phone,
			reference = excluded.reference,
			address = excluded.address,
			processed_date = excluded.processed_date`,
		tx.Date, tx.Description, tx.Amount.InexactFloat64(), tx.Type, tx.Category,
		nullable(tx.Counterparty), nullable(tx.Phone), nullable(tx.Reference), nullable(tx.Address),
		tx.HashID, processedDate,
	)
	if err != nil {
		return fmt.Errorf("error upserting transaction (hash %s): %w", tx.HashID, err)
	}
	return nil
}

// ListTransactions returns transactions matching the filter, newest first.
func ListTransactions(db *sql.DB, f TransactionFilter) ([]models.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE 1=1"
	var args []any

	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, f.Type)
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if f.DateFrom != "" {
		query += " AND date >= ?"
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		query += " AND date <= ?"
		args = append(args, f.DateTo)
	}
	if f.Search != "" {
		query += " AND (description LIKE ? OR phone LIKE ? OR reference LIKE ?)"
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	query += " ORDER BY date DESC, id DESC"
	if f.Limit >= 0 {
		limit := f.Limit
		if limit == 0 || limit > 1000 {
			limit = 100
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, f.Offset)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over transaction rows: %w", err)
	}
	return transactions, nil
}

// GetTransactionByID returns one transaction, or sql.ErrNoRows.
func GetTransactionByID(db *sql.DB, id int64) (models.Transaction, error) {
	row := db.QueryRow("SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	return scanTransaction(row)
}

// InsertTransaction inserts a manually created transaction and returns its new ID.
func InsertTransaction(db *sql.DB, tx models.Transaction) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO transactions
			(date, description, amount, type, category, counterparty, phone, reference, address, hash_id, processed_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.Date, tx.Description, tx.Amount, tx.Type, tx.Category,
		nullable(tx.Counterparty), nullable(tx.Phone), nullable(tx.Reference), nullable(tx.Address),
		tx.HashID, tx.ProcessedDate,
	)
	if err != nil {
		return 0, fmt.Errorf("error inserting transaction: %w", err)
	}
	return res.LastInsertId()
}

// UpdateTransaction overwrites the editable fields of an existing row.
func UpdateTransaction(db *sql.DB, tx models.Transaction) error {
	res, err := db.Exec(`
		UPDATE transactions
		SET date = ?, description = ?, amount = ?, type = ?, category = ?,
		    counterparty = ?, phone = ?, reference = ?
		WHERE id = ?`,
		tx.Date, tx.Description, tx.Amount, tx.Type, tx.Category,
		nullable(tx.Counterparty), nullable(tx.Phone), nullable(tx.Reference), tx.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating transaction %d: %w", tx.ID, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteTransaction removes one row by ID.
func DeleteTransaction(db *sql.DB, id int64) error {
	res, err := db.Exec("DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting transaction %d: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByType returns per-type counts and sums, largest group first.
func CountByType(db *sql.DB) ([]models.GroupCount, error) {
	return groupBy(db, "type")
}

// CountByCategory returns per-category counts and sums, largest group first.
func CountByCategory(db *sql.DB) ([]models.GroupCount, error) {
	return groupBy(db, "category")
}

func groupBy(db *sql.DB, column string) ([]models.GroupCount, error) {
	// column is always one of the two fixed identifiers above, never user input.
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total_amount
		FROM transactions
		GROUP BY %s
		ORDER BY count DESC`, column, column)
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error querying %s aggregate: %w", column, err)
	}
	defer rows.Close()

	var groups []models.GroupCount
	for rows.Next() {
		var g models.GroupCount
		if err := rows.Scan(&g.Key, &g.Count, &g.TotalAmount); err != nil {
			return nil, fmt.Errorf("error scanning %s aggregate row: %w", column, err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// MonthlyTrends returns per-month buckets for the last N months, oldest first.
func MonthlyTrends(db *sql.DB, months int) ([]models.MonthlyTrend, error) {
	if months <= 0 || months > 60 {
		months = 12
	}
	rows, err := db.Query(`
		SELECT
			strftime('%Y-%m', date) AS month,
			COUNT(*) AS count,
			COALESCE(SUM(amount), 0) AS total_amount,
			COALESCE(AVG(amount), 0) AS avg_amount,
			COUNT(CASE WHEN type = 'CASH_IN' THEN 1 END) AS cash_in_count,
			COUNT(CASE WHEN type = 'CASH_OUT' THEN 1 END) AS cash_out_count,
			COALESCE(SUM(CASE WHEN type = 'CASH_IN' THEN amount ELSE 0 END), 0) AS cash_in_amount,
			COALESCE(SUM(CASE WHEN type = 'CASH_OUT' THEN amount ELSE 0 END), 0) AS cash_out_amount
		FROM transactions
		WHERE date >= date('now', ?)
		GROUP BY month
		ORDER BY month ASC`,
		fmt.Sprintf("-%d months", months),
	)
	if err != nil {
		return nil, fmt.Errorf("error querying monthly trends: %w", err)
	}
	defer rows.Close()

	var trends []models.MonthlyTrend
	for rows.Next() {
		var t models.MonthlyTrend
		err := rows.Scan(&t.Month, &t.Count, &t.TotalAmount, &t.AvgAmount,
			&t.CashInCount, &t.CashOutCount, &t.CashInAmount, &t.CashOutAmount)
		if err != nil {
			return nil, fmt.Errorf("error scanning monthly trend row: %w", err)
		}
		trends = append(trends, t)
	}
	return trends, rows.Err()
}

func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
