package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/momovisor/backend/src/database"
	"github.com/username/momovisor/backend/src/logger"
	"github.com/username/momovisor/backend/src/model"
	"github.com/username/momovisor/backend/src/models"
	"github.com/username/momovisor/backend/src/parsers"
	"github.com/username/momovisor/backend/src/parsers/smsbackup"
	"github.com/username/momovisor/backend/src/processors"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	logger.InitLogger("error")

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	schema, err := os.ReadFile(filepath.Join("..", "..", "db", "migrations", "000001_init_schema.up.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	database.DB = db
	t.Cleanup(func() { db.Close() })

	parsers.Register("smsbackup", func() parsers.Parser {
		return smsbackup.NewParser()
	})
}

func newTestService(opts IngestOptions) IngestService {
	if opts.RetryBackoff == 0 {
		opts.RetryBackoff = time.Millisecond
	}
	return NewIngestService(
		processors.NewExtractor(),
		processors.NewNormalizer(),
		processors.NewClassifier(),
		cache.New(time.Minute, time.Minute),
		opts,
	)
}

func buildDocument(bodies ...[2]string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><smses count="%d">`, len(bodies)))
	for _, msg := range bodies {
		sb.WriteString(fmt.Sprintf(`<sms address="M-Money" date="%s" body="%s" readable_date="" contact_name="(Unknown)" />`, msg[0], msg[1]))
	}
	sb.WriteString(`</smses>`)
	return sb.String()
}

func countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, database.DB.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestProcessDocumentTotality(t *testing.T) {
	setupTestDB(t)
	svc := newTestService(IngestOptions{})

	doc := buildDocument(
		[2]string{"1715430021000", "You have received 2000 RWF from Jane Smith"},
		[2]string{"1715430022000", "See you at the stadium tonight"},
		[2]string{"1715430023000", "Your MoMo account PIN was changed"},
	)

	report, err := svc.ProcessDocument(strings.NewReader(doc), "smsbackup", "backup.xml")
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 1, report.Loaded)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 2, report.DeadLettered)
	assert.Equal(t, report.Processed, report.Loaded+report.Updated+report.DeadLettered)

	assert.Equal(t, 1, countRows(t, "transactions"))
	assert.Equal(t, 2, countRows(t, "dead_letters"))
	assert.Equal(t, 1, countRows(t, "ingest_runs"))

	var txType, category string
	var amount float64
	require.NoError(t, database.DB.QueryRow(
		"SELECT type, category, amount FROM transactions").Scan(&txType, &category, &amount))
	assert.Equal(t, models.TypeCashIn, txType)
	assert.Equal(t, models.CategoryOther, category)
	assert.Equal(t, 2000.0, amount)

	var reasons []string
	rows, err := database.DB.Query("SELECT reason FROM dead_letters ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var reason string
		require.NoError(t, rows.Scan(&reason))
		reasons = append(reasons, reason)
	}
	assert.Equal(t, []string{
		string(models.ReasonNotMomoMessage),
		string(models.ReasonInvalidAmount),
	}, reasons)
}

func TestProcessDocumentIdempotence(t *testing.T) {
	setupTestDB(t)
	svc := newTestService(IngestOptions{})

	doc := buildDocument(
		[2]string{"1715430021000", "You have received 2000 RWF from Jane Smith"},
		[2]string{"1715430022000", "Deposit of 700 RWF confirmed"},
	)

	first, err := svc.ProcessDocument(strings.NewReader(doc), "smsbackup", "backup.xml")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Loaded)
	assert.Equal(t, 0, first.Updated)

	second, err := svc.ProcessDocument(strings.NewReader(doc), "smsbackup", "backup.xml")
	require.NoError(t, err)
	assert.Equal(t, 0, second.Loaded)
	assert.Equal(t, 2, second.Updated)
	assert.Equal(t, 0, second.DeadLettered)

	// Re-running the same document never duplicates rows.
	assert.Equal(t, 2, countRows(t, "transactions"))

	// The run history keeps loaded and updated apart, newest first.
	runs, err := model.ListIngestRuns(database.DB, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 0, runs[0].Loaded)
	assert.Equal(t, 2, runs[0].Updated)
	assert.Equal(t, 2, runs[1].Loaded)
	assert.Equal(t, 0, runs[1].Updated)
}

func TestProcessDocumentMalformed(t *testing.T) {
	setupTestDB(t)
	svc := newTestService(IngestOptions{})

	report, err := svc.ProcessDocument(strings.NewReader("<smses><sms"), "smsbackup", "broken.xml")
	assert.ErrorIs(t, err, ErrParsingFailed)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 0, countRows(t, "transactions"))
}

func TestProcessDocumentUnknownSource(t *testing.T) {
	setupTestDB(t)
	svc := newTestService(IngestOptions{})

	_, err := svc.ProcessDocument(strings.NewReader("<smses></smses>"), "carrier-pigeon", "backup.xml")
	assert.ErrorIs(t, err, ErrParsingFailed)
}

func TestProcessDocumentRebuildsStats(t *testing.T) {
	setupTestDB(t)
	svc := newTestService(IngestOptions{})

	doc := buildDocument(
		[2]string{"1715430021000", "You have received 2000 RWF from Jane Smith"},
		[2]string{"1715430022000", "Your payment of 1,000 RWF for the electricity bill"},
	)
	_, err := svc.ProcessDocument(strings.NewReader(doc), "smsbackup", "backup.xml")
	require.NoError(t, err)

	snapshot, err := svc.BuildSnapshot(10)
	require.NoError(t, err)

	assert.Equal(t, "2", snapshot.Stats["total_transactions"])
	assert.Equal(t, "3000.00", snapshot.Stats["total_amount"])
	assert.Len(t, snapshot.Transactions, 2)

	byType := map[string]int{}
	for _, g := range snapshot.ByType {
		byType[g.Key] = g.Count
	}
	assert.Equal(t, 1, byType[models.TypeCashIn])
	assert.Equal(t, 1, byType[models.TypePayment])
}

func TestProcessDocumentExportsSnapshot(t *testing.T) {
	setupTestDB(t)
	exportPath := filepath.Join(t.TempDir(), "data", "dashboard.json")
	svc := newTestService(IngestOptions{ExportPath: exportPath})

	doc := buildDocument([2]string{"1715430021000", "You have received 2000 RWF from Jane Smith"})
	_, err := svc.ProcessDocument(strings.NewReader(doc), "smsbackup", "backup.xml")
	require.NoError(t, err)

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)

	var snapshot models.AggregateSnapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Len(t, snapshot.Transactions, 1)
	assert.Equal(t, "1", snapshot.Stats["total_transactions"])
}

// The exported document carries every transaction, not an API page.
func TestExportedSnapshotContainsAllTransactions(t *testing.T) {
	setupTestDB(t)
	exportPath := filepath.Join(t.TempDir(), "data", "dashboard.json")
	svc := newTestService(IngestOptions{ExportPath: exportPath})

	const total = 120
	msgs := make([][2]string, 0, total)
	for i := 0; i < total; i++ {
		msgs = append(msgs, [2]string{
			fmt.Sprintf("%d", 1715430021000+int64(i)*1000),
			fmt.Sprintf("You have received %d RWF from Jane Smith", 100+i),
		})
	}

	report, err := svc.ProcessDocument(strings.NewReader(buildDocument(msgs...)), "smsbackup", "backup.xml")
	require.NoError(t, err)
	require.Equal(t, total, report.Loaded)

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)

	var snapshot models.AggregateSnapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))
	assert.Len(t, snapshot.Transactions, total)
	assert.Equal(t, "120", snapshot.Stats["total_transactions"])

	// The API surface stays paginated.
	page, err := svc.BuildSnapshot(10)
	require.NoError(t, err)
	assert.Len(t, page.Transactions, 10)
}

// A storage failure aborts the batch but the report still carries the counts
// committed up to that point.
func TestProcessDocumentStorageFailurePartialReport(t *testing.T) {
	setupTestDB(t)
	svc := newTestService(IngestOptions{RetryAttempts: 2})

	_, err := database.DB.Exec("DROP TABLE transactions")
	require.NoError(t, err)

	doc := buildDocument(
		[2]string{"1715430021000", "You have received 2000 RWF from Jane Smith"},
		[2]string{"1715430022000", "Deposit of 700 RWF confirmed"},
	)
	report, err := svc.ProcessDocument(strings.NewReader(doc), "smsbackup", "backup.xml")
	assert.ErrorIs(t, err, ErrStorageFailed)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Loaded)
	assert.Equal(t, 0, report.DeadLettered)
	assert.NotEmpty(t, report.FinishedAt)
}

func TestBuildSnapshotIsCachedUntilInvalidated(t *testing.T) {
	setupTestDB(t)
	svc := newTestService(IngestOptions{})

	first, err := svc.BuildSnapshot(10)
	require.NoError(t, err)
	second, err := svc.BuildSnapshot(10)
	require.NoError(t, err)
	assert.Same(t, first, second)

	svc.InvalidateCaches()
	third, err := svc.BuildSnapshot(10)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}
