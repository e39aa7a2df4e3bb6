// backend/src/services/ingest_service.go
package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/momovisor/backend/src/database"
	"github.com/username/momovisor/backend/src/logger"
	"github.com/username/momovisor/backend/src/model"
	"github.com/username/momovisor/backend/src/models"
	"github.com/username/momovisor/backend/src/parsers"
	"github.com/username/momovisor/backend/src/processors"
	"github.com/username/momovisor/backend/src/security/validation"
)

const (
	ckDashboardSnapshot    = "agg_dashboard_snapshot_limit_%d"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	canonicalDateLayout = "2006-01-02 15:04:05"
)

// IngestOptions carries the config-derived knobs of the loader.
type IngestOptions struct {
	RetryAttempts int
	RetryBackoff  time.Duration
	ExportPath    string
}

type ingestServiceImpl struct {
	extractor   *processors.Extractor
	normalizer  *processors.Normalizer
	classifier  *processors.Classifier
	reportCache *cache.Cache
	opts        IngestOptions
}

func NewIngestService(
	extractor *processors.Extractor,
	normalizer *processors.Normalizer,
	classifier *processors.Classifier,
	reportCache *cache.Cache,
	opts IngestOptions,
) IngestService {
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	return &ingestServiceImpl{
		extractor:   extractor,
		normalizer:  normalizer,
		classifier:  classifier,
		reportCache: reportCache,
		opts:        opts,
	}
}

// ProcessDocument runs the full pipeline over one XML document: parse,
// extract, normalize, classify, then upsert or dead-letter every message.
// Per-record failures never abort the batch; only a malformed document or an
// exhausted storage retry does, and prior upserts are preserved either way.
func (s *ingestServiceImpl) ProcessDocument(file io.Reader, source, filename string) (*models.IngestReport, error) {
	startTime := time.Now().UTC()
	report := &models.IngestReport{
		RunID:     uuid.New().String(),
		Source:    source,
		Filename:  filename,
		StartedAt: startTime.Format(canonicalDateLayout),
	}
	logger.L.Info("Ingest run START", "runID", report.RunID, "source", source, "filename", filename)

	parser, err := parsers.GetParser(source)
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	messages, err := parser.Parse(file)
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	processedDate := startTime.Format(canonicalDateLayout)
	for _, msg := range messages {
		report.Processed++

		candidate, reason := s.buildCandidate(msg)
		if reason != "" {
			s.routeDeadLetter(report, msg, reason)
			continue
		}

		exists, err := s.withRetry(report.RunID, func() (bool, error) {
			return model.TransactionExists(database.DB, candidate.HashID)
		})
		if err != nil {
			s.finishRun(report)
			return report, fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		_, err = s.withRetry(report.RunID, func() (bool, error) {
			return false, model.UpsertTransaction(database.DB, candidate, processedDate)
		})
		if err != nil {
			s.finishRun(report)
			return report, fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		if exists {
			report.Updated++
		} else {
			report.Loaded++
		}
	}

	s.finishRun(report)

	// Derived data is rebuilt wholesale from storage after every batch,
	// never incrementally, so re-runs cannot drift.
	if err := s.rebuildDerivedData(); err != nil {
		logger.L.Error("Failed to rebuild derived data after ingest run", "runID", report.RunID, "error", err)
	}

	if err := model.InsertIngestRun(database.DB, *report); err != nil {
		logger.L.Error("Failed to record ingest run", "runID", report.RunID, "error", err)
	}

	logger.L.Info("Ingest run END",
		"runID", report.RunID,
		"processed", report.Processed,
		"loaded", report.Loaded,
		"updated", report.Updated,
		"deadLettered", report.DeadLettered,
		"duration", time.Since(startTime))
	return report, nil
}

// buildCandidate runs a single message through extraction, normalization and
// classification. A non-empty reason means the message is a terminal reject.
func (s *ingestServiceImpl) buildCandidate(msg models.RawMessage) (models.ClassifiedTransaction, models.FailureReason) {
	fields, reason := s.extractor.Extract(msg)
	if reason != "" {
		return models.ClassifiedTransaction{}, reason
	}

	normalized := s.normalizer.Normalize(fields)
	if !normalized.HasTimestamp {
		return models.ClassifiedTransaction{}, models.ReasonUnrecognizedFormat
	}
	if !normalized.HasAmount || !normalized.Amount.IsPositive() {
		return models.ClassifiedTransaction{}, models.ReasonInvalidAmount
	}

	txType, category := s.classifier.Classify(msg.Body)

	return models.ClassifiedTransaction{
		Date:         normalized.Timestamp.Format(canonicalDateLayout),
		Description:  validation.SanitizeText(validation.StripUnprintable(msg.Body)),
		Amount:       normalized.Amount,
		Type:         txType,
		Category:     category,
		Counterparty: normalized.Counterparty,
		Phone:        normalized.Phone,
		Reference:    normalized.Reference,
		Address:      msg.Address,
		HashID:       generateHash(msg),
	}, ""
}

// routeDeadLetter appends a rejected message to the dead-letter log. It never
// fails the batch: a write error here is logged and the entry counted anyway,
// so the run totals still account for every input message.
func (s *ingestServiceImpl) routeDeadLetter(report *models.IngestReport, msg models.RawMessage, reason models.FailureReason) {
	report.DeadLettered++
	entry := models.DeadLetterEntry{
		RunID:      report.RunID,
		Address:    msg.Address,
		RawBody:    msg.Body,
		Reason:     string(reason),
		CapturedAt: time.Now().UTC().Format(canonicalDateLayout),
	}
	if err := model.InsertDeadLetter(database.DB, entry); err != nil {
		logger.L.Error("Failed to persist dead letter", "runID", report.RunID, "reason", reason, "error", err)
		return
	}
	logger.L.Debug("Message routed to dead letter", "runID", report.RunID, "reason", reason)
}

// withRetry retries a storage operation a bounded number of times for
// transient SQLite conditions (locked/busy), then gives up.
func (s *ingestServiceImpl) withRetry(runID string, op func() (bool, error)) (bool, error) {
	var result bool
	var err error
	for attempt := 1; attempt <= s.opts.RetryAttempts; attempt++ {
		result, err = op()
		if err == nil {
			return result, nil
		}
		if !isTransientStorageError(err) {
			return result, err
		}
		logger.L.Warn("Transient storage error, retrying",
			"runID", runID, "attempt", attempt, "maxAttempts", s.opts.RetryAttempts, "error", err)
		time.Sleep(s.opts.RetryBackoff * time.Duration(attempt))
	}
	return result, err
}

func isTransientStorageError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "busy")
}

func (s *ingestServiceImpl) finishRun(report *models.IngestReport) {
	report.FinishedAt = time.Now().UTC().Format(canonicalDateLayout)
}

// generateHash derives the deterministic dedup key from the source message
// identity: sender address, export timestamp attribute and body.
func generateHash(msg models.RawMessage) string {
	input := fmt.Sprintf("%s|%s|%s", msg.Address, msg.Date, msg.Body)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}
