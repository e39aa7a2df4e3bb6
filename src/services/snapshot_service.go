// backend/src/services/snapshot_service.go
package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/username/momovisor/backend/src/database"
	"github.com/username/momovisor/backend/src/logger"
	"github.com/username/momovisor/backend/src/model"
	"github.com/username/momovisor/backend/src/models"
	"github.com/username/momovisor/backend/src/utils"
)

// rebuildDerivedData regenerates everything derived from the transaction set:
// the stats table, the exported dashboard document and the in-memory caches.
// Always a full scan of current storage.
func (s *ingestServiceImpl) rebuildDerivedData() error {
	s.InvalidateCaches()

	stats, err := computeStats()
	if err != nil {
		return err
	}
	updatedAt := time.Now().UTC().Format(canonicalDateLayout)
	if err := model.ReplaceStats(database.DB, stats, updatedAt); err != nil {
		return err
	}

	if s.opts.ExportPath != "" {
		// The exported document carries the complete transaction list;
		// only API responses are paginated.
		snapshot, err := s.assembleSnapshot(listAllTransactions)
		if err != nil {
			return err
		}
		if err := exportSnapshot(snapshot, s.opts.ExportPath); err != nil {
			return err
		}
		logger.L.Info("Dashboard snapshot exported", "path", s.opts.ExportPath)
	}
	return nil
}

// listAllTransactions disables pagination for the export path.
const listAllTransactions = -1

// BuildSnapshot assembles the aggregate dashboard document from storage.
// Cached per limit until the next batch invalidates it.
func (s *ingestServiceImpl) BuildSnapshot(limit int) (*models.AggregateSnapshot, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	cacheKey := fmt.Sprintf(ckDashboardSnapshot, limit)
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*models.AggregateSnapshot), nil
	}

	snapshot, err := s.assembleSnapshot(limit)
	if err != nil {
		return nil, err
	}
	s.reportCache.Set(cacheKey, snapshot, DefaultCacheExpiration)
	return snapshot, nil
}

func (s *ingestServiceImpl) assembleSnapshot(limit int) (*models.AggregateSnapshot, error) {
	transactions, err := model.ListTransactions(database.DB, model.TransactionFilter{Limit: limit})
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	stats, err := model.GetStats(database.DB)
	if err != nil {
		return nil, err
	}
	byType, err := model.CountByType(database.DB)
	if err != nil {
		return nil, err
	}
	byCategory, err := model.CountByCategory(database.DB)
	if err != nil {
		return nil, err
	}
	trends, err := model.MonthlyTrends(database.DB, 12)
	if err != nil {
		return nil, err
	}

	snapshot := &models.AggregateSnapshot{
		Transactions: transactions,
		Stats:        stats,
		ByType:       byType,
		ByCategory:   byCategory,
		MonthlyTrend: trends,
		GeneratedAt:  time.Now().UTC().Format(canonicalDateLayout),
	}
	return snapshot, nil
}

func (s *ingestServiceImpl) InvalidateCaches() {
	s.reportCache.Flush()
}

// computeStats recomputes the flat stat rows the dashboard consumes.
func computeStats() (map[string]string, error) {
	stats := make(map[string]string)

	var total int
	var totalAmount, avgAmount float64
	err := database.DB.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(amount), 0), COALESCE(AVG(amount), 0)
		FROM transactions`).Scan(&total, &totalAmount, &avgAmount)
	if err != nil {
		return nil, fmt.Errorf("error computing transaction totals: %w", err)
	}
	stats["total_transactions"] = strconv.Itoa(total)
	stats["total_amount"] = utils.FormatAmount(totalAmount)
	stats["avg_transaction_amount"] = utils.FormatAmount(avgAmount)

	byType, err := model.CountByType(database.DB)
	if err != nil {
		return nil, err
	}
	for _, g := range byType {
		stats["count_"+strings.ToLower(g.Key)] = strconv.Itoa(g.Count)
	}

	byCategory, err := model.CountByCategory(database.DB)
	if err != nil {
		return nil, err
	}
	for _, g := range byCategory {
		stats["count_category_"+g.Key] = strconv.Itoa(g.Count)
		stats["amount_category_"+g.Key] = utils.FormatAmount(g.TotalAmount)
	}
	return stats, nil
}

// exportSnapshot writes the dashboard document to disk for the static
// frontend, creating the target directory when missing.
func exportSnapshot(snapshot *models.AggregateSnapshot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating export directory: %w", err)
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing snapshot to %s: %w", path, err)
	}
	return nil
}
