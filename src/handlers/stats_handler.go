// backend/src/handlers/stats_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/username/momovisor/backend/src/database"
	"github.com/username/momovisor/backend/src/logger"
	"github.com/username/momovisor/backend/src/model"
	"github.com/username/momovisor/backend/src/services"
	"github.com/username/momovisor/backend/src/utils"
)

type StatsHandler struct {
	ingestService services.IngestService
}

func NewStatsHandler(service services.IngestService) *StatsHandler {
	return &StatsHandler{
		ingestService: service,
	}
}

// HandleGetStats serves the persisted aggregate counters.
func (h *StatsHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := model.GetStats(database.DB)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Error querying stats", "error", err)
		utils.SendJSONError(w, "Failed to query stats", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// HandleGetCategories serves transaction counts grouped by category.
func (h *StatsHandler) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := model.CountByCategory(database.DB)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Error querying category counts", "error", err)
		utils.SendJSONError(w, "Failed to query categories", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(counts)
}

// HandleGetTypes serves transaction counts grouped by type.
func (h *StatsHandler) HandleGetTypes(w http.ResponseWriter, r *http.Request) {
	counts, err := model.CountByType(database.DB)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Error querying type counts", "error", err)
		utils.SendJSONError(w, "Failed to query types", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(counts)
}

// HandleGetMonthlyTrends serves per-month volume and amount totals.
func (h *StatsHandler) HandleGetMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	months, _ := strconv.Atoi(r.URL.Query().Get("months"))
	trends, err := model.MonthlyTrends(database.DB, months)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Error querying monthly trends", "error", err)
		utils.SendJSONError(w, "Failed to query monthly trends", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trends)
}

// HandleGetDashboard serves the full aggregate snapshot the frontend renders.
// Served from cache between ingest runs.
func (h *StatsHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	snapshot, err := h.ingestService.BuildSnapshot(limit)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Error building dashboard snapshot", "error", err)
		utils.SendJSONError(w, "Failed to build dashboard snapshot", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		logger.ErrorFromContext(r.Context(), "Error encoding dashboard snapshot", "error", err)
	}
}
