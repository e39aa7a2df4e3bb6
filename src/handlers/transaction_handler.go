// backend/src/handlers/transaction_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/username/momovisor/backend/src/database"
	"github.com/username/momovisor/backend/src/logger"
	"github.com/username/momovisor/backend/src/model"
	"github.com/username/momovisor/backend/src/models"
	"github.com/username/momovisor/backend/src/security/validation"
	"github.com/username/momovisor/backend/src/services"
	"github.com/username/momovisor/backend/src/utils"
)

type TransactionHandler struct {
	ingestService services.IngestService
}

func NewTransactionHandler(ingestService services.IngestService) *TransactionHandler {
	return &TransactionHandler{
		ingestService: ingestService,
	}
}

// HandleListTransactions serves the filterable transaction list.
// Filters: type, category, date_from, date_to, search, limit, offset.
func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := model.TransactionFilter{
		Type:     query.Get("type"),
		Category: query.Get("category"),
		DateFrom: query.Get("date_from"),
		DateTo:   query.Get("date_to"),
		Search:   query.Get("search"),
	}
	// Negative values would disable pagination in the store; the API never
	// exposes that.
	filter.Limit, _ = strconv.Atoi(query.Get("limit"))
	if filter.Limit < 0 {
		filter.Limit = 0
	}
	filter.Offset, _ = strconv.Atoi(query.Get("offset"))
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	transactions, err := model.ListTransactions(database.DB, filter)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Error querying transactions", "error", err)
		utils.SendJSONError(w, "Failed to query transactions", http.StatusInternalServerError)
		return
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(transactions); err != nil {
		logger.ErrorFromContext(r.Context(), "Error encoding transaction list", "error", err)
	}
}

// HandleGetTransaction serves one transaction by ID.
func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := model.GetTransactionByID(database.DB, id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Error fetching transaction", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to fetch transaction", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tx)
}

// HandleAddManualTransaction creates a transaction outside the pipeline.
// Manual rows still satisfy the persisted invariants, enforced by validation.
func (h *TransactionHandler) HandleAddManualTransaction(w http.ResponseWriter, r *http.Request) {
	var tx models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tx.Description = validation.SanitizeText(validation.StripUnprintable(tx.Description))
	if err := validation.ValidateTransactionInput(tx); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	tx.ProcessedDate = now
	if tx.HashID == "" {
		// Manual entries have no source message; key them on their own content.
		tx.HashID = fmt.Sprintf("manual-%d-%s-%s", time.Now().UnixNano(), tx.Date, tx.Type)
	}

	id, err := model.InsertTransaction(database.DB, tx)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Error inserting manual transaction", "error", err)
		utils.SendJSONError(w, "Failed to create transaction", http.StatusInternalServerError)
		return
	}
	tx.ID = id
	h.ingestService.InvalidateCaches()

	logger.InfoFromContext(r.Context(), "Manual transaction created", "id", id)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tx)
}

// HandleUpdateTransaction overwrites the editable fields of a row.
func (h *TransactionHandler) HandleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var tx models.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	tx.ID = id

	tx.Description = validation.SanitizeText(validation.StripUnprintable(tx.Description))
	if err := validation.ValidateTransactionInput(tx); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = model.UpdateTransaction(database.DB, tx)
	if errors.Is(err, sql.ErrNoRows) {
		utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Error updating transaction", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to update transaction", http.StatusInternalServerError)
		return
	}
	h.ingestService.InvalidateCaches()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tx)
}

// HandleDeleteTransaction removes a row by explicit external request; the
// pipeline itself never deletes.
func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = model.DeleteTransaction(database.DB, id)
	if errors.Is(err, sql.ErrNoRows) {
		utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
		return
	}
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Error deleting transaction", "id", id, "error", err)
		utils.SendJSONError(w, "Failed to delete transaction", http.StatusInternalServerError)
		return
	}
	h.ingestService.InvalidateCaches()

	logger.InfoFromContext(r.Context(), "Transaction deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid transaction id '%s'", idStr)
	}
	return id, nil
}
