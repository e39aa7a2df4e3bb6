// backend/src/handlers/ingest_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/momovisor/backend/src/config"
	"github.com/username/momovisor/backend/src/database"
	"github.com/username/momovisor/backend/src/logger"
	"github.com/username/momovisor/backend/src/model"
	"github.com/username/momovisor/backend/src/security/validation"
	"github.com/username/momovisor/backend/src/services"
	"github.com/username/momovisor/backend/src/utils"
)

type IngestHandler struct {
	ingestService services.IngestService
}

func NewIngestHandler(service services.IngestService) *IngestHandler {
	return &IngestHandler{
		ingestService: service,
	}
}

// HandleIngest accepts an SMS backup XML document as a multipart upload and
// runs it through the full pipeline. The response is the run report.
func (h *IngestHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse upload or file too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	source := r.FormValue("source")
	if source == "" {
		source = "smsbackup"
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.InfoFromContext(r.Context(), "File content validated, starting ingest",
		"source", source, "filename", fileHeader.Filename, "detectedType", detectedContentType)

	report, err := h.ingestService.ProcessDocument(file, source, fileHeader.Filename)
	if err != nil {
		h.writeIngestError(w, r, report, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.ErrorFromContext(r.Context(), "Error encoding ingest report", "error", err)
	}
}

// HandleListRuns serves the ingest run history, newest first.
func (h *IngestHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := model.ListIngestRuns(database.DB, 50)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Error querying ingest runs", "error", err)
		utils.SendJSONError(w, "Failed to query ingest runs", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}

// HandleListDeadLetters serves quarantined messages, newest first.
func (h *IngestHandler) HandleListDeadLetters(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 100)
	entries, err := model.ListDeadLetters(database.DB, limit, offset)
	if err != nil {
		logger.ErrorFromContext(r.Context(), "Error querying dead letters", "error", err)
		utils.SendJSONError(w, "Failed to query dead letters", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

func (h *IngestHandler) writeIngestError(w http.ResponseWriter, r *http.Request, report interface{}, err error) {
	switch {
	case errors.Is(err, services.ErrParsingFailed):
		logger.ErrorFromContext(r.Context(), "Ingest rejected, document unparseable", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrStorageFailed):
		// The partial report tells the caller how far the run got.
		logger.ErrorFromContext(r.Context(), "Ingest aborted mid-run on storage failure", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":  err.Error(),
			"report": report,
		})
	default:
		logger.ErrorFromContext(r.Context(), "Ingest failed", "error", err)
		utils.SendJSONError(w, "Failed to process document", http.StatusInternalServerError)
	}
}

func parsePagination(r *http.Request, defaultLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		offset = v
	}
	if limit <= 0 || limit > 1000 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
