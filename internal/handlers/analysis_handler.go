package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stockbrief/internal/interfaces"
)

// AnalysisHandler serves the analysis API: starting runs, reading records
// and run status, cancelling in-flight runs.
type AnalysisHandler struct {
	analysis interfaces.AnalysisService
	storage  interfaces.AnalysisStorage
	logger   arbor.ILogger
}

// NewAnalysisHandler creates a new AnalysisHandler instance
func NewAnalysisHandler(analysis interfaces.AnalysisService, storage interfaces.AnalysisStorage, logger arbor.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		analysis: analysis,
		storage:  storage,
		logger:   logger,
	}
}

// StartHandler handles POST /api/analysis/{ticker}.
// Responds 202 when a run was started, 200 when a fresh cached record or an
// in-flight run made a new one unnecessary.
func (h *AnalysisHandler) StartHandler(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	result, err := h.analysis.StartAnalysis(r.Context(), ticker)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := http.StatusAccepted
	if result.Cached || result.AlreadyRunning {
		status = http.StatusOK
	}
	WriteJSON(w, status, result)
}

// GetHandler handles GET /api/analysis/{ticker}.
func (h *AnalysisHandler) GetHandler(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	record, err := h.analysis.GetRecord(r.Context(), ticker)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if record == nil {
		WriteError(w, http.StatusNotFound, "no analysis found for ticker "+ticker)
		return
	}

	WriteJSON(w, http.StatusOK, record)
}

// StatusHandler handles GET /api/analysis/{ticker}/status.
func (h *AnalysisHandler) StatusHandler(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	run := h.analysis.GetRun(ticker)
	if run == nil {
		WriteError(w, http.StatusNotFound, "no run found for ticker "+ticker)
		return
	}

	WriteJSON(w, http.StatusOK, run)
}

// CancelHandler handles DELETE /api/analysis/{ticker}.
func (h *AnalysisHandler) CancelHandler(w http.ResponseWriter, r *http.Request, ticker string) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	h.analysis.CancelRun(ticker)
	WriteSuccess(w, "cancellation requested for "+ticker)
}

// ListHandler handles GET /api/analysis.
func (h *AnalysisHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	records, err := h.storage.ListRecords(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list analysis records")
		WriteError(w, http.StatusInternalServerError, "failed to list analysis records")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}
