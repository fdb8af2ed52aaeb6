package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rl1809/stock-sync/internal/core/domain"
	"github.com/rl1809/stock-sync/internal/logging"
)

type HTTPHandler struct {
	sync SyncService
}

type ResolveHTTPRequest struct {
	SKU      string `json:"sku"`
	Decision string `json:"decision"`
}

type ResolveHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ConflictsHTTPResponse struct {
	Count     int                     `json:"count"`
	Conflicts []domain.ConflictReport `json:"conflicts"`
}

func NewHTTPHandler(sync SyncService) *HTTPHandler {
	return &HTTPHandler{sync: sync}
}

// Routes registers every operator endpoint on mux.
func (h *HTTPHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/sync", h.RunSync)
	mux.HandleFunc("/api/status", h.Status)
	mux.HandleFunc("/api/conflicts", h.Conflicts)
	mux.HandleFunc("/api/conflicts/resolve", h.ResolveConflict)
}

func (h *HTTPHandler) RunSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report := h.sync.RunSync(r.Context())

	status := http.StatusOK
	switch report.Status {
	case domain.RunSkipped:
		status = http.StatusConflict
	case domain.RunTimeout:
		status = http.StatusGatewayTimeout
	case domain.RunError:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, report)
}

func (h *HTTPHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.sync.GetStatus())
}

func (h *HTTPHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pending := h.sync.GetPendingConflicts()
	writeJSON(w, http.StatusOK, ConflictsHTTPResponse{Count: len(pending), Conflicts: pending})
}

func (h *HTTPHandler) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ResolveHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ResolveHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	if req.SKU == "" {
		writeJSON(w, http.StatusBadRequest, ResolveHTTPResponse{
			Success: false,
			Message: "missing required fields",
		})
		return
	}
	if _, err := domain.ParseDecision(req.Decision); err != nil {
		writeJSON(w, http.StatusBadRequest, ResolveHTTPResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	if !h.sync.ResolvePendingConflict(r.Context(), req.SKU, req.Decision) {
		writeJSON(w, http.StatusUnprocessableEntity, ResolveHTTPResponse{
			Success: false,
			Message: "no pending conflict for sku or push failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, ResolveHTTPResponse{
		Success: true,
		Message: "conflict resolved",
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Default().Warn().Err(err).Msg("failed to write response")
	}
}
