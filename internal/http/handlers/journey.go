package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/grupoblue/lead-insights/internal/journey"
	"github.com/grupoblue/lead-insights/pkg/logging"
)

// JourneyService reconstructs lead journeys.
type JourneyService interface {
	GetLeadJourney(ctx context.Context, email, requestedBy string, useCache bool) (*journey.Data, error)
}

// HistorySource lists past lookups for a user.
type HistorySource interface {
	Recent(ctx context.Context, searchedBy string, limit int) ([]journey.SearchRecord, error)
}

// JourneyHandler serves the lead-journey API endpoints.
type JourneyHandler struct {
	service JourneyService
	history HistorySource
	logger  *logging.Logger
}

// NewJourneyHandler creates a journey handler.
func NewJourneyHandler(service JourneyService, history HistorySource, logger *logging.Logger) *JourneyHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &JourneyHandler{
		service: service,
		history: history,
		logger:  logger,
	}
}

// GetLeadJourney looks up one lead's journey by email.
// GET /api/journeys/lead?email=...&use_cache=true
func (h *JourneyHandler) GetLeadJourney(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "email query parameter is required"})
		return
	}

	useCache := true
	if raw := r.URL.Query().Get("use_cache"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "use_cache must be a boolean"})
			return
		}
		useCache = parsed
	}

	data, err := h.service.GetLeadJourney(r.Context(), email, requestingUser(r), useCache)
	if err != nil {
		h.logger.Error("journey lookup failed", "email", email, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "failed to fetch lead journey"})
		return
	}
	if data == nil {
		// empty state, deliberately distinguishable from an error
		writeJSON(w, http.StatusNotFound, map[string]any{"found": false, "email": email})
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// GetHistory lists the requesting user's recent lookups.
// GET /api/journeys/history?limit=50
func (h *JourneyHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "search history is not configured"})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := h.history.Recent(r.Context(), requestingUser(r), limit)
	if err != nil {
		h.logger.Error("history query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to load search history"})
		return
	}
	if records == nil {
		records = []journey.SearchRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": records})
}

// requestingUser identifies the caller. Authentication lives upstream; the
// gateway forwards the user id in a header.
func requestingUser(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}
