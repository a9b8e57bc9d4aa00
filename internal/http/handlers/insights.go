package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/grupoblue/lead-insights/internal/journey"
	"github.com/grupoblue/lead-insights/pkg/logging"
)

// CachedJourneySource rebuilds a journey from cached raw inputs only.
type CachedJourneySource interface {
	GetCachedJourney(ctx context.Context, email string) (*journey.Data, error)
}

// JourneyAnalyzer writes an LLM analysis of a journey.
type JourneyAnalyzer interface {
	AnalyzeJourney(ctx context.Context, data *journey.Data) (string, error)
}

// InsightsHandler serves LLM analyses of cached journeys.
type InsightsHandler struct {
	source   CachedJourneySource
	analyzer JourneyAnalyzer
	logger   *logging.Logger
}

// NewInsightsHandler creates an insights handler. analyzer may be nil when no
// LLM is configured; the endpoint then reports the feature as unavailable.
func NewInsightsHandler(source CachedJourneySource, analyzer JourneyAnalyzer, logger *logging.Logger) *InsightsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &InsightsHandler{
		source:   source,
		analyzer: analyzer,
		logger:   logger,
	}
}

// AnalyzeJourney generates an analysis for an already-cached journey. The
// lookup endpoint must have been called first; analysis never triggers
// upstream fetches on its own.
// POST /api/journeys/lead/analysis {"email": "..."}
func (h *InsightsHandler) AnalyzeJourney(w http.ResponseWriter, r *http.Request) {
	if h.analyzer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "AI analysis is not configured"})
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "email is required"})
		return
	}

	data, err := h.source.GetCachedJourney(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("cached journey read failed", "email", req.Email, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to load cached journey"})
		return
	}
	if data == nil {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": "journey not cached yet, run a lookup first",
		})
		return
	}

	analysis, err := h.analyzer.AnalyzeJourney(r.Context(), data)
	if err != nil {
		h.logger.Error("journey analysis failed", "email", req.Email, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "failed to generate analysis"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"email": data.Email, "analysis": analysis})
}
