package handlers

import (
	"context"
	"net/http"

	"github.com/grupoblue/lead-insights/internal/mautic"
	"github.com/grupoblue/lead-insights/pkg/logging"
)

// LookupSyncer refreshes the id→name lookup tables from the marketing API.
type LookupSyncer interface {
	Sync(ctx context.Context) (mautic.SyncResult, error)
}

// AdminLookupsHandler exposes the lookup-table maintenance endpoint.
type AdminLookupsHandler struct {
	syncer LookupSyncer
	logger *logging.Logger
}

// NewAdminLookupsHandler creates an admin lookups handler.
func NewAdminLookupsHandler(syncer LookupSyncer, logger *logging.Logger) *AdminLookupsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminLookupsHandler{syncer: syncer, logger: logger}
}

// SyncLookups refreshes every lookup table.
// POST /api/admin/lookups/sync
func (h *AdminLookupsHandler) SyncLookups(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncer.Sync(r.Context())
	if err != nil {
		h.logger.Error("lookup sync failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "lookup sync failed"})
		return
	}
	status := http.StatusOK
	if result.Errors > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, result)
}
