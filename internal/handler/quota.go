package handler

import (
	"log/slog"
	"net/http"

	driveSvc "folio/internal/domain/services/drive"
	"folio/internal/httputil"
)

// QuotaHandler reports storage usage
type QuotaHandler struct {
	quotaService driveSvc.QuotaService
	logger       *slog.Logger
}

// NewQuotaHandler creates a new quota handler
func NewQuotaHandler(quotaService driveSvc.QuotaService, logger *slog.Logger) *QuotaHandler {
	return &QuotaHandler{quotaService: quotaService, logger: logger}
}

// GetQuota returns the caller's usage
// GET /api/quota
func (h *QuotaHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	usage, err := h.quotaService.Usage(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, usage)
}
