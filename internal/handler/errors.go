package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"folio/internal/domain"
	"folio/internal/httputil"
)

// handleError converts domain errors to RFC 7807 responses.
// Unknown errors become a 500 and are logged; their detail is never exposed.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		conflictErr *domain.ConflictError
		quotaErr    *domain.QuotaExceededError
		storageErr  *domain.StorageBackendError
		httpErr     domain.HTTPError
	)

	switch {
	case errors.As(err, &conflictErr):
		extras := map[string]interface{}{"reason": conflictErr.Reason}
		if conflictErr.ResourceID != "" {
			extras["resource_type"] = conflictErr.ResourceType
			extras["resource_id"] = conflictErr.ResourceID
		}
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), extras)
	case errors.As(err, &quotaErr):
		httputil.RespondErrorWithExtras(w, quotaErr.StatusCode(), quotaErr.Error(), map[string]interface{}{
			"requested": quotaErr.Requested,
			"available": quotaErr.Available,
		})
	case errors.As(err, &storageErr):
		logger.Error("object store failure", "op", storageErr.Op, "ref", storageErr.Ref, "retryable", storageErr.Retryable, "error", storageErr.Err)
		httputil.RespondErrorWithExtras(w, storageErr.StatusCode(), "object store unavailable", map[string]interface{}{
			"retryable": storageErr.Retryable,
		})
	case errors.As(err, &httpErr):
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful can be written
		logger.Debug("request cancelled", "error", err)
	default:
		logger.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
