package handler

import (
	"log/slog"
	"net/http"
	"time"

	"folio/internal/domain"
	driveSvc "folio/internal/domain/services/drive"
	"folio/internal/httputil"
)

// SharePasswordHeader carries the password of a protected share link
const SharePasswordHeader = "X-Share-Password"

// ShareHandler handles share link HTTP requests
type ShareHandler struct {
	shareService driveSvc.ShareService
	logger       *slog.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService driveSvc.ShareService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		logger:       logger,
	}
}

type shareBody struct {
	ExpiresInSeconds *int64 `json:"expires_in_seconds"`
	Password         string `json:"password"`
	AllowDownload    bool   `json:"allow_download"`
	AllowUpload      bool   `json:"allow_upload"`
}

func (b *shareBody) request() (*driveSvc.ShareRequest, error) {
	req := &driveSvc.ShareRequest{
		Password:      b.Password,
		AllowDownload: b.AllowDownload,
		AllowUpload:   b.AllowUpload,
	}
	if b.ExpiresInSeconds != nil {
		if *b.ExpiresInSeconds <= 0 {
			return nil, domain.NewValidationError("expires_in_seconds must be positive")
		}
		ttl := time.Duration(*b.ExpiresInSeconds) * time.Second
		req.ExpiresIn = &ttl
	}
	return req, nil
}

// ShareFolder issues a link for a folder
// POST /api/folders/{id}/share
func (h *ShareHandler) ShareFolder(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, driveSvc.NodeKindFolder)
}

// ShareFile issues a link for a file
// POST /api/files/{id}/share
func (h *ShareHandler) ShareFile(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, driveSvc.NodeKindFile)
}

// RevokeFolderShare removes a folder's link
// DELETE /api/folders/{id}/share
func (h *ShareHandler) RevokeFolderShare(w http.ResponseWriter, r *http.Request) {
	h.revoke(w, r, driveSvc.NodeKindFolder)
}

// RevokeFileShare removes a file's link
// DELETE /api/files/{id}/share
func (h *ShareHandler) RevokeFileShare(w http.ResponseWriter, r *http.Request) {
	h.revoke(w, r, driveSvc.NodeKindFile)
}

func (h *ShareHandler) generate(w http.ResponseWriter, r *http.Request, kind driveSvc.NodeKind) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body shareBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		handleError(w, h.logger, invalidBody(err))
		return
	}
	req, err := body.request()
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	info, err := h.shareService.GenerateShareLink(r.Context(), userID, kind, id, req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, info)
}

func (h *ShareHandler) revoke(w http.ResponseWriter, r *http.Request, kind driveSvc.NodeKind) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.shareService.RevokeShareLink(r.Context(), userID, kind, id); err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondNoContent(w)
}

// ResolveShare returns the node behind a token. No authentication.
// GET /api/shares/{token}
// GET /s/{token}
func (h *ShareHandler) ResolveShare(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		httputil.RespondError(w, http.StatusBadRequest, "token is required")
		return
	}

	node, err := h.shareService.ResolveShareLink(r.Context(), token, r.Header.Get(SharePasswordHeader))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}
