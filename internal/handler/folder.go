package handler

import (
	"log/slog"
	"net/http"

	"folio/internal/domain/models/drive"
	driveSvc "folio/internal/domain/services/drive"
	"folio/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	folderService driveSvc.FolderService
	logger        *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folderService driveSvc.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		folderService: folderService,
		logger:        logger,
	}
}

// updateFolderBody is the PATCH body. parent_id distinguishes absent from null.
type updateFolderBody struct {
	Name         *string                 `json:"name"`
	ParentID     httputil.OptionalString `json:"parent_id"`
	Description  *string                 `json:"description"`
	Color        *string                 `json:"color"`
	Icon         *string                 `json:"icon"`
	Tags         *[]string               `json:"tags"`
	IsPublic     *bool                   `json:"is_public"`
	AllowedUsers *[]drive.Grant          `json:"allowed_users"`
}

// CreateFolder creates a new folder
// POST /api/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req driveSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, invalidBody(err))
		return
	}

	folder, err := h.folderService.CreateFolder(r.Context(), userID, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// ListFolders lists one page of folders
// GET /api/folders?parent_id=&page=&limit=&sort_by=&sort_order=&search=
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	opts, err := parseListOptions(r, "parent_id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	page, err := h.folderService.ListFolders(r.Context(), userID, opts)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, page)
}

// GetFolder returns a folder with its direct children
// GET /api/folders/{id}
func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	contents, err := h.folderService.GetFolder(r.Context(), userID, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contents)
}

// UpdateFolder applies a partial update
// PATCH /api/folders/{id}
func (h *FolderHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body updateFolderBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		handleError(w, h.logger, invalidBody(err))
		return
	}

	folder, err := h.folderService.UpdateFolder(r.Context(), userID, id, &driveSvc.UpdateFolderRequest{
		Name:         body.Name,
		Parent:       optionalParent(body.ParentID),
		Description:  body.Description,
		Color:        body.Color,
		Icon:         body.Icon,
		Tags:         body.Tags,
		IsPublic:     body.IsPublic,
		AllowedUsers: body.AllowedUsers,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// MoveFolder moves a folder under another folder, or to the root
// POST /api/folders/{id}/move
func (h *FolderHandler) MoveFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body moveRequest
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		handleError(w, h.logger, invalidBody(err))
		return
	}

	folder, err := h.folderService.MoveFolder(r.Context(), userID, id, body.target())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// DeleteFolder deletes a folder; ?force=true removes the whole subtree
// DELETE /api/folders/{id}
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	force, err := httputil.QueryBool(r, "force")
	if err != nil {
		handleError(w, h.logger, invalidQuery(err))
		return
	}

	result, err := h.folderService.DeleteFolder(r.Context(), userID, id, force)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
