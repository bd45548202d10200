package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	driveSvc "folio/internal/domain/services/drive"
	"folio/internal/httputil"
)

// multipartMemory is the part of a multipart body kept in memory; the rest spills to temp files
const multipartMemory = 32 << 20

// FileHandler handles file HTTP requests
type FileHandler struct {
	fileService    driveSvc.FileService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewFileHandler creates a new file handler.
// maxUploadBytes caps the whole multipart request body.
func NewFileHandler(fileService driveSvc.FileService, maxUploadBytes int64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileService:    fileService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// updateFileBody is the PATCH body. folder_id distinguishes absent from null.
type updateFileBody struct {
	Name         *string                 `json:"name"`
	FolderID     httputil.OptionalString `json:"folder_id"`
	Description  *string                 `json:"description"`
	Tags         *[]string               `json:"tags"`
	IsPublic     *bool                   `json:"is_public"`
	AllowedUsers *[]drive.Grant          `json:"allowed_users"`
}

// uploadPart is the file part of a multipart request
type uploadPart struct {
	header *multipart.FileHeader
	file   multipart.File
}

func (p *uploadPart) contentType() string {
	if ct := p.header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// readUpload parses the multipart form and opens the "file" part.
// The caller must close the part and remove the form.
func (h *FileHandler) readUpload(w http.ResponseWriter, r *http.Request) (*uploadPart, error) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, &tooLargeError{limit: h.maxUploadBytes}
		}
		return nil, domain.NewValidationError("invalid multipart body: %v", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = r.MultipartForm.RemoveAll()
		return nil, domain.NewValidationError("file part is required")
	}
	return &uploadPart{header: header, file: file}, nil
}

// tooLargeError reports a request body over the upload cap
type tooLargeError struct {
	limit int64
}

func (e *tooLargeError) Error() string {
	return fmt.Sprintf("upload exceeds the %d byte limit", e.limit)
}
func (e *tooLargeError) StatusCode() int { return http.StatusRequestEntityTooLarge }

// formTags accepts repeated tags fields and comma separated lists
func formTags(form *multipart.Form) []string {
	var tags []string
	for _, raw := range form.Value["tags"] {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

// UploadFile stores a new file
// POST /api/files (multipart: file, folder_id, name, description, tags, is_public)
func (h *FileHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	part, err := h.readUpload(w, r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	defer func() {
		_ = part.file.Close()
		_ = r.MultipartForm.RemoveAll()
	}()

	req := &driveSvc.UploadFileRequest{
		Name:        r.FormValue("name"),
		ContentType: part.contentType(),
		Size:        part.header.Size,
		Body:        part.file,
	}
	if req.Name == "" {
		req.Name = part.header.Filename
	}
	if folderID := r.FormValue("folder_id"); folderID != "" {
		req.FolderID = &folderID
	}
	req.Description = r.FormValue("description")
	req.Tags = formTags(r.MultipartForm)
	if raw := r.FormValue("is_public"); raw != "" {
		isPublic, err := strconv.ParseBool(raw)
		if err != nil {
			handleError(w, h.logger, domain.NewValidationError("is_public must be a boolean"))
			return
		}
		req.IsPublic = isPublic
	}

	file, err := h.fileService.UploadFile(r.Context(), userID, req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, file)
}

// UploadVersion replaces a file's content
// PUT /api/files/{id}/content (multipart: file)
func (h *FileHandler) UploadVersion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	part, err := h.readUpload(w, r)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	defer func() {
		_ = part.file.Close()
		_ = r.MultipartForm.RemoveAll()
	}()

	file, err := h.fileService.UploadVersion(r.Context(), userID, id, &driveSvc.UploadVersionRequest{
		ContentType: part.contentType(),
		Size:        part.header.Size,
		Body:        part.file,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// ListFiles lists one page of files
// GET /api/files?folder_id=&page=&limit=&sort_by=&sort_order=&search=
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	opts, err := parseListOptions(r, "folder_id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	page, err := h.fileService.ListFiles(r.Context(), userID, opts)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, page)
}

// GetFile returns a file
// GET /api/files/{id}
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	file, err := h.fileService.GetFile(r.Context(), userID, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// UpdateFile applies a partial update
// PATCH /api/files/{id}
func (h *FileHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body updateFileBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		handleError(w, h.logger, invalidBody(err))
		return
	}

	file, err := h.fileService.UpdateFile(r.Context(), userID, id, &driveSvc.UpdateFileRequest{
		Name:         body.Name,
		Folder:       optionalParent(body.FolderID),
		Description:  body.Description,
		Tags:         body.Tags,
		IsPublic:     body.IsPublic,
		AllowedUsers: body.AllowedUsers,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// MoveFile moves a file into a folder, or to the root
// POST /api/files/{id}/move
func (h *FileHandler) MoveFile(w http.ResponseWriter, r *http.Request) {
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

	file, err := h.fileService.MoveFile(r.Context(), userID, id, body.target())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// CopyFile duplicates a file
// POST /api/files/{id}/copy
func (h *FileHandler) CopyFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req driveSvc.CopyFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, invalidBody(err))
		return
	}

	file, err := h.fileService.CopyFile(r.Context(), userID, id, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, file)
}

// DownloadFile issues a signed URL; ?redirect=true answers with a 302 instead of JSON
// GET /api/files/{id}/download
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	redirect, err := httputil.QueryBool(r, "redirect")
	if err != nil {
		handleError(w, h.logger, invalidQuery(err))
		return
	}

	link, err := h.fileService.DownloadURL(r.Context(), userID, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if redirect {
		http.Redirect(w, r, link.URL, http.StatusFound)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, link)
}

// UpdateStatus records progress from the external processor
// PATCH /api/files/{id}/status
func (h *FileHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req driveSvc.UpdateStatusRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, invalidBody(err))
		return
	}

	file, err := h.fileService.UpdateStatus(r.Context(), userID, id, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// DeleteFile deletes a file and all of its versions
// DELETE /api/files/{id}
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.fileService.DeleteFile(r.Context(), userID, id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
