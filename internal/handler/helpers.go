package handler

import (
	"net/http"
	"strings"

	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	driveSvc "folio/internal/domain/services/drive"
	"folio/internal/httputil"
)

// requireUser returns the acting user or writes a 401
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return userID, true
}

// pathID reads the {id} path value
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "id is required")
		return "", false
	}
	return id, true
}

// parseListOptions reads page, limit, sort_by, sort_order and search.
// parentKey names the query parameter selecting the container (parent_id or folder_id).
func parseListOptions(r *http.Request, parentKey string) (*drive.ListOptions, error) {
	page, err := httputil.QueryInt(r, "page", 1)
	if err != nil {
		return nil, invalidQuery(err)
	}
	limit, err := httputil.QueryInt(r, "limit", drive.DefaultListLimit)
	if err != nil {
		return nil, invalidQuery(err)
	}
	if page < 1 {
		return nil, domain.NewValidationError("page must be at least 1")
	}
	if limit < 1 {
		return nil, domain.NewValidationError("limit must be at least 1")
	}

	q := r.URL.Query()
	return &drive.ListOptions{
		ParentID:  httputil.QueryOptionalID(r, parentKey),
		Page:      page,
		Limit:     limit,
		SortBy:    drive.SortField(q.Get("sort_by")),
		SortOrder: drive.SortOrder(strings.ToLower(q.Get("sort_order"))),
		Search:    q.Get("search"),
	}, nil
}

// optionalParent converts the JSON tri-state into the service move directive
func optionalParent(o httputil.OptionalString) driveSvc.OptionalParent {
	return driveSvc.OptionalParent{Present: o.Present, Value: o.Value}
}

// moveRequest is the body of the move endpoints; a null or absent id means the root
type moveRequest struct {
	ParentID *string `json:"parent_id"`
	FolderID *string `json:"folder_id"`
}

func (m *moveRequest) target() *string {
	if m.FolderID != nil {
		return m.FolderID
	}
	return m.ParentID
}

func invalidBody(err error) error {
	return domain.NewValidationError("invalid request body: %v", err)
}

func invalidQuery(err error) error {
	return domain.NewValidationError("%s", err.Error())
}
