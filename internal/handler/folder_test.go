package handler

import (
	"net/http"
	"testing"

	"folio/internal/domain/models/drive"
	driveSvc "folio/internal/domain/services/drive"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *apiHarness) createFolder(userID string, parentID *string, name string) drive.Folder {
	h.t.Helper()
	body := map[string]interface{}{"name": name}
	if parentID != nil {
		body["parent_id"] = *parentID
	}
	rec := h.json(userID, http.MethodPost, "/api/folders", body)
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[drive.Folder](h.t, rec)
}

func TestCreateAndGetFolder(t *testing.T) {
	h := newAPIHarness(t, 0)

	docs := h.createFolder("alice", nil, "Docs")
	assert.Equal(t, "Docs", docs.Path)
	assert.Nil(t, docs.ParentID)

	reports := h.createFolder("alice", &docs.ID, "Reports")
	assert.Equal(t, "Docs/Reports", reports.Path)
	assert.Equal(t, 1, reports.Level)

	rec := h.json("alice", http.MethodGet, "/api/folders/"+docs.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	contents := decode[drive.Contents](t, rec)
	require.NotNil(t, contents.Folder)
	assert.Equal(t, 1, contents.Folder.SubfolderCount)
	require.Len(t, contents.Folders, 1)
	assert.Equal(t, reports.ID, contents.Folders[0].ID)
}

func TestCreateFolderErrors(t *testing.T) {
	h := newAPIHarness(t, 0)
	h.createFolder("alice", nil, "Docs")

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantReason string
	}{
		{"duplicate name", map[string]string{"name": "Docs"}, http.StatusConflict, "duplicate_name"},
		{"empty name", map[string]string{"name": "  "}, http.StatusBadRequest, ""},
		{"unknown field", map[string]string{"nme": "x"}, http.StatusBadRequest, ""},
		{"malformed json", "{", http.StatusBadRequest, ""},
		{"missing parent", map[string]string{"name": "x", "parent_id": "nope"}, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.json("alice", http.MethodPost, "/api/folders", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			p := decode[problem](t, rec)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantReason, p.Reason)
		})
	}
}

func TestFolderRequiresUser(t *testing.T) {
	h := newAPIHarness(t, 0)
	rec := h.json("", http.MethodGet, "/api/folders", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFolderAccessDenied(t *testing.T) {
	h := newAPIHarness(t, 0)
	docs := h.createFolder("alice", nil, "Docs")

	rec := h.json("bob", http.MethodGet, "/api/folders/"+docs.ID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListFolders(t *testing.T) {
	h := newAPIHarness(t, 0)
	for _, name := range []string{"c", "a", "b"} {
		h.createFolder("alice", nil, name)
	}

	rec := h.json("alice", http.MethodGet, "/api/folders?limit=2&sort_by=name&sort_order=DESC", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decode[drive.Page[drive.Folder]](t, rec)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "c", page.Items[0].Name)
	assert.Equal(t, "b", page.Items[1].Name)

	for _, query := range []string{"page=x", "page=0", "limit=0", "limit=101", "sort_by=color", "sort_order=up"} {
		rec := h.json("alice", http.MethodGet, "/api/folders?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestUpdateFolderParentTriState(t *testing.T) {
	h := newAPIHarness(t, 0)
	a := h.createFolder("alice", nil, "A")
	b := h.createFolder("alice", nil, "B")

	// absent parent_id leaves placement alone
	rec := h.json("alice", http.MethodPatch, "/api/folders/"+b.ID, `{"description":"notes"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[drive.Folder](t, rec)
	assert.Nil(t, updated.ParentID)
	assert.Equal(t, "notes", updated.Description)

	rec = h.json("alice", http.MethodPatch, "/api/folders/"+b.ID, `{"parent_id":"`+a.ID+`","name":"Bee"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated = decode[drive.Folder](t, rec)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, "A/Bee", updated.Path)

	// explicit null moves back to the root
	rec = h.json("alice", http.MethodPatch, "/api/folders/"+b.ID, `{"parent_id":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated = decode[drive.Folder](t, rec)
	assert.Nil(t, updated.ParentID)
	assert.Equal(t, "Bee", updated.Path)
}

func TestMoveFolder(t *testing.T) {
	h := newAPIHarness(t, 0)
	a := h.createFolder("alice", nil, "A")
	b := h.createFolder("alice", &a.ID, "B")

	rec := h.json("alice", http.MethodPost, "/api/folders/"+a.ID+"/move", map[string]string{"parent_id": b.ID})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "circular_move", decode[problem](t, rec).Reason)

	rec = h.json("alice", http.MethodPost, "/api/folders/"+b.ID+"/move", `{"parent_id":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "B", decode[drive.Folder](t, rec).Path)
}

func TestDeleteFolder(t *testing.T) {
	h := newAPIHarness(t, 0)
	a := h.createFolder("alice", nil, "A")
	h.createFolder("alice", &a.ID, "B")

	rec := h.json("alice", http.MethodDelete, "/api/folders/"+a.ID, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_empty", decode[problem](t, rec).Reason)

	rec = h.json("alice", http.MethodDelete, "/api/folders/"+a.ID+"?force=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.json("alice", http.MethodDelete, "/api/folders/"+a.ID+"?force=true", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[driveSvc.DeleteResult](t, rec)
	assert.Equal(t, 2, result.FoldersDeleted)

	rec = h.json("alice", http.MethodGet, "/api/folders/"+a.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
