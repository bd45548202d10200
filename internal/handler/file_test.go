package handler

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"folio/internal/domain/models/drive"
	driveSvc "folio/internal/domain/services/drive"
	blobmem "folio/internal/objectstore/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *apiHarness) uploadFile(userID string, fields map[string]string, name, content string) drive.File {
	h.t.Helper()
	rec := h.do(userID, h.multipartRequest(http.MethodPost, "/api/files", name, content, fields))
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[drive.File](h.t, rec)
}

func TestUploadFile(t *testing.T) {
	h := newAPIHarness(t, 0)
	docs := h.createFolder("alice", nil, "Docs")

	file := h.uploadFile("alice", map[string]string{
		"folder_id":   docs.ID,
		"description": "quarterly",
		"tags":        "finance, q3",
		"is_public":   "true",
	}, "report.pdf", "pdf-bytes")

	assert.Equal(t, "report.pdf", file.Name)
	assert.Equal(t, "Docs/report.pdf", file.Path)
	assert.Equal(t, int64(len("pdf-bytes")), file.Size)
	assert.Equal(t, "pdf", file.Extension)
	assert.Equal(t, "quarterly", file.Description)
	assert.ElementsMatch(t, []string{"finance", "q3"}, file.Tags)
	assert.True(t, file.Permissions.IsPublic)
	assert.Equal(t, drive.FileStatusReady, file.Status)
	assert.Equal(t, 1, h.blobs.Len())

	rec := h.json("alice", http.MethodGet, "/api/quota", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	usage := decode[driveSvc.Usage](t, rec)
	assert.Equal(t, file.Size, usage.Used)
}

func TestUploadFileNameOverride(t *testing.T) {
	h := newAPIHarness(t, 0)
	file := h.uploadFile("alice", map[string]string{"name": "renamed.txt"}, "original.txt", "x")
	assert.Equal(t, "renamed.txt", file.Name)
	assert.Nil(t, file.FolderID)
}

func TestUploadFileErrors(t *testing.T) {
	h := newAPIHarness(t, 0)

	rec := h.do("alice", h.multipartRequest(http.MethodPost, "/api/files", "", "", map[string]string{"name": "x"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing file part")

	rec = h.do("alice", h.multipartRequest(http.MethodPost, "/api/files", "a.txt", "x", map[string]string{"is_public": "sure"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "bad boolean")

	capped := newAPIHarness(t, 512)
	rec = capped.do("alice", capped.multipartRequest(http.MethodPost, "/api/files", "big.bin", strings.Repeat("x", 4096), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, "over the request cap")
	assert.Equal(t, 0, capped.blobs.Len())

	rec = h.json("alice", http.MethodPost, "/api/files", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "not multipart")
}

func TestUploadQuotaExceeded(t *testing.T) {
	h := newAPIHarness(t, 0)
	big := strings.Repeat("x", (1<<20)+1)

	rec := h.do("alice", h.multipartRequest(http.MethodPost, "/api/files", "big.bin", big, nil))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
	p := decode[problem](t, rec)
	assert.Equal(t, int64(len(big)), p.Requested)
	assert.Equal(t, int64(1<<20), p.Available)
	assert.Equal(t, 0, h.blobs.Len())
}

func TestUploadStorageFailure(t *testing.T) {
	h := newAPIHarness(t, 0)
	h.blobs.SetFault(func(op blobmem.Op, ref string) error {
		if op == blobmem.OpPut {
			return errors.New("throttled")
		}
		return nil
	})

	rec := h.do("alice", h.multipartRequest(http.MethodPost, "/api/files", "a.txt", "x", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	p := decode[problem](t, rec)
	require.NotNil(t, p.Retryable)
	assert.True(t, *p.Retryable)
	assert.NotContains(t, p.Detail, "throttled")
}

func TestFileLifecycle(t *testing.T) {
	h := newAPIHarness(t, 0)
	docs := h.createFolder("alice", nil, "Docs")
	file := h.uploadFile("alice", nil, "notes.txt", "v1")

	rec := h.json("alice", http.MethodGet, "/api/files/"+file.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.json("alice", http.MethodPatch, "/api/files/"+file.ID, map[string]interface{}{"folder_id": docs.ID, "name": "todo.txt"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Docs/todo.txt", decode[drive.File](t, rec).Path)

	rec = h.json("alice", http.MethodPost, "/api/files/"+file.ID+"/move", `{"folder_id":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, decode[drive.File](t, rec).FolderID)

	rec = h.do("alice", h.multipartRequest(http.MethodPut, "/api/files/"+file.ID+"/content", "todo.txt", "version two", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[drive.File](t, rec)
	assert.Equal(t, 2, updated.Version)
	assert.Len(t, updated.PreviousVersions, 1)

	rec = h.json("alice", http.MethodPost, "/api/files/"+file.ID+"/copy", map[string]interface{}{"folder_id": docs.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	copied := decode[drive.File](t, rec)
	assert.Equal(t, "Docs/todo.txt", copied.Path)
	assert.NotEqual(t, file.ID, copied.ID)

	rec = h.json("alice", http.MethodGet, "/api/files?folder_id="+docs.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[drive.Page[drive.File]](t, rec).Total)

	rec = h.json("alice", http.MethodDelete, "/api/files/"+file.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[driveSvc.DeleteResult](t, rec)
	assert.Equal(t, 1, result.FilesDeleted)
	assert.Equal(t, int64(len("v1")+len("version two")), result.FreedBytes)

	rec = h.json("alice", http.MethodGet, "/api/files/"+file.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadFile(t *testing.T) {
	h := newAPIHarness(t, 0)
	file := h.uploadFile("alice", nil, "a.txt", "hello")

	rec := h.json("alice", http.MethodGet, "/api/files/"+file.ID+"/download", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	link := decode[driveSvc.DownloadLink](t, rec)
	assert.True(t, strings.HasPrefix(link.URL, "http://blobs.test/"), link.URL)
	assert.Equal(t, "a.txt", link.FileName)

	rec = h.json("alice", http.MethodGet, "/api/files/"+file.ID+"/download?redirect=true", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "http://blobs.test/"))

	rec = h.json("bob", http.MethodGet, "/api/files/"+file.ID+"/download", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	h := newAPIHarness(t, 0)
	file := h.uploadFile("alice", nil, "a.txt", "hello")

	// ready is terminal
	rec := h.json("alice", http.MethodPatch, "/api/files/"+file.ID+"/status", map[string]interface{}{"status": "processing"})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}
