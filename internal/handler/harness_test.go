package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"folio/internal/httputil"
	blobmem "folio/internal/objectstore/memory"
	"folio/internal/repository/memory"
	"folio/internal/service/auth"
	driveService "folio/internal/service/drive"

	"github.com/stretchr/testify/require"
)

type apiHarness struct {
	t      *testing.T
	router http.Handler
	blobs  *blobmem.Store
}

func newAPIHarness(t *testing.T, maxUpload int64) *apiHarness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewStore()
	folderRepo := memory.NewFolderRepository(store)
	fileRepo := memory.NewFileRepository(store)
	ownerRepo := memory.NewOwnerRepository(store)
	blobs := blobmem.New("http://blobs.test")

	deps := driveService.Dependencies{
		FolderRepo: folderRepo,
		FileRepo:   fileRepo,
		OwnerRepo:  ownerRepo,
		TxManager:  memory.NewTransactionManager(store),
		Locker:     memory.NewLocker(),
		Authorizer: auth.NewPermissionAuthorizer(folderRepo, fileRepo),
		Blobs:      blobs,
		Logger:     logger,
	}
	opts := driveService.Options{
		DefaultStorageLimit: 1 << 20,
		SignedURLTTL:        time.Minute,
		PublicBaseURL:       "https://folio.test",
	}
	ledger := driveService.NewLedger(ownerRepo, opts.DefaultStorageLimit)

	router := NewRouter(Handlers{
		Folders: NewFolderHandler(driveService.NewFolderService(deps, ledger, opts), logger),
		Files:   NewFileHandler(driveService.NewFileService(deps, ledger, opts), maxUpload, logger),
		Shares:  NewShareHandler(driveService.NewShareService(deps, opts), logger),
		Quota:   NewQuotaHandler(driveService.NewQuotaService(ledger), logger),
		Health:  NewHealthHandler(nil, logger),
	})
	return &apiHarness{t: t, router: router, blobs: blobs}
}

// do sends a request as userID ("" = anonymous) and returns the recorder
func (h *apiHarness) do(userID string, req *http.Request) *httptest.ResponseRecorder {
	h.t.Helper()
	if userID != "" {
		req = httputil.WithUserID(req, userID)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *apiHarness) json(userID, method, path string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			payload, err := json.Marshal(b)
			require.NoError(h.t, err)
			reader = bytes.NewReader(payload)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return h.do(userID, req)
}

// multipartRequest builds a multipart body with a file part and form fields
func (h *apiHarness) multipartRequest(method, path, fileName, content string, fields map[string]string) *http.Request {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(h.t, err)
		_, err = part.Write([]byte(content))
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type problem struct {
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	Reason    string `json:"reason"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
	Retryable *bool  `json:"retryable"`
}
