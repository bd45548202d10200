package drive

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"folio/internal/domain/models/drive"
	"folio/internal/domain/repositories"
	driveRepo "folio/internal/domain/repositories/drive"
	driveSvc "folio/internal/domain/services/drive"
	blobmem "folio/internal/objectstore/memory"
	"folio/internal/repository/memory"
	"folio/internal/service/auth"

	"github.com/stretchr/testify/require"
)

const testLimit int64 = 1 << 20

type harness struct {
	t   *testing.T
	ctx context.Context

	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	ownerRepo  repositories.OwnerRepository
	blobs      *blobmem.Store

	folders driveSvc.FolderService
	files   driveSvc.FileService
	shares  driveSvc.ShareService
	quota   driveSvc.QuotaService

	clock time.Time
}

func newHarness(t *testing.T, configure ...func(*Options)) *harness {
	t.Helper()

	store := memory.NewStore()
	h := &harness{
		t:          t,
		ctx:        context.Background(),
		folderRepo: memory.NewFolderRepository(store),
		fileRepo:   memory.NewFileRepository(store),
		ownerRepo:  memory.NewOwnerRepository(store),
		blobs:      blobmem.New("http://blobs.test"),
		clock:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	opts := Options{
		DefaultStorageLimit: testLimit,
		SignedURLTTL:        time.Minute,
		PublicBaseURL:       "https://folio.test/",
		Now:                 func() time.Time { return h.clock },
	}
	for _, fn := range configure {
		fn(&opts)
	}

	deps := Dependencies{
		FolderRepo: h.folderRepo,
		FileRepo:   h.fileRepo,
		OwnerRepo:  h.ownerRepo,
		TxManager:  memory.NewTransactionManager(store),
		Locker:     memory.NewLocker(),
		Authorizer: auth.NewPermissionAuthorizer(h.folderRepo, h.fileRepo),
		Blobs:      h.blobs,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	ledger := NewLedger(h.ownerRepo, opts.DefaultStorageLimit)

	h.folders = NewFolderService(deps, ledger, opts)
	h.files = NewFileService(deps, ledger, opts)
	h.shares = NewShareService(deps, opts)
	h.quota = NewQuotaService(ledger)
	return h
}

func ptr(s string) *string { return &s }

func (h *harness) mkdir(userID string, parentID *string, name string) *drive.Folder {
	h.t.Helper()
	folder, err := h.folders.CreateFolder(h.ctx, userID, &driveSvc.CreateFolderRequest{ParentID: parentID, Name: name})
	require.NoError(h.t, err)
	return folder
}

func (h *harness) upload(userID string, folderID *string, name, content string) *drive.File {
	h.t.Helper()
	file, err := h.files.UploadFile(h.ctx, userID, &driveSvc.UploadFileRequest{
		FolderID:    folderID,
		Name:        name,
		ContentType: "text/plain",
		Size:        int64(len(content)),
		Body:        strings.NewReader(content),
	})
	require.NoError(h.t, err)
	return file
}

func (h *harness) folder(id string) *drive.Folder {
	h.t.Helper()
	folder, err := h.folderRepo.GetByID(h.ctx, id)
	require.NoError(h.t, err)
	return folder
}

func (h *harness) file(id string) *drive.File {
	h.t.Helper()
	file, err := h.fileRepo.GetByID(h.ctx, id)
	require.NoError(h.t, err)
	return file
}

func (h *harness) used(ownerID string) int64 {
	h.t.Helper()
	usage, err := h.quota.Usage(h.ctx, ownerID)
	require.NoError(h.t, err)
	return usage.Used
}

func (h *harness) grant(ownerID, folderID, userID string, perm drive.Permission) {
	h.t.Helper()
	grants := []drive.Grant{{UserID: userID, Permission: perm}}
	_, err := h.folders.UpdateFolder(h.ctx, ownerID, folderID, &driveSvc.UpdateFolderRequest{AllowedUsers: &grants})
	require.NoError(h.t, err)
}
