package drive

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	"folio/internal/domain/services"
	driveSvc "folio/internal/domain/services/drive"
	"folio/internal/service/access"

	"github.com/google/uuid"
)

const defaultContentType = "application/octet-stream"

type fileService struct {
	*tree
	ledger     *Ledger
	authorizer services.NodeAuthorizer
	blobs      services.ObjectStore
	janitor    *blobJanitor
	opts       Options
}

// NewFileService creates a new file service
func NewFileService(deps Dependencies, ledger *Ledger, opts Options) driveSvc.FileService {
	return &fileService{
		tree:       newTree(deps),
		ledger:     ledger,
		authorizer: deps.Authorizer,
		blobs:      deps.Blobs,
		janitor:    &blobJanitor{blobs: deps.Blobs, metrics: deps.Metrics, logger: deps.Logger},
		opts:       opts.withDefaults(),
	}
}

// UploadFile stores the bytes, then records the file in one transaction.
// If anything fails after the bytes are stored, the blob is deleted again and
// nothing is charged.
func (s *fileService) UploadFile(ctx context.Context, userID string, req *driveSvc.UploadFileRequest) (_ *drive.File, err error) {
	defer s.observe("upload_file", time.Now(), &err)

	if userID == "" {
		return nil, &domain.UnauthorizedError{Message: "missing principal"}
	}
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}
	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return nil, err
	}
	description, err := normalizeDescription(req.Description)
	if err != nil {
		return nil, err
	}
	if err := validateUploadBody(req.Size, req.Body != nil); err != nil {
		return nil, err
	}

	lockKeys := []string{userID}
	if req.FolderID != nil {
		folder, err := s.authorizer.AuthorizeFolder(ctx, userID, *req.FolderID, drive.PermissionWrite)
		if err != nil {
			return nil, err
		}
		lockKeys = append(lockKeys, folder.OwnerID)
	}

	// Fail fast before streaming; both checks are repeated under the lock.
	if err := s.ensureNameFree(ctx, userID, req.FolderID, name, ""); err != nil {
		return nil, err
	}
	if err := s.ledger.CheckUpload(ctx, userID, req.Size); err != nil {
		return nil, err
	}

	now := s.opts.now()
	contentType := contentTypeOrDefault(req.ContentType)
	ref, err := s.blobs.Put(ctx, blobKey(userID, now), req.Body, req.Size, contentType)
	if err != nil {
		return nil, err
	}

	file := &drive.File{
		ID:               uuid.NewString(),
		Name:             name,
		OriginalName:     req.Name,
		Size:             req.Size,
		ContentType:      contentType,
		Extension:        drive.ExtensionOf(name),
		BlobRef:          ref,
		FolderID:         cloneID(req.FolderID),
		OwnerID:          userID,
		Permissions:      drive.Permissions{IsPublic: req.IsPublic, AllowedUsers: []drive.Grant{}},
		Description:      description,
		Tags:             tags,
		Version:          1,
		PreviousVersions: []drive.FileVersion{},
		Status:           drive.FileStatusUploading,
		UploadedAt:       now,
		UploadedBy:       userID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, lockKeys...); err != nil {
			return err
		}
		folder, err := s.destination(ctx, userID, file.FolderID)
		if err != nil {
			return err
		}
		file.ParentPath, _ = drive.ChildPlacement(folder)
		if err := s.ensureNameFree(ctx, userID, file.FolderID, file.Name, ""); err != nil {
			return err
		}
		if err := s.ledger.Charge(ctx, userID, file.Size); err != nil {
			return err
		}
		if err := s.finishUpload(file); err != nil {
			return err
		}
		if err := s.fileRepo.Create(ctx, file); err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		return s.stats.refresh(ctx, file.FolderID)
	})
	if err != nil {
		s.janitor.discard(ctx, ref)
		return nil, err
	}

	s.metrics.RecordUpload(file.Size)
	file.Path = drive.FilePath(file)
	s.logger.Info("file uploaded",
		"id", file.ID,
		"name", file.Name,
		"owner_id", file.OwnerID,
		"folder_id", file.FolderID,
		"path", file.Path,
		"size", file.Size,
		"status", file.Status,
	)
	return file, nil
}

// finishUpload advances a freshly stored file through the state machine.
// With external processing the analyzer later reports ready or error.
func (s *fileService) finishUpload(file *drive.File) error {
	if err := transition(file, drive.FileStatusProcessing); err != nil {
		return err
	}
	if s.opts.ExternalProcessing {
		return nil
	}
	if err := transition(file, drive.FileStatusReady); err != nil {
		return err
	}
	file.ProcessingProgress = 100
	return nil
}

func transition(file *drive.File, to drive.FileStatus) error {
	if !drive.CanTransition(file.Status, to) {
		return &domain.StateError{From: string(file.Status), To: string(to)}
	}
	file.Status = to
	return nil
}

// UploadVersion replaces the content of a file, keeping the prior version in history.
// Every version stays in the object store and counts toward the owner's quota.
func (s *fileService) UploadVersion(ctx context.Context, userID, fileID string, req *driveSvc.UploadVersionRequest) (_ *drive.File, err error) {
	defer s.observe("upload_version", time.Now(), &err)

	if err := validateUploadBody(req.Size, req.Body != nil); err != nil {
		return nil, err
	}
	current, err := s.authorizer.AuthorizeFile(ctx, userID, fileID, drive.PermissionWrite)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.CheckUpload(ctx, current.OwnerID, req.Size); err != nil {
		return nil, err
	}

	now := s.opts.now()
	contentType := contentTypeOrDefault(req.ContentType)
	ref, err := s.blobs.Put(ctx, blobKey(current.OwnerID, now), req.Body, req.Size, contentType)
	if err != nil {
		return nil, err
	}

	var file *drive.File
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, userID, current.OwnerID); err != nil {
			return err
		}
		file, err = s.loadFile(ctx, userID, fileID, drive.PermissionWrite)
		if err != nil {
			return err
		}
		if err := s.ledger.Charge(ctx, file.OwnerID, req.Size); err != nil {
			return err
		}

		file.PreviousVersions = append(file.PreviousVersions, drive.FileVersion{
			Version:    file.Version,
			BlobRef:    file.BlobRef,
			Size:       file.Size,
			UploadedAt: file.UploadedAt,
			UploadedBy: file.UploadedBy,
		})
		file.Version++
		file.BlobRef = ref
		file.Size = req.Size
		file.ContentType = contentType
		file.UploadedAt = now
		file.UploadedBy = userID
		file.UpdatedAt = now
		file.ExtractedText = ""
		file.ErrorMessage = ""
		file.ProcessingProgress = 0
		file.Status = drive.FileStatusUploading
		if err := s.finishUpload(file); err != nil {
			return err
		}

		if err := s.fileRepo.Update(ctx, file); err != nil {
			return fmt.Errorf("update file: %w", err)
		}
		return s.stats.refresh(ctx, file.FolderID)
	})
	if err != nil {
		s.janitor.discard(ctx, ref)
		return nil, err
	}

	s.metrics.RecordUpload(req.Size)
	file.Path = drive.FilePath(file)
	s.logger.Info("file version uploaded",
		"id", file.ID,
		"owner_id", file.OwnerID,
		"version", file.Version,
		"size", file.Size,
	)
	return file, nil
}

// GetFile retrieves a file
func (s *fileService) GetFile(ctx context.Context, userID, fileID string) (_ *drive.File, err error) {
	defer s.observe("get_file", time.Now(), &err)
	return s.authorizer.AuthorizeFile(ctx, userID, fileID, drive.PermissionRead)
}

// UpdateFile applies a rename, move, metadata or permission patch
func (s *fileService) UpdateFile(ctx context.Context, userID, fileID string, req *driveSvc.UpdateFileRequest) (_ *drive.File, err error) {
	defer s.observe("update_file", time.Now(), &err)
	return s.updateFile(ctx, userID, fileID, req)
}

// MoveFile moves a file into newFolderID (nil = root)
func (s *fileService) MoveFile(ctx context.Context, userID, fileID string, newFolderID *string) (_ *drive.File, err error) {
	defer s.observe("move_file", time.Now(), &err)
	return s.updateFile(ctx, userID, fileID, &driveSvc.UpdateFileRequest{
		Folder: driveSvc.OptionalParent{Present: true, Value: newFolderID},
	})
}

func (s *fileService) updateFile(ctx context.Context, userID, fileID string, req *driveSvc.UpdateFileRequest) (*drive.File, error) {
	if req.Empty() {
		return nil, domain.NewValidationError("at least one field must be provided")
	}
	patch, err := normalizeFilePatch(req)
	if err != nil {
		return nil, err
	}

	current, err := s.authorizer.AuthorizeFile(ctx, userID, fileID, drive.PermissionWrite)
	if err != nil {
		return nil, err
	}
	lockKeys := []string{userID, current.OwnerID}
	if req.Folder.Present {
		destOwner, err := s.ownerOf(ctx, req.Folder.Value)
		if err != nil {
			return nil, err
		}
		lockKeys = append(lockKeys, destOwner)
	}

	var file *drive.File
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, lockKeys...); err != nil {
			return err
		}
		file, err = s.loadFile(ctx, userID, fileID, drive.PermissionWrite)
		if err != nil {
			return err
		}
		if patch.changesPermissions() {
			if err := access.RequireFile(file, userID, drive.PermissionAdmin); err != nil {
				return err
			}
		}

		oldFolderID := cloneID(file.FolderID)
		patch.applyToFile(file)
		if patch.name != nil {
			file.Name = *patch.name
			file.Extension = drive.ExtensionOf(file.Name)
		}
		if req.Folder.Present {
			folder, err := s.destination(ctx, userID, req.Folder.Value)
			if err != nil {
				return err
			}
			file.FolderID = cloneID(req.Folder.Value)
			file.ParentPath, _ = drive.ChildPlacement(folder)
		}
		if patch.name != nil || req.Folder.Present {
			if err := s.ensureNameFree(ctx, file.OwnerID, file.FolderID, file.Name, file.ID); err != nil {
				return err
			}
		}

		file.UpdatedAt = s.opts.now()
		if err := s.fileRepo.Update(ctx, file); err != nil {
			return fmt.Errorf("update file: %w", err)
		}
		if !sameParent(oldFolderID, file.FolderID) {
			return s.stats.refresh(ctx, oldFolderID, file.FolderID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	file.Path = drive.FilePath(file)
	s.logger.Info("file updated",
		"id", file.ID,
		"name", file.Name,
		"owner_id", file.OwnerID,
		"folder_id", file.FolderID,
		"path", file.Path,
	)
	return file, nil
}

// CopyFile duplicates the current version of a file into a folder.
// The copy belongs to, and is charged to, the caller.
func (s *fileService) CopyFile(ctx context.Context, userID, fileID string, req *driveSvc.CopyFileRequest) (_ *drive.File, err error) {
	defer s.observe("copy_file", time.Now(), &err)

	if userID == "" {
		return nil, &domain.UnauthorizedError{Message: "missing principal"}
	}
	src, err := s.authorizer.AuthorizeFile(ctx, userID, fileID, drive.PermissionRead)
	if err != nil {
		return nil, err
	}

	var name string
	switch {
	case req.Name != nil:
		if name, err = normalizeName(*req.Name); err != nil {
			return nil, err
		}
	case sameParent(src.FolderID, req.FolderID) && src.OwnerID == userID:
		name = copyName(src.Name)
	default:
		name = src.Name
	}

	lockKeys := []string{userID, src.OwnerID}
	if req.FolderID != nil {
		folder, err := s.authorizer.AuthorizeFolder(ctx, userID, *req.FolderID, drive.PermissionWrite)
		if err != nil {
			return nil, err
		}
		lockKeys = append(lockKeys, folder.OwnerID)
	}
	if err := s.ledger.CheckUpload(ctx, userID, src.Size); err != nil {
		return nil, err
	}

	now := s.opts.now()
	ref := blobKey(userID, now)
	if err := s.blobs.Copy(ctx, src.BlobRef, ref); err != nil {
		return nil, err
	}

	var file *drive.File
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, lockKeys...); err != nil {
			return err
		}
		source, err := s.loadFile(ctx, userID, fileID, drive.PermissionRead)
		if err != nil {
			return err
		}
		if source.BlobRef != src.BlobRef {
			return &domain.ConflictError{
				Message:      "file content changed while copying",
				ResourceType: "file",
				ResourceID:   source.ID,
			}
		}
		folder, err := s.destination(ctx, userID, req.FolderID)
		if err != nil {
			return err
		}
		parentPath, _ := drive.ChildPlacement(folder)
		if err := s.ensureNameFree(ctx, userID, req.FolderID, name, ""); err != nil {
			return err
		}
		if err := s.ledger.Charge(ctx, userID, source.Size); err != nil {
			return err
		}

		file = &drive.File{
			ID:                 uuid.NewString(),
			Name:               name,
			OriginalName:       source.OriginalName,
			Size:               source.Size,
			ContentType:        source.ContentType,
			Extension:          drive.ExtensionOf(name),
			BlobRef:            ref,
			FolderID:           cloneID(req.FolderID),
			ParentPath:         parentPath,
			OwnerID:            userID,
			Permissions:        drive.Permissions{AllowedUsers: []drive.Grant{}},
			Description:        source.Description,
			Tags:               append([]string{}, source.Tags...),
			ExtractedText:      source.ExtractedText,
			Version:            1,
			PreviousVersions:   []drive.FileVersion{},
			Status:             source.Status,
			ProcessingProgress: source.ProcessingProgress,
			ErrorMessage:       source.ErrorMessage,
			UploadedAt:         now,
			UploadedBy:         userID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.fileRepo.Create(ctx, file); err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		return s.stats.refresh(ctx, file.FolderID)
	})
	if err != nil {
		s.janitor.discard(ctx, ref)
		return nil, err
	}

	s.metrics.RecordUpload(file.Size)
	file.Path = drive.FilePath(file)
	s.logger.Info("file copied",
		"id", file.ID,
		"source_id", fileID,
		"owner_id", file.OwnerID,
		"path", file.Path,
		"size", file.Size,
	)
	return file, nil
}

// copyName turns "report.pdf" into "report (copy).pdf"
func copyName(name string) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		return name + " (copy)"
	}
	return base + " (copy)" + ext
}

// DeleteFile deletes a file and every stored version
func (s *fileService) DeleteFile(ctx context.Context, userID, fileID string) (_ *driveSvc.DeleteResult, err error) {
	defer s.observe("delete_file", time.Now(), &err)

	current, err := s.authorizer.AuthorizeFile(ctx, userID, fileID, drive.PermissionWrite)
	if err != nil {
		return nil, err
	}

	var file *drive.File
	result := &driveSvc.DeleteResult{}
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, userID, current.OwnerID); err != nil {
			return err
		}
		file, err = s.loadFile(ctx, userID, fileID, drive.PermissionWrite)
		if err != nil {
			return err
		}
		if err := s.fileRepo.DeleteMany(ctx, []string{file.ID}); err != nil {
			return fmt.Errorf("delete file: %w", err)
		}
		result.FilesDeleted = 1
		result.FreedBytes = drive.StoredBytes(file)
		if err := s.ledger.Release(ctx, file.OwnerID, result.FreedBytes); err != nil {
			return err
		}
		return s.stats.refresh(ctx, file.FolderID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordFreed(result.FreedBytes)
	result.Warnings = s.janitor.purge(ctx, drive.BlobRefs(file))

	s.logger.Info("file deleted",
		"id", file.ID,
		"name", file.Name,
		"owner_id", file.OwnerID,
		"freed_bytes", result.FreedBytes,
		"blob_warnings", len(result.Warnings),
	)
	return result, nil
}

// DownloadURL issues a signed URL for the current version and counts the download
func (s *fileService) DownloadURL(ctx context.Context, userID, fileID string) (_ *driveSvc.DownloadLink, err error) {
	defer s.observe("download_url", time.Now(), &err)

	file, err := s.authorizer.AuthorizeFile(ctx, userID, fileID, drive.PermissionRead)
	if err != nil {
		return nil, err
	}
	return signedDownload(ctx, s.blobs, s.fileRepo.IncrementDownloads, file, s.opts)
}

func signedDownload(ctx context.Context, blobs services.ObjectStore, countDownload func(context.Context, string) error, file *drive.File, opts Options) (*driveSvc.DownloadLink, error) {
	url, err := blobs.SignedURL(ctx, file.BlobRef, opts.SignedURLTTL)
	if err != nil {
		return nil, err
	}
	if err := countDownload(ctx, file.ID); err != nil {
		return nil, fmt.Errorf("count download: %w", err)
	}
	return &driveSvc.DownloadLink{
		URL:       url,
		ExpiresAt: opts.now().Add(opts.SignedURLTTL),
		FileName:  file.Name,
	}, nil
}

// UpdateStatus advances the processing state machine.
// Repeating the current non-terminal status only updates progress.
func (s *fileService) UpdateStatus(ctx context.Context, userID, fileID string, req *driveSvc.UpdateStatusRequest) (_ *drive.File, err error) {
	defer s.observe("update_status", time.Now(), &err)

	if !req.Status.Valid() {
		return nil, domain.NewValidationError("unknown status %q", req.Status)
	}
	if req.Progress != nil && (*req.Progress < 0 || *req.Progress > 100) {
		return nil, domain.NewValidationError("progress must be between 0 and 100")
	}

	current, err := s.authorizer.AuthorizeFile(ctx, userID, fileID, drive.PermissionWrite)
	if err != nil {
		return nil, err
	}

	var file *drive.File
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, current.OwnerID); err != nil {
			return err
		}
		file, err = s.loadFile(ctx, userID, fileID, drive.PermissionWrite)
		if err != nil {
			return err
		}

		if req.Status != file.Status || file.Status.Terminal() {
			if err := transition(file, req.Status); err != nil {
				return err
			}
		}
		if req.Progress != nil {
			file.ProcessingProgress = *req.Progress
		}
		switch file.Status {
		case drive.FileStatusReady:
			file.ProcessingProgress = 100
			file.ErrorMessage = ""
		case drive.FileStatusError:
			file.ErrorMessage = req.ErrorMessage
		}
		if req.ExtractedText != nil {
			file.ExtractedText = *req.ExtractedText
		}
		file.UpdatedAt = s.opts.now()

		if err := s.fileRepo.Update(ctx, file); err != nil {
			return fmt.Errorf("update file status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	file.Path = drive.FilePath(file)
	s.logger.Info("file status updated",
		"id", file.ID,
		"status", file.Status,
		"progress", file.ProcessingProgress,
	)
	return file, nil
}

// ListFiles lists one page of files in a folder (nil = caller's root)
func (s *fileService) ListFiles(ctx context.Context, userID string, opts *drive.ListOptions) (_ *drive.Page[drive.File], err error) {
	defer s.observe("list_files", time.Now(), &err)

	if err := validateListOptions(opts); err != nil {
		return nil, err
	}
	opts.OwnerID = userID
	if opts.ParentID != nil {
		if _, err := s.authorizer.AuthorizeFolder(ctx, userID, *opts.ParentID, drive.PermissionRead); err != nil {
			return nil, err
		}
	}

	files, total, err := s.fileRepo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return drive.NewPage(files, total, opts), nil
}

func validateUploadBody(size int64, hasBody bool) error {
	if err := validateSize(size); err != nil {
		return err
	}
	if !hasBody {
		return domain.NewValidationError("file content is required")
	}
	return nil
}

func contentTypeOrDefault(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return defaultContentType
	}
	return contentType
}
