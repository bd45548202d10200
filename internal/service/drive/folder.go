package drive

import (
	"context"
	"fmt"
	"time"

	"folio/internal/config"
	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	"folio/internal/domain/services"
	driveSvc "folio/internal/domain/services/drive"
	"folio/internal/service/access"

	"github.com/google/uuid"
)

type folderService struct {
	*tree
	ledger     *Ledger
	authorizer services.NodeAuthorizer
	janitor    *blobJanitor
	opts       Options
}

// NewFolderService creates a new folder service
func NewFolderService(deps Dependencies, ledger *Ledger, opts Options) driveSvc.FolderService {
	return &folderService{
		tree:       newTree(deps),
		ledger:     ledger,
		authorizer: deps.Authorizer,
		janitor:    &blobJanitor{blobs: deps.Blobs, metrics: deps.Metrics, logger: deps.Logger},
		opts:       opts.withDefaults(),
	}
}

// CreateFolder creates a folder under an optional parent
func (s *folderService) CreateFolder(ctx context.Context, userID string, req *driveSvc.CreateFolderRequest) (_ *drive.Folder, err error) {
	defer s.observe("create_folder", time.Now(), &err)

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

	lockKeys := []string{userID}
	if req.ParentID != nil {
		parent, err := s.authorizer.AuthorizeFolder(ctx, userID, *req.ParentID, drive.PermissionWrite)
		if err != nil {
			return nil, err
		}
		lockKeys = append(lockKeys, parent.OwnerID)
	}

	now := s.opts.now()
	folder := &drive.Folder{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  description,
		ParentID:     cloneID(req.ParentID),
		OwnerID:      userID,
		Permissions:  drive.Permissions{IsPublic: req.IsPublic, AllowedUsers: []drive.Grant{}},
		Color:        req.Color,
		Icon:         req.Icon,
		Tags:         tags,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastModified: now,
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, lockKeys...); err != nil {
			return err
		}
		parent, err := s.destination(ctx, userID, folder.ParentID)
		if err != nil {
			return err
		}
		folder.ParentPath, folder.Level = drive.ChildPlacement(parent)
		if folder.Level > config.MaxFolderDepth {
			return depthExceeded(folder.ID, folder.Level)
		}
		if err := s.ensureNameFree(ctx, userID, folder.ParentID, folder.Name, ""); err != nil {
			return err
		}
		if err := s.folderRepo.Create(ctx, folder); err != nil {
			return fmt.Errorf("create folder: %w", err)
		}
		return s.stats.refresh(ctx, folder.ParentID)
	})
	if err != nil {
		return nil, err
	}

	folder.Path = drive.FolderPath(folder)
	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"owner_id", folder.OwnerID,
		"parent_id", folder.ParentID,
		"path", folder.Path,
		"level", folder.Level,
	)
	return folder, nil
}

// GetFolder retrieves a folder with its direct children
func (s *folderService) GetFolder(ctx context.Context, userID, folderID string) (_ *drive.Contents, err error) {
	defer s.observe("get_folder", time.Now(), &err)

	folder, err := s.authorizer.AuthorizeFolder(ctx, userID, folderID, drive.PermissionRead)
	if err != nil {
		return nil, err
	}

	folders, err := s.folderRepo.ListChildren(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list child folders: %w", err)
	}
	files, err := s.fileRepo.ListByFolder(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	if err := s.folderRepo.TouchAccessed(ctx, folder.ID); err != nil {
		s.logger.Warn("failed to record folder access", "folder_id", folder.ID, "error", err)
	} else {
		now := s.opts.now()
		folder.LastAccessedAt = &now
	}

	if folders == nil {
		folders = []drive.Folder{}
	}
	if files == nil {
		files = []drive.File{}
	}
	return &drive.Contents{Folder: folder, Folders: folders, Files: files}, nil
}

// UpdateFolder applies a rename, move, metadata or permission patch
func (s *folderService) UpdateFolder(ctx context.Context, userID, folderID string, req *driveSvc.UpdateFolderRequest) (_ *drive.Folder, err error) {
	defer s.observe("update_folder", time.Now(), &err)
	return s.updateFolder(ctx, userID, folderID, req)
}

// MoveFolder moves a folder under newParentID (nil = root)
func (s *folderService) MoveFolder(ctx context.Context, userID, folderID string, newParentID *string) (_ *drive.Folder, err error) {
	defer s.observe("move_folder", time.Now(), &err)
	return s.updateFolder(ctx, userID, folderID, &driveSvc.UpdateFolderRequest{
		Parent: driveSvc.OptionalParent{Present: true, Value: newParentID},
	})
}

func (s *folderService) updateFolder(ctx context.Context, userID, folderID string, req *driveSvc.UpdateFolderRequest) (*drive.Folder, error) {
	if req.Empty() {
		return nil, domain.NewValidationError("at least one field must be provided")
	}
	patch, err := normalizeFolderPatch(req)
	if err != nil {
		return nil, err
	}

	current, err := s.authorizer.AuthorizeFolder(ctx, userID, folderID, drive.PermissionWrite)
	if err != nil {
		return nil, err
	}
	lockKeys := []string{userID, current.OwnerID}
	if req.Parent.Present {
		destOwner, err := s.ownerOf(ctx, req.Parent.Value)
		if err != nil {
			return nil, err
		}
		lockKeys = append(lockKeys, destOwner)
	}

	var (
		folder  *drive.Folder
		oldPath string
	)
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, lockKeys...); err != nil {
			return err
		}

		folder, err = s.loadFolder(ctx, userID, folderID, drive.PermissionWrite)
		if err != nil {
			return err
		}
		if patch.changesPermissions() {
			if err := access.RequireFolder(folder, userID, drive.PermissionAdmin); err != nil {
				return err
			}
		}

		now := s.opts.now()
		oldParentID := cloneID(folder.ParentID)
		oldPath = drive.FolderPath(folder)
		oldLevel := folder.Level

		var st *subtree
		if patch.name != nil || req.Parent.Present {
			st, err = s.collectSubtree(ctx, folder)
			if err != nil {
				return err
			}
		}

		patch.applyTo(folder)
		if patch.name != nil {
			folder.Name = *patch.name
		}
		if req.Parent.Present {
			if err := s.place(ctx, userID, folder, st, oldPath, req.Parent.Value); err != nil {
				return err
			}
		}
		if patch.name != nil || req.Parent.Present {
			if err := s.ensureNameFree(ctx, folder.OwnerID, folder.ParentID, folder.Name, folder.ID); err != nil {
				return err
			}
		}

		folder.UpdatedAt = now
		folder.LastModified = now
		if err := s.folderRepo.Update(ctx, folder); err != nil {
			return fmt.Errorf("update folder: %w", err)
		}

		delta := folder.Level - oldLevel
		if st != nil && (drive.FolderPath(folder) != oldPath || delta != 0) {
			st.root = folder
			if err := s.rebase(ctx, st, oldPath, delta, now); err != nil {
				return err
			}
		}
		if !sameParent(oldParentID, folder.ParentID) {
			return s.stats.refresh(ctx, oldParentID, folder.ParentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("folder updated",
		"id", updated.ID,
		"name", updated.Name,
		"owner_id", updated.OwnerID,
		"parent_id", updated.ParentID,
		"old_path", oldPath,
		"path", updated.Path,
	)
	return updated, nil
}

// place validates and applies a move of folder under newParentID (nil = root).
// st is folder's subtree collected before the move and oldPath its full path
// before any rename in the same update. Paths are only unique per owner, so the
// prefix check applies to same-owner destinations.
func (s *folderService) place(ctx context.Context, userID string, folder *drive.Folder, st *subtree, oldPath string, newParentID *string) error {
	if newParentID != nil && *newParentID == folder.ID {
		return circularMove(folder.ID, folder.ID)
	}
	parent, err := s.destination(ctx, userID, newParentID)
	if err != nil {
		return err
	}
	if parent != nil && (st.containsFolder(parent.ID) || ownPrefix(parent, folder.OwnerID, oldPath)) {
		return circularMove(folder.ID, parent.ID)
	}

	parentPath, level := drive.ChildPlacement(parent)
	delta := level - folder.Level
	if deepest := st.maxLevel() + delta; deepest > config.MaxFolderDepth {
		return depthExceeded(folder.ID, deepest)
	}

	folder.ParentID = cloneID(newParentID)
	folder.ParentPath = parentPath
	folder.Level = level
	s.logger.Debug("moving folder", "folder_id", folder.ID, "new_parent_id", newParentID)
	return nil
}

func ownPrefix(parent *drive.Folder, ownerID, path string) bool {
	return parent.OwnerID == ownerID && drive.IsWithin(drive.FolderPath(parent), path)
}

// DeleteFolder deletes a folder; force removes the whole subtree
func (s *folderService) DeleteFolder(ctx context.Context, userID, folderID string, force bool) (_ *driveSvc.DeleteResult, err error) {
	defer s.observe("delete_folder", time.Now(), &err)

	current, err := s.authorizer.AuthorizeFolder(ctx, userID, folderID, drive.PermissionWrite)
	if err != nil {
		return nil, err
	}

	result := &driveSvc.DeleteResult{}
	var (
		refs   []string
		folder *drive.Folder
	)
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.lock(ctx, userID, current.OwnerID); err != nil {
			return err
		}
		folder, err = s.loadFolder(ctx, userID, folderID, drive.PermissionWrite)
		if err != nil {
			return err
		}

		st, err := s.collectSubtree(ctx, folder)
		if err != nil {
			return err
		}
		if !force && (len(st.folders) > 0 || len(st.files) > 0) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder %q is not empty", folder.Name),
				Reason:       domain.ConflictNotEmpty,
				ResourceType: "folder",
				ResourceID:   folder.ID,
			}
		}
		if err := s.lock(ctx, st.owners()...); err != nil {
			return err
		}

		freed := make(map[string]int64)
		for i := range st.files {
			freed[st.files[i].OwnerID] += drive.StoredBytes(&st.files[i])
			refs = append(refs, drive.BlobRefs(&st.files[i])...)
		}

		if len(st.files) > 0 {
			if err := s.fileRepo.DeleteMany(ctx, st.fileIDs()); err != nil {
				return fmt.Errorf("delete files: %w", err)
			}
		}
		if err := s.folderRepo.DeleteMany(ctx, st.folderIDsDeepestFirst()); err != nil {
			return fmt.Errorf("delete folders: %w", err)
		}
		for _, ownerID := range uniqueSorted(mapKeys(freed)) {
			if err := s.ledger.Release(ctx, ownerID, freed[ownerID]); err != nil {
				return err
			}
			result.FreedBytes += freed[ownerID]
		}

		result.FoldersDeleted = len(st.folders) + 1
		result.FilesDeleted = len(st.files)
		return s.stats.refresh(ctx, folder.ParentID)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordFreed(result.FreedBytes)
	result.Warnings = s.janitor.purge(ctx, refs)

	s.logger.Info("folder deleted",
		"id", folder.ID,
		"name", folder.Name,
		"owner_id", folder.OwnerID,
		"path", drive.FolderPath(folder),
		"force", force,
		"folders_deleted", result.FoldersDeleted,
		"files_deleted", result.FilesDeleted,
		"freed_bytes", result.FreedBytes,
		"blob_warnings", len(result.Warnings),
	)
	return result, nil
}

// ListFolders lists one page of folders under a parent (nil = caller's root)
func (s *folderService) ListFolders(ctx context.Context, userID string, opts *drive.ListOptions) (_ *drive.Page[drive.Folder], err error) {
	defer s.observe("list_folders", time.Now(), &err)

	if err := validateListOptions(opts); err != nil {
		return nil, err
	}
	opts.OwnerID = userID
	if opts.ParentID != nil {
		if _, err := s.authorizer.AuthorizeFolder(ctx, userID, *opts.ParentID, drive.PermissionRead); err != nil {
			return nil, err
		}
	}

	folders, total, err := s.folderRepo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	return drive.NewPage(folders, total, opts), nil
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
