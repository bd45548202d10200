package auth

import (
	"context"
	"fmt"

	"folio/internal/domain/models/drive"
	driveRepo "folio/internal/domain/repositories/drive"
	"folio/internal/service/access"
)

// PermissionAuthorizer implements NodeAuthorizer using the per-node permission block.
// A user can act on a node if they own it, it is public (read only), or they hold
// a sufficient grant in allowed_users.
type PermissionAuthorizer struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
}

// NewPermissionAuthorizer creates a new permission-based authorizer
func NewPermissionAuthorizer(folderRepo driveRepo.FolderRepository, fileRepo driveRepo.FileRepository) *PermissionAuthorizer {
	return &PermissionAuthorizer{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
	}
}

// AuthorizeFolder loads the folder and checks action
func (a *PermissionAuthorizer) AuthorizeFolder(ctx context.Context, userID, folderID string, action drive.Permission) (*drive.Folder, error) {
	folder, err := a.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("get folder for auth: %w", err)
	}
	if err := access.RequireFolder(folder, userID, action); err != nil {
		return nil, err
	}
	return folder, nil
}

// AuthorizeFile loads the file and checks action
func (a *PermissionAuthorizer) AuthorizeFile(ctx context.Context, userID, fileID string, action drive.Permission) (*drive.File, error) {
	file, err := a.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("get file for auth: %w", err)
	}
	if err := access.RequireFile(file, userID, action); err != nil {
		return nil, err
	}
	return file, nil
}
