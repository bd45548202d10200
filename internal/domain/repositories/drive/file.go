package drive

import (
	"context"

	"folio/internal/domain/models/drive"
)

// FileRepository defines data access operations for files
type FileRepository interface {
	// Create inserts a new file (ID assigned by the caller)
	Create(ctx context.Context, file *drive.File) error

	// GetByID retrieves a file by ID
	GetByID(ctx context.Context, id string) (*drive.File, error)

	// Update writes every mutable column of the file
	Update(ctx context.Context, file *drive.File) error

	// IncrementDownloads bumps download_count by one
	IncrementDownloads(ctx context.Context, id string) error

	// DeleteMany removes files by id
	DeleteMany(ctx context.Context, ids []string) error

	// ListByFolder lists files directly inside folderID
	ListByFolder(ctx context.Context, folderID string) ([]drive.File, error)

	// ListRoots lists root-level files of an owner
	ListRoots(ctx context.Context, ownerID string) ([]drive.File, error)

	// FindByName finds a sibling by name under folderID; nil, nil if none.
	// ownerID scopes the lookup only at the root level (folderID nil).
	FindByName(ctx context.Context, ownerID string, folderID *string, name string) (*drive.File, error)

	// UpdatePlacements writes parent_path of many files (cascade write-back)
	UpdatePlacements(ctx context.Context, files []drive.File) error

	// List returns one page of files and the total match count
	List(ctx context.Context, opts *drive.ListOptions) ([]drive.File, int, error)

	// GetByShareToken finds the file carrying an active share token
	GetByShareToken(ctx context.Context, token string) (*drive.File, error)
}
