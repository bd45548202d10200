package drive

import (
	"context"

	"folio/internal/domain/models/drive"
)

// FolderRepository defines data access operations for folders
type FolderRepository interface {
	// Create inserts a new folder (ID assigned by the caller)
	Create(ctx context.Context, folder *drive.Folder) error

	// GetByID retrieves a folder by ID
	GetByID(ctx context.Context, id string) (*drive.Folder, error)

	// Update writes every mutable column of the folder
	Update(ctx context.Context, folder *drive.Folder) error

	// UpdateStatistics writes only the cached direct-children counters
	UpdateStatistics(ctx context.Context, id string, stats drive.Statistics) error

	// TouchAccessed sets last_accessed_at
	TouchAccessed(ctx context.Context, id string) error

	// DeleteMany removes folders by id
	DeleteMany(ctx context.Context, ids []string) error

	// ListChildren lists immediate child folders of parentID
	ListChildren(ctx context.Context, parentID string) ([]drive.Folder, error)

	// ListRoots lists root-level folders of an owner
	ListRoots(ctx context.Context, ownerID string) ([]drive.Folder, error)

	// FindByName finds a sibling by name under parentID; nil, nil if none.
	// ownerID scopes the lookup only at the root level (parentID nil).
	FindByName(ctx context.Context, ownerID string, parentID *string, name string) (*drive.Folder, error)

	// UpdatePlacements writes parent_path and level of many folders (cascade write-back)
	UpdatePlacements(ctx context.Context, folders []drive.Folder) error

	// List returns one page of folders and the total match count
	List(ctx context.Context, opts *drive.ListOptions) ([]drive.Folder, int, error)

	// GetByShareToken finds the folder carrying an active share token
	GetByShareToken(ctx context.Context, token string) (*drive.Folder, error)
}
