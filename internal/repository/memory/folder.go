package memory

import (
	"context"
	"fmt"
	"time"

	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	driveRepo "folio/internal/domain/repositories/drive"
)

// FolderRepository implements driveRepo.FolderRepository in memory
type FolderRepository struct {
	store *Store
}

// NewFolderRepository creates a folder repository over store
func NewFolderRepository(store *Store) driveRepo.FolderRepository {
	return &FolderRepository{store: store}
}

func folderNotFound(id string) error {
	return &domain.NotFoundError{ResourceType: "folder", ResourceID: id}
}

// Create inserts a folder
func (r *FolderRepository) Create(ctx context.Context, folder *drive.Folder) error {
	defer r.store.lockWrite(ctx)()

	if _, exists := r.store.folders[folder.ID]; exists {
		return fmt.Errorf("folder %s: %w", folder.ID, domain.ErrConflict)
	}
	r.store.folders[folder.ID] = cloneFolder(*folder)
	return nil
}

// GetByID retrieves a folder
func (r *FolderRepository) GetByID(ctx context.Context, id string) (*drive.Folder, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	f, ok := r.store.folders[id]
	if !ok {
		return nil, folderNotFound(id)
	}
	out := cloneFolder(f)
	out.Path = drive.FolderPath(&out)
	return &out, nil
}

// Update replaces the stored folder, keeping cached statistics
func (r *FolderRepository) Update(ctx context.Context, folder *drive.Folder) error {
	defer r.store.lockWrite(ctx)()

	existing, ok := r.store.folders[folder.ID]
	if !ok {
		return folderNotFound(folder.ID)
	}
	next := cloneFolder(*folder)
	next.Path = ""
	next.FileCount = existing.FileCount
	next.TotalSize = existing.TotalSize
	next.SubfolderCount = existing.SubfolderCount
	r.store.folders[folder.ID] = next
	return nil
}

// UpdateStatistics writes the cached counters
func (r *FolderRepository) UpdateStatistics(ctx context.Context, id string, stats drive.Statistics) error {
	defer r.store.lockWrite(ctx)()

	f, ok := r.store.folders[id]
	if !ok {
		return folderNotFound(id)
	}
	f.FileCount = stats.FileCount
	f.TotalSize = stats.TotalSize
	f.SubfolderCount = stats.SubfolderCount
	r.store.folders[id] = f
	return nil
}

// TouchAccessed sets last_accessed_at to now
func (r *FolderRepository) TouchAccessed(ctx context.Context, id string) error {
	defer r.store.lockWrite(ctx)()

	f, ok := r.store.folders[id]
	if !ok {
		return folderNotFound(id)
	}
	now := time.Now().UTC()
	f.LastAccessedAt = &now
	r.store.folders[id] = f
	return nil
}

// UpdatePlacements rewrites parent_path, level and updated_at of each folder
func (r *FolderRepository) UpdatePlacements(ctx context.Context, folders []drive.Folder) error {
	defer r.store.lockWrite(ctx)()

	for _, f := range folders {
		if _, ok := r.store.folders[f.ID]; !ok {
			return folderNotFound(f.ID)
		}
	}
	for _, f := range folders {
		stored := r.store.folders[f.ID]
		stored.ParentPath = f.ParentPath
		stored.Level = f.Level
		stored.UpdatedAt = f.UpdatedAt
		r.store.folders[f.ID] = stored
	}
	return nil
}

// DeleteMany removes folders; missing ids are ignored
func (r *FolderRepository) DeleteMany(ctx context.Context, ids []string) error {
	defer r.store.lockWrite(ctx)()

	for _, id := range ids {
		delete(r.store.folders, id)
	}
	return nil
}

// ListChildren lists direct child folders ordered by name
func (r *FolderRepository) ListChildren(ctx context.Context, parentID string) ([]drive.Folder, error) {
	return r.collect(func(f *drive.Folder) bool {
		return f.ParentID != nil && *f.ParentID == parentID
	}), nil
}

// ListRoots lists an owner's root folders ordered by name
func (r *FolderRepository) ListRoots(ctx context.Context, ownerID string) ([]drive.Folder, error) {
	return r.collect(func(f *drive.Folder) bool {
		return f.ParentID == nil && f.OwnerID == ownerID
	}), nil
}

// FindByName returns the sibling named name, or nil
func (r *FolderRepository) FindByName(ctx context.Context, ownerID string, parentID *string, name string) (*drive.Folder, error) {
	matches := r.collect(func(f *drive.Folder) bool {
		return f.Name == name && sameParent(f.ParentID, parentID) && (parentID != nil || f.OwnerID == ownerID)
	})
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// List returns one page of folders
func (r *FolderRepository) List(ctx context.Context, opts *drive.ListOptions) ([]drive.Folder, int, error) {
	matches := r.collect(func(f *drive.Folder) bool {
		if opts.ParentID == nil {
			if f.ParentID != nil || f.OwnerID != opts.OwnerID {
				return false
			}
		} else if f.ParentID == nil || *f.ParentID != *opts.ParentID {
			return false
		}
		return matchesSearch(opts.Search, f.Name, f.Description, f.Tags)
	})

	sortFolders(matches, opts)
	page := paginate(matches, opts)
	return page, len(matches), nil
}

// GetByShareToken finds the folder carrying token
func (r *FolderRepository) GetByShareToken(ctx context.Context, token string) (*drive.Folder, error) {
	matches := r.collect(func(f *drive.Folder) bool {
		return token != "" && f.Permissions.ShareToken() == token
	})
	if len(matches) == 0 {
		return nil, &domain.NotFoundError{ResourceType: "share link", ResourceID: token}
	}
	return &matches[0], nil
}

func (r *FolderRepository) collect(match func(*drive.Folder) bool) []drive.Folder {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []drive.Folder
	for _, f := range r.store.folders {
		if match(&f) {
			c := cloneFolder(f)
			c.Path = drive.FolderPath(&c)
			out = append(out, c)
		}
	}
	sortFolders(out, &drive.ListOptions{SortBy: drive.SortByName, SortOrder: drive.SortAsc})
	return out
}
