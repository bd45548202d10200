package memory

import (
	"context"
	"fmt"

	"folio/internal/domain"
	"folio/internal/domain/models/drive"
	driveRepo "folio/internal/domain/repositories/drive"
)

// FileRepository implements driveRepo.FileRepository in memory
type FileRepository struct {
	store *Store
}

// NewFileRepository creates a file repository over store
func NewFileRepository(store *Store) driveRepo.FileRepository {
	return &FileRepository{store: store}
}

func fileNotFound(id string) error {
	return &domain.NotFoundError{ResourceType: "file", ResourceID: id}
}

// Create inserts a file
func (r *FileRepository) Create(ctx context.Context, file *drive.File) error {
	defer r.store.lockWrite(ctx)()

	if _, exists := r.store.files[file.ID]; exists {
		return fmt.Errorf("file %s: %w", file.ID, domain.ErrConflict)
	}
	r.store.files[file.ID] = cloneFile(*file)
	return nil
}

// GetByID retrieves a file
func (r *FileRepository) GetByID(ctx context.Context, id string) (*drive.File, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	f, ok := r.store.files[id]
	if !ok {
		return nil, fileNotFound(id)
	}
	out := cloneFile(f)
	out.Path = drive.FilePath(&out)
	return &out, nil
}

// Update replaces the stored file
func (r *FileRepository) Update(ctx context.Context, file *drive.File) error {
	defer r.store.lockWrite(ctx)()

	if _, ok := r.store.files[file.ID]; !ok {
		return fileNotFound(file.ID)
	}
	next := cloneFile(*file)
	next.Path = ""
	r.store.files[file.ID] = next
	return nil
}

// IncrementDownloads bumps the download counter
func (r *FileRepository) IncrementDownloads(ctx context.Context, id string) error {
	defer r.store.lockWrite(ctx)()

	f, ok := r.store.files[id]
	if !ok {
		return fileNotFound(id)
	}
	f.DownloadCount++
	r.store.files[id] = f
	return nil
}

// UpdatePlacements rewrites parent_path and updated_at of each file
func (r *FileRepository) UpdatePlacements(ctx context.Context, files []drive.File) error {
	defer r.store.lockWrite(ctx)()

	for _, f := range files {
		if _, ok := r.store.files[f.ID]; !ok {
			return fileNotFound(f.ID)
		}
	}
	for _, f := range files {
		stored := r.store.files[f.ID]
		stored.ParentPath = f.ParentPath
		stored.UpdatedAt = f.UpdatedAt
		r.store.files[f.ID] = stored
	}
	return nil
}

// DeleteMany removes files; missing ids are ignored
func (r *FileRepository) DeleteMany(ctx context.Context, ids []string) error {
	defer r.store.lockWrite(ctx)()

	for _, id := range ids {
		delete(r.store.files, id)
	}
	return nil
}

// ListByFolder lists files directly in folderID ordered by name
func (r *FileRepository) ListByFolder(ctx context.Context, folderID string) ([]drive.File, error) {
	return r.collect(func(f *drive.File) bool {
		return f.FolderID != nil && *f.FolderID == folderID
	}), nil
}

// ListRoots lists an owner's root-level files ordered by name
func (r *FileRepository) ListRoots(ctx context.Context, ownerID string) ([]drive.File, error) {
	return r.collect(func(f *drive.File) bool {
		return f.FolderID == nil && f.OwnerID == ownerID
	}), nil
}

// FindByName returns the sibling named name, or nil
func (r *FileRepository) FindByName(ctx context.Context, ownerID string, folderID *string, name string) (*drive.File, error) {
	matches := r.collect(func(f *drive.File) bool {
		return f.Name == name && sameParent(f.FolderID, folderID) && (folderID != nil || f.OwnerID == ownerID)
	})
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// List returns one page of files
func (r *FileRepository) List(ctx context.Context, opts *drive.ListOptions) ([]drive.File, int, error) {
	matches := r.collect(func(f *drive.File) bool {
		if opts.ParentID == nil {
			if f.FolderID != nil || f.OwnerID != opts.OwnerID {
				return false
			}
		} else if f.FolderID == nil || *f.FolderID != *opts.ParentID {
			return false
		}
		return matchesSearch(opts.Search, f.Name, f.Description+" "+f.ExtractedText, f.Tags)
	})

	sortFiles(matches, opts)
	page := paginate(matches, opts)
	return page, len(matches), nil
}

// GetByShareToken finds the file carrying token
func (r *FileRepository) GetByShareToken(ctx context.Context, token string) (*drive.File, error) {
	matches := r.collect(func(f *drive.File) bool {
		return token != "" && f.Permissions.ShareToken() == token
	})
	if len(matches) == 0 {
		return nil, &domain.NotFoundError{ResourceType: "share link", ResourceID: token}
	}
	return &matches[0], nil
}

func (r *FileRepository) collect(match func(*drive.File) bool) []drive.File {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []drive.File
	for _, f := range r.store.files {
		if match(&f) {
			c := cloneFile(f)
			c.Path = drive.FilePath(&c)
			out = append(out, c)
		}
	}
	sortFiles(out, &drive.ListOptions{SortBy: drive.SortByName, SortOrder: drive.SortAsc})
	return out
}
