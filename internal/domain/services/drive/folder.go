package drive

import (
	"context"

	"folio/internal/domain/models/drive"
)

// FolderService handles folder hierarchy operations.
// Every method takes the acting userID explicitly.
type FolderService interface {
	// CreateFolder creates a folder under an optional parent
	CreateFolder(ctx context.Context, userID string, req *CreateFolderRequest) (*drive.Folder, error)

	// GetFolder retrieves a folder with its direct children
	GetFolder(ctx context.Context, userID, folderID string) (*drive.Contents, error)

	// UpdateFolder applies a rename, move, metadata or permission patch
	UpdateFolder(ctx context.Context, userID, folderID string, req *UpdateFolderRequest) (*drive.Folder, error)

	// MoveFolder moves a folder under newParentID (nil = root)
	MoveFolder(ctx context.Context, userID, folderID string, newParentID *string) (*drive.Folder, error)

	// DeleteFolder deletes a folder; force removes the whole subtree
	DeleteFolder(ctx context.Context, userID, folderID string, force bool) (*DeleteResult, error)

	// ListFolders lists one page of folders under a parent (nil = caller's root)
	ListFolders(ctx context.Context, userID string, opts *drive.ListOptions) (*drive.Page[drive.Folder], error)
}

// NodeMetadata carries the optional descriptive fields of a new node
type NodeMetadata struct {
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Icon        string   `json:"icon"`
	Tags        []string `json:"tags"`
	IsPublic    bool     `json:"is_public"`
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	ParentID *string `json:"parent_id,omitempty"` // NULL = root
	Name     string  `json:"name"`
	NodeMetadata
}

// OptionalParent tracks tri-state semantics for a move inside a PATCH.
//   - Present=false: field absent (don't move)
//   - Present=true, Value=nil: move to root
//   - Present=true, Value=&id: move under id
type OptionalParent struct {
	Present bool
	Value   *string
}

// UpdateFolderRequest represents a folder patch. Nil fields are left unchanged.
type UpdateFolderRequest struct {
	Name         *string
	Parent       OptionalParent
	Description  *string
	Color        *string
	Icon         *string
	Tags         *[]string
	IsPublic     *bool
	AllowedUsers *[]drive.Grant
}

// Empty reports whether the patch changes nothing
func (r *UpdateFolderRequest) Empty() bool {
	return r.Name == nil && !r.Parent.Present && r.Description == nil && r.Color == nil &&
		r.Icon == nil && r.Tags == nil && r.IsPublic == nil && r.AllowedUsers == nil
}

// DeleteResult reports what a delete removed.
// Warnings lists blob deletions that failed after the metadata was already gone.
type DeleteResult struct {
	FoldersDeleted int      `json:"folders_deleted"`
	FilesDeleted   int      `json:"files_deleted"`
	FreedBytes     int64    `json:"freed_bytes"`
	Warnings       []string `json:"warnings,omitempty"`
}
