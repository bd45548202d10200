package drive

import "time"

// Folder is a node that contains other folders and files.
// FileCount, TotalSize and SubfolderCount cache direct children only.
type Folder struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	ParentID    *string     `json:"parent_id"` // NULL = root level
	ParentPath  string      `json:"parent_path"`
	Path        string      `json:"path"` // Computed, not stored
	Level       int         `json:"level"`
	OwnerID     string      `json:"owner_id"`
	Permissions Permissions `json:"permissions"`
	Color       string      `json:"color"`
	Icon        string      `json:"icon"`
	Tags        []string    `json:"tags"`

	FileCount      int   `json:"file_count"`
	TotalSize      int64 `json:"total_size"`
	SubfolderCount int   `json:"subfolder_count"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastModified   time.Time  `json:"last_modified"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

// Statistics is the direct-children cache of a folder
type Statistics struct {
	FileCount      int   `json:"file_count"`
	TotalSize      int64 `json:"total_size"`
	SubfolderCount int   `json:"subfolder_count"`
}

// Stats returns the cached statistics of f
func (f *Folder) Stats() Statistics {
	return Statistics{FileCount: f.FileCount, TotalSize: f.TotalSize, SubfolderCount: f.SubfolderCount}
}

// Contents is a folder together with its direct children
type Contents struct {
	Folder  *Folder  `json:"folder,omitempty"` // nil for the root listing
	Folders []Folder `json:"folders"`
	Files   []File   `json:"files"`
}
