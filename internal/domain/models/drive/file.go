package drive

import (
	"path"
	"strings"
	"time"
)

// FileVersion is a prior revision kept in a file's append-only history
type FileVersion struct {
	Version    int       `json:"version"`
	BlobRef    string    `json:"blob_ref"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
	UploadedBy string    `json:"uploaded_by"`
}

// File is a leaf node whose bytes live in the object store under BlobRef
type File struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	OriginalName string      `json:"original_name"`
	Size         int64       `json:"size"`
	ContentType  string      `json:"content_type"`
	Extension    string      `json:"extension"`
	BlobRef      string      `json:"-"`
	FolderID     *string     `json:"folder_id"` // NULL = root level
	ParentPath   string      `json:"parent_path"`
	Path         string      `json:"path"` // Computed, not stored
	OwnerID      string      `json:"owner_id"`
	Permissions  Permissions `json:"permissions"`
	Description  string      `json:"description"`
	Tags         []string    `json:"tags"`

	ExtractedText string `json:"-"` // Written by the external analyzer, used for search

	Version          int           `json:"version"`
	PreviousVersions []FileVersion `json:"previous_versions"`

	Status             FileStatus `json:"status"`
	ProcessingProgress int        `json:"processing_progress"`
	ErrorMessage       string     `json:"error_message,omitempty"`

	UploadedAt    time.Time `json:"uploaded_at"`
	UploadedBy    string    `json:"uploaded_by"`
	DownloadCount int       `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StoredBytes is the total size of all versions of f still held in the object store
func StoredBytes(f *File) int64 {
	total := f.Size
	for _, v := range f.PreviousVersions {
		total += v.Size
	}
	return total
}

// BlobRefs lists every blob f references, current version first
func BlobRefs(f *File) []string {
	refs := make([]string, 0, len(f.PreviousVersions)+1)
	if f.BlobRef != "" {
		refs = append(refs, f.BlobRef)
	}
	for _, v := range f.PreviousVersions {
		if v.BlobRef != "" {
			refs = append(refs, v.BlobRef)
		}
	}
	return refs
}

// ExtensionOf returns the lower-case extension of name without the leading dot
func ExtensionOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}
