package drive

import (
	"context"
	"io"
	"time"

	"folio/internal/domain/models/drive"
)

// FileService handles file uploads, versions and placement in the hierarchy
type FileService interface {
	// UploadFile stores the bytes and creates a ready file record
	UploadFile(ctx context.Context, userID string, req *UploadFileRequest) (*drive.File, error)

	// UploadVersion replaces the content of a file, keeping the prior version in history
	UploadVersion(ctx context.Context, userID, fileID string, req *UploadVersionRequest) (*drive.File, error)

	// GetFile retrieves a file
	GetFile(ctx context.Context, userID, fileID string) (*drive.File, error)

	// UpdateFile applies a rename, move, metadata or permission patch
	UpdateFile(ctx context.Context, userID, fileID string, req *UpdateFileRequest) (*drive.File, error)

	// MoveFile moves a file into newFolderID (nil = root)
	MoveFile(ctx context.Context, userID, fileID string, newFolderID *string) (*drive.File, error)

	// CopyFile duplicates a file's current version into a folder
	CopyFile(ctx context.Context, userID, fileID string, req *CopyFileRequest) (*drive.File, error)

	// DeleteFile deletes a file and all its versions
	DeleteFile(ctx context.Context, userID, fileID string) (*DeleteResult, error)

	// DownloadURL issues a signed URL for the current version
	DownloadURL(ctx context.Context, userID, fileID string) (*DownloadLink, error)

	// UpdateStatus advances the processing state machine
	UpdateStatus(ctx context.Context, userID, fileID string, req *UpdateStatusRequest) (*drive.File, error)

	// ListFiles lists one page of files in a folder (nil = caller's root)
	ListFiles(ctx context.Context, userID string, opts *drive.ListOptions) (*drive.Page[drive.File], error)
}

// UploadFileRequest carries an upload. Body is read exactly once.
type UploadFileRequest struct {
	FolderID    *string
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
	NodeMetadata
}

// UploadVersionRequest carries new content for an existing file
type UploadVersionRequest struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// UpdateFileRequest represents a file patch. Nil fields are left unchanged.
type UpdateFileRequest struct {
	Name         *string
	Folder       OptionalParent
	Description  *string
	Tags         *[]string
	IsPublic     *bool
	AllowedUsers *[]drive.Grant
}

// Empty reports whether the patch changes nothing
func (r *UpdateFileRequest) Empty() bool {
	return r.Name == nil && !r.Folder.Present && r.Description == nil && r.Tags == nil &&
		r.IsPublic == nil && r.AllowedUsers == nil
}

// CopyFileRequest selects the copy destination
type CopyFileRequest struct {
	FolderID *string `json:"folder_id"` // NULL = root
	Name     *string `json:"name,omitempty"`
}

// UpdateStatusRequest is sent by the external processor
type UpdateStatusRequest struct {
	Status        drive.FileStatus `json:"status"`
	Progress      *int             `json:"progress,omitempty"`
	ErrorMessage  string           `json:"error_message,omitempty"`
	ExtractedText *string          `json:"extracted_text,omitempty"`
}

// DownloadLink is a signed, expiring read URL
type DownloadLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	FileName  string    `json:"file_name"`
}
