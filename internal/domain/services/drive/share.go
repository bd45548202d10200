package drive

import (
	"context"
	"time"

	"folio/internal/domain/models/drive"
)

// NodeKind distinguishes folders from files at the share boundary
type NodeKind string

const (
	NodeKindFolder NodeKind = "folder"
	NodeKindFile   NodeKind = "file"
)

// ShareService mints, revokes and resolves share links
type ShareService interface {
	// GenerateShareLink replaces any existing link on the node with a fresh one
	GenerateShareLink(ctx context.Context, userID string, kind NodeKind, nodeID string, req *ShareRequest) (*ShareLinkInfo, error)

	// RevokeShareLink removes the node's link
	RevokeShareLink(ctx context.Context, userID string, kind NodeKind, nodeID string) error

	// ResolveShareLink validates a presented token without authentication
	ResolveShareLink(ctx context.Context, token, password string) (*SharedNode, error)
}

// ShareRequest configures a new link
type ShareRequest struct {
	ExpiresIn     *time.Duration
	Password      string
	AllowDownload bool
	AllowUpload   bool
}

// ShareLinkInfo is returned to the issuer
type ShareLinkInfo struct {
	Token         string     `json:"token"`
	URL           string     `json:"url"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	HasPassword   bool       `json:"has_password"`
	AllowDownload bool       `json:"allow_download"`
	AllowUpload   bool       `json:"allow_upload"`
}

// SharedNode is what a valid token grants access to.
// It never carries grants, owner ids or paths of the sharing user.
type SharedNode struct {
	Kind          NodeKind      `json:"kind"`
	Folder        *SharedFolder `json:"folder,omitempty"`
	File          *SharedFile   `json:"file,omitempty"`
	AllowDownload bool          `json:"allow_download"`
	AllowUpload   bool          `json:"allow_upload"`
	DownloadURL   string        `json:"download_url,omitempty"`
}

// SharedFolder is the anonymous view of a folder
type SharedFolder struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Tags           []string  `json:"tags"`
	FileCount      int       `json:"file_count"`
	TotalSize      int64     `json:"total_size"`
	SubfolderCount int       `json:"subfolder_count"`
	LastModified   time.Time `json:"last_modified"`
}

// SharedFile is the anonymous view of a file
type SharedFile struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Size        int64            `json:"size"`
	ContentType string           `json:"content_type"`
	Extension   string           `json:"extension"`
	Description string           `json:"description"`
	Tags        []string         `json:"tags"`
	Version     int              `json:"version"`
	Status      drive.FileStatus `json:"status"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewSharedFolder projects f onto its anonymous view
func NewSharedFolder(f *drive.Folder) *SharedFolder {
	return &SharedFolder{
		ID:             f.ID,
		Name:           f.Name,
		Description:    f.Description,
		Tags:           f.Tags,
		FileCount:      f.FileCount,
		TotalSize:      f.TotalSize,
		SubfolderCount: f.SubfolderCount,
		LastModified:   f.LastModified,
	}
}

// NewSharedFile projects f onto its anonymous view
func NewSharedFile(f *drive.File) *SharedFile {
	return &SharedFile{
		ID:          f.ID,
		Name:        f.Name,
		Size:        f.Size,
		ContentType: f.ContentType,
		Extension:   f.Extension,
		Description: f.Description,
		Tags:        f.Tags,
		Version:     f.Version,
		Status:      f.Status,
		UpdatedAt:   f.UpdatedAt,
	}
}
