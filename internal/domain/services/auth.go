package services

import (
	"context"

	"folio/internal/domain/models/drive"
)

// NodeAuthorizer loads a node and checks the caller's permission on it.
// Returned errors are domain.ErrNotFound or domain.ErrForbidden.
//
// Services call the authorizer before operating on resources, so handlers never
// see a node the caller is not allowed to act on.
type NodeAuthorizer interface {
	// AuthorizeFolder returns the folder if userID may perform action on it
	AuthorizeFolder(ctx context.Context, userID, folderID string, action drive.Permission) (*drive.Folder, error)

	// AuthorizeFile returns the file if userID may perform action on it
	AuthorizeFile(ctx context.Context, userID, fileID string, action drive.Permission) (*drive.File, error)
}
