// Package access evaluates per-node permissions. Every function here is pure.
package access

import (
	"folio/internal/domain"
	"folio/internal/domain/models/drive"
)

// CanAccess reports whether userID may perform action on a node owned by ownerID.
//
// The owner may do anything. Public nodes are readable by everyone. Otherwise the
// user's grant must rank at or above the action (read < write < admin).
func CanAccess(ownerID string, perms drive.Permissions, userID string, action drive.Permission) bool {
	if userID != "" && userID == ownerID {
		return true
	}
	if action == drive.PermissionRead && perms.IsPublic {
		return true
	}
	if userID == "" {
		return false
	}
	grant, ok := perms.GrantFor(userID)
	if !ok {
		return false
	}
	return grant.Permission.Valid() && grant.Permission.Rank() >= action.Rank()
}

// CanAccessFolder is CanAccess applied to a folder
func CanAccessFolder(f *drive.Folder, userID string, action drive.Permission) bool {
	return CanAccess(f.OwnerID, f.Permissions, userID, action)
}

// CanAccessFile is CanAccess applied to a file
func CanAccessFile(f *drive.File, userID string, action drive.Permission) bool {
	return CanAccess(f.OwnerID, f.Permissions, userID, action)
}

// RequireFolder returns an AccessDeniedError unless userID may perform action on f
func RequireFolder(f *drive.Folder, userID string, action drive.Permission) error {
	if CanAccessFolder(f, userID, action) {
		return nil
	}
	return &domain.AccessDeniedError{ResourceType: "folder", ResourceID: f.ID, Action: string(action)}
}

// RequireFile returns an AccessDeniedError unless userID may perform action on f
func RequireFile(f *drive.File, userID string, action drive.Permission) error {
	if CanAccessFile(f, userID, action) {
		return nil
	}
	return &domain.AccessDeniedError{ResourceType: "file", ResourceID: f.ID, Action: string(action)}
}
