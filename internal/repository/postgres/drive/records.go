// Package drive holds the PostgreSQL folder and file repositories.
package drive

import (
	"strings"
	"time"

	"folio/internal/domain/models/drive"
)

// shareLinkRecord is the stored form of a share link. Unlike the API model it keeps
// the password hash.
type shareLinkRecord struct {
	Token         string     `json:"token"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	PasswordHash  string     `json:"password_hash,omitempty"`
	AllowDownload bool       `json:"allow_download"`
	AllowUpload   bool       `json:"allow_upload"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     string     `json:"created_by"`
}

// permissionsRecord is what the permissions JSONB column holds
type permissionsRecord struct {
	IsPublic     bool             `json:"is_public"`
	AllowedUsers []drive.Grant    `json:"allowed_users"`
	ShareLink    *shareLinkRecord `json:"share_link,omitempty"`
}

func toRecord(p drive.Permissions) permissionsRecord {
	rec := permissionsRecord{IsPublic: p.IsPublic, AllowedUsers: p.AllowedUsers}
	if rec.AllowedUsers == nil {
		rec.AllowedUsers = []drive.Grant{}
	}
	if link := p.ShareLink; link != nil {
		rec.ShareLink = &shareLinkRecord{
			Token:         link.Token,
			ExpiresAt:     link.ExpiresAt,
			PasswordHash:  link.PasswordHash,
			AllowDownload: link.AllowDownload,
			AllowUpload:   link.AllowUpload,
			CreatedAt:     link.CreatedAt,
			CreatedBy:     link.CreatedBy,
		}
	}
	return rec
}

func (rec permissionsRecord) permissions() drive.Permissions {
	p := drive.Permissions{IsPublic: rec.IsPublic, AllowedUsers: rec.AllowedUsers}
	if p.AllowedUsers == nil {
		p.AllowedUsers = []drive.Grant{}
	}
	if link := rec.ShareLink; link != nil {
		p.ShareLink = &drive.ShareLink{
			Token:         link.Token,
			ExpiresAt:     link.ExpiresAt,
			PasswordHash:  link.PasswordHash,
			HasPassword:   link.PasswordHash != "",
			AllowDownload: link.AllowDownload,
			AllowUpload:   link.AllowUpload,
			CreatedAt:     link.CreatedAt,
			CreatedBy:     link.CreatedBy,
		}
	}
	return p
}

// shareToken is the value of the share_token column (NULL when there is no link)
func shareToken(p drive.Permissions) *string {
	if token := p.ShareToken(); token != "" {
		return &token
	}
	return nil
}

// scanner is satisfied by pgx.Row and pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

// likePattern builds a case-insensitive substring pattern with LIKE wildcards escaped
func likePattern(query string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	return "%" + escaped + "%"
}

// orderBy renders the ORDER BY clause for a listing. Name and id break ties in the
// same direction so pagination is stable.
func orderBy(column string, order drive.SortOrder) string {
	dir := "ASC"
	if order == drive.SortDesc {
		dir = "DESC"
	}
	if column == "name" {
		return `ORDER BY name COLLATE "C" ` + dir + `, id ` + dir
	}
	return `ORDER BY ` + column + ` ` + dir + `, name COLLATE "C" ` + dir + `, id ` + dir
}

func folderSortColumn(field drive.SortField) string {
	switch field {
	case drive.SortByCreatedAt:
		return "created_at"
	case drive.SortByLastModified:
		return "last_modified"
	case drive.SortBySize:
		return "total_size"
	case drive.SortByFileCount:
		return "file_count"
	default:
		return "name"
	}
}

func fileSortColumn(field drive.SortField) string {
	switch field {
	case drive.SortByCreatedAt:
		return "created_at"
	case drive.SortByLastModified:
		return "updated_at"
	case drive.SortBySize, drive.SortByFileCount:
		return "size"
	default:
		return "name"
	}
}

// parentFilter renders the WHERE clause selecting one level of the hierarchy.
// At the root the level belongs to ownerID. It returns the clause and its args,
// numbered from $1.
func parentFilter(parentColumn string, parentID *string, ownerID string) (string, []any) {
	if parentID == nil {
		return parentColumn + ` IS NULL AND owner_id = $1`, []any{ownerID}
	}
	return parentColumn + ` = $1`, []any{*parentID}
}

// tagsOrEmpty keeps the NOT NULL tags column from receiving a nil slice
func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
