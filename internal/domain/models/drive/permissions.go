package drive

import "time"

// Permission is an access level on a node. Levels are ordered read < write < admin.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionAdmin Permission = "admin"
)

// Rank returns the ordinal of the permission, or 0 for an unknown value
func (p Permission) Rank() int {
	switch p {
	case PermissionRead:
		return 1
	case PermissionWrite:
		return 2
	case PermissionAdmin:
		return 3
	default:
		return 0
	}
}

// Valid reports whether p is one of the known levels
func (p Permission) Valid() bool {
	return p.Rank() > 0
}

// Grant gives a single user a permission level on a node
type Grant struct {
	UserID     string     `json:"user_id"`
	Permission Permission `json:"permission"`
}

// ShareLink is a capability token bound to one node.
// At most one link is active per node; issuing a new one replaces the old.
type ShareLink struct {
	Token         string     `json:"token"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	PasswordHash  string     `json:"-"`
	HasPassword   bool       `json:"has_password"`
	AllowDownload bool       `json:"allow_download"`
	AllowUpload   bool       `json:"allow_upload"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     string     `json:"created_by"`
}

// Expired reports whether the link is past its expiry at now
func (l *ShareLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// Permissions is the access-control block shared by folders and files
type Permissions struct {
	IsPublic     bool       `json:"is_public"`
	AllowedUsers []Grant    `json:"allowed_users"`
	ShareLink    *ShareLink `json:"share_link,omitempty"`
}

// GrantFor returns the grant for userID, if any
func (p Permissions) GrantFor(userID string) (Grant, bool) {
	for _, g := range p.AllowedUsers {
		if g.UserID == userID {
			return g, true
		}
	}
	return Grant{}, false
}

// ShareToken returns the active token or "" when the node is not shared
func (p Permissions) ShareToken() string {
	if p.ShareLink == nil {
		return ""
	}
	return p.ShareLink.Token
}
