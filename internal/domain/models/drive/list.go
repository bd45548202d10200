package drive

import (
	"fmt"
	"strings"
)

// SortField selects an indexed column to order listings by
type SortField string

const (
	SortByName         SortField = "name"
	SortByCreatedAt    SortField = "createdAt"
	SortByLastModified SortField = "lastModified"
	SortBySize         SortField = "size"      // files: size, folders: total size
	SortByFileCount    SortField = "fileCount" // folders only; files fall back to size
)

// SortOrder is asc or desc
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Default listing configuration values
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListOptions configures a paginated listing of folders or files.
// ParentID nil lists the root level of OwnerID.
type ListOptions struct {
	OwnerID   string
	ParentID  *string
	Page      int
	Limit     int
	SortBy    SortField
	SortOrder SortOrder
	Search    string
}

// ApplyDefaults fills in default values for unset fields
func (opts *ListOptions) ApplyDefaults() {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.SortBy == "" {
		opts.SortBy = SortByName
	}
	if opts.SortOrder == "" {
		opts.SortOrder = SortAsc
	}
	opts.Search = strings.TrimSpace(opts.Search)
}

// Validate checks that values are within range
func (opts *ListOptions) Validate() error {
	if opts.Limit > MaxListLimit {
		return fmt.Errorf("limit cannot exceed %d (requested: %d)", MaxListLimit, opts.Limit)
	}
	switch opts.SortBy {
	case SortByName, SortByCreatedAt, SortByLastModified, SortBySize, SortByFileCount:
	default:
		return fmt.Errorf("unknown sort field: %q", opts.SortBy)
	}
	switch opts.SortOrder {
	case SortAsc, SortDesc:
	default:
		return fmt.Errorf("unknown sort order: %q", opts.SortOrder)
	}
	return nil
}

// Offset is the number of rows skipped before the current page
func (opts *ListOptions) Offset() int {
	return (opts.Page - 1) * opts.Limit
}

// Page is one page of a listing
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// NewPage creates a Page with the HasMore flag computed
func NewPage[T any](items []T, total int, opts *ListOptions) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:   items,
		Total:   total,
		Page:    opts.Page,
		Limit:   opts.Limit,
		HasMore: opts.Offset()+len(items) < total,
	}
}
