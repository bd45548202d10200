package memory

import (
	"sort"
	"strings"

	"folio/internal/domain/models/drive"
)

func matchesSearch(query, name, text string, tags []string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(name), q) || strings.Contains(strings.ToLower(text), q) {
		return true
	}
	for _, tag := range tags {
		if strings.EqualFold(tag, query) {
			return true
		}
	}
	return false
}

// sortFolders orders by the requested field with name and id as tie-breakers,
// matching the ORDER BY of the PostgreSQL store.
func sortFolders(folders []drive.Folder, opts *drive.ListOptions) {
	sort.SliceStable(folders, func(i, j int) bool {
		a, b := &folders[i], &folders[j]
		var cmp int
		switch opts.SortBy {
		case drive.SortByCreatedAt:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		case drive.SortByLastModified:
			cmp = a.LastModified.Compare(b.LastModified)
		case drive.SortBySize:
			cmp = compareInt(a.TotalSize, b.TotalSize)
		case drive.SortByFileCount:
			cmp = compareInt(int64(a.FileCount), int64(b.FileCount))
		}
		if cmp == 0 {
			cmp = strings.Compare(a.Name, b.Name)
		}
		if cmp == 0 {
			cmp = strings.Compare(a.ID, b.ID)
		}
		if opts.SortOrder == drive.SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func sortFiles(files []drive.File, opts *drive.ListOptions) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := &files[i], &files[j]
		var cmp int
		switch opts.SortBy {
		case drive.SortByCreatedAt:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		case drive.SortByLastModified:
			cmp = a.UpdatedAt.Compare(b.UpdatedAt)
		case drive.SortBySize, drive.SortByFileCount:
			cmp = compareInt(a.Size, b.Size)
		}
		if cmp == 0 {
			cmp = strings.Compare(a.Name, b.Name)
		}
		if cmp == 0 {
			cmp = strings.Compare(a.ID, b.ID)
		}
		if opts.SortOrder == drive.SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func paginate[T any](items []T, opts *drive.ListOptions) []T {
	start := opts.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + opts.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
