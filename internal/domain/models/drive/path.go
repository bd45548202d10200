package drive

import "strings"

// PathSeparator joins path segments. Names never contain it.
const PathSeparator = "/"

// FullPath is parentPath + "/" + name, or just name at the root
func FullPath(parentPath, name string) string {
	if parentPath == "" {
		return name
	}
	return parentPath + PathSeparator + name
}

// FolderPath returns the full path of a folder
func FolderPath(f *Folder) string {
	return FullPath(f.ParentPath, f.Name)
}

// FilePath returns the full path of a file
func FilePath(f *File) string {
	return FullPath(f.ParentPath, f.Name)
}

// IsWithin reports whether path equals root or lies beneath it.
// It compares whole segments, so "A/Bc" is not within "A/B".
func IsWithin(path, root string) bool {
	if root == "" {
		return true
	}
	return path == root || strings.HasPrefix(path, root+PathSeparator)
}

// RebasePath swaps the oldRoot prefix of path for newRoot, keeping the relative suffix.
// The second return is false when path is not within oldRoot.
func RebasePath(path, oldRoot, newRoot string) (string, bool) {
	if !IsWithin(path, oldRoot) {
		return path, false
	}
	suffix := strings.TrimPrefix(path, oldRoot)
	suffix = strings.TrimPrefix(suffix, PathSeparator)
	if suffix == "" {
		return newRoot, true
	}
	if newRoot == "" {
		return suffix, true
	}
	return newRoot + PathSeparator + suffix, true
}

// ChildPlacement returns the parentPath and level a folder gets under parent (nil = root)
func ChildPlacement(parent *Folder) (parentPath string, level int) {
	if parent == nil {
		return "", 0
	}
	return FolderPath(parent), parent.Level + 1
}
