package config

const (
	// MaxFolderDepth is the deepest level a folder may sit at (root = 0).
	MaxFolderDepth = 20

	// MaxNodeNameLength is the maximum length for folder and file names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxNodeNameLength = 255

	// MaxDescriptionLength bounds free-text descriptions.
	MaxDescriptionLength = 2000

	// MaxTags is the maximum number of tags on one node.
	MaxTags = 50

	// MaxTagLength bounds a single tag.
	MaxTagLength = 64

	// DefaultStorageLimit is the quota given to owners on first use (5 GiB).
	DefaultStorageLimit int64 = 5 << 30

	// DefaultMaxUploadBytes caps a single multipart upload (1 GiB).
	DefaultMaxUploadBytes int64 = 1 << 30

	// BlobDeleteConcurrency bounds parallel blob deletions during a force delete.
	BlobDeleteConcurrency = 8
)
