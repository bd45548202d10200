package services

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the durable byte storage the drive consumes but does not implement.
// Failures are reported as *domain.StorageBackendError.
type ObjectStore interface {
	// Put streams size bytes from body under key and returns the blob reference.
	// Cancelling ctx aborts the transfer; nothing is considered stored on error.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, ref string) error

	// SignedURL issues a time-limited read URL for a blob
	SignedURL(ctx context.Context, ref string, ttl time.Duration) (string, error)

	// Copy duplicates srcRef into dstRef
	Copy(ctx context.Context, srcRef, dstRef string) error
}
