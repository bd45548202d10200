package drive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"folio/internal/config"
	"folio/internal/domain/services"
	"folio/internal/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// blobKey returns a fresh object key: owners/{owner}/{yyyy}/{mm}/{uuid}
func blobKey(ownerID string, now time.Time) string {
	return fmt.Sprintf("owners/%s/%04d/%02d/%s", ownerID, now.Year(), int(now.Month()), uuid.NewString())
}

type blobJanitor struct {
	blobs   services.ObjectStore
	metrics *metrics.DriveMetrics
	logger  *slog.Logger
}

// discard removes a blob whose metadata never committed
func (j *blobJanitor) discard(ctx context.Context, ref string) {
	if err := j.blobs.Delete(context.WithoutCancel(ctx), ref); err != nil {
		j.metrics.RecordBlobDeleteFailure()
		j.logger.Warn("failed to discard orphaned blob", "blob_ref", ref, "error", err)
	}
}

// purge deletes refs with bounded parallelism after their metadata is gone.
// Failures never abort the others; they come back as warnings.
func (j *blobJanitor) purge(ctx context.Context, refs []string) []string {
	if len(refs) == 0 {
		return nil
	}
	ctx = context.WithoutCancel(ctx)

	var (
		mu       sync.Mutex
		warnings []string
	)
	g := new(errgroup.Group)
	g.SetLimit(config.BlobDeleteConcurrency)
	for _, ref := range refs {
		g.Go(func() error {
			if err := j.blobs.Delete(ctx, ref); err != nil {
				j.metrics.RecordBlobDeleteFailure()
				j.logger.Warn("blob delete failed after metadata removal", "blob_ref", ref, "error", err)
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("blob %s: %v", ref, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return warnings
}
