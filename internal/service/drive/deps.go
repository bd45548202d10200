// Package drive implements the folder/file hierarchy, quota ledger and share links.
//
// Every mutation runs inside one metadata transaction that first takes the per-owner
// lock, then re-reads and re-validates the nodes it touches. Object store I/O happens
// outside that transaction.
package drive

import (
	"log/slog"
	"time"

	"folio/internal/config"
	"folio/internal/domain/repositories"
	driveRepo "folio/internal/domain/repositories/drive"
	"folio/internal/domain/services"
	"folio/internal/metrics"
)

// Dependencies groups the collaborators shared by the drive services
type Dependencies struct {
	FolderRepo driveRepo.FolderRepository
	FileRepo   driveRepo.FileRepository
	OwnerRepo  repositories.OwnerRepository
	TxManager  repositories.TransactionManager
	Locker     repositories.OwnerLocker
	Authorizer services.NodeAuthorizer
	Blobs      services.ObjectStore
	Metrics    *metrics.DriveMetrics // nil disables instrumentation
	Logger     *slog.Logger
}

// Options tunes drive behaviour
type Options struct {
	DefaultStorageLimit int64
	SignedURLTTL        time.Duration
	PublicBaseURL       string
	ExternalProcessing  bool
	Now                 func() time.Time // defaults to time.Now
}

// OptionsFromConfig derives Options from the loaded configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		DefaultStorageLimit: cfg.DefaultStorageLimit,
		SignedURLTTL:        cfg.SignedURLTTL,
		PublicBaseURL:       cfg.PublicBaseURL,
		ExternalProcessing:  cfg.ExternalProcessing,
	}
}

func (o Options) withDefaults() Options {
	if o.DefaultStorageLimit <= 0 {
		o.DefaultStorageLimit = config.DefaultStorageLimit
	}
	if o.SignedURLTTL <= 0 {
		o.SignedURLTTL = 15 * time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) now() time.Time {
	return o.Now().UTC()
}
