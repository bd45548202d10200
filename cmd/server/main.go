package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"folio/internal/auth"
	"folio/internal/config"
	"folio/internal/domain/repositories"
	driveRepo "folio/internal/domain/repositories/drive"
	"folio/internal/domain/services"
	"folio/internal/handler"
	"folio/internal/metrics"
	"folio/internal/middleware"
	blobmem "folio/internal/objectstore/memory"
	blobs3 "folio/internal/objectstore/s3"
	"folio/internal/repository/memory"
	"folio/internal/repository/postgres"
	postgresDrive "folio/internal/repository/postgres/drive"
	serviceAuth "folio/internal/service/auth"
	serviceDrive "folio/internal/service/drive"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// metadataStore bundles the repositories of one backend
type metadataStore struct {
	folderRepo driveRepo.FolderRepository
	fileRepo   driveRepo.FileRepository
	ownerRepo  repositories.OwnerRepository
	txManager  repositories.TransactionManager
	locker     repositories.OwnerLocker
	ping       handler.HealthCheck
	close      func()
}

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"metadata_store", cfg.MetadataStore,
		"object_store", cfg.ObjectStore,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metadata store
	meta, err := openMetadataStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open metadata store: %v", err)
	}
	defer meta.close()

	// Object store
	blobs, blobPing, err := openObjectStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open object store: %v", err)
	}

	// Authentication
	var jwtVerifier auth.JWTVerifier
	if cfg.AuthDisabledUser != "" {
		logger.Warn("AUTH DISABLED: every request acts as a fixed user (NEVER use in production!)", "user_id", cfg.AuthDisabledUser)
	} else {
		jwtVerifier, err = auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	driveMetrics := metrics.NewDriveMetrics(registry)

	// Drive services
	deps := serviceDrive.Dependencies{
		FolderRepo: meta.folderRepo,
		FileRepo:   meta.fileRepo,
		OwnerRepo:  meta.ownerRepo,
		TxManager:  meta.txManager,
		Locker:     meta.locker,
		Authorizer: serviceAuth.NewPermissionAuthorizer(meta.folderRepo, meta.fileRepo),
		Blobs:      blobs,
		Metrics:    driveMetrics,
		Logger:     logger,
	}
	opts := serviceDrive.OptionsFromConfig(cfg)
	ledger := serviceDrive.NewLedger(meta.ownerRepo, cfg.DefaultStorageLimit)

	folderService := serviceDrive.NewFolderService(deps, ledger, opts)
	fileService := serviceDrive.NewFileService(deps, ledger, opts)
	shareService := serviceDrive.NewShareService(deps, opts)
	quotaService := serviceDrive.NewQuotaService(ledger)

	logger.Info("services initialized")

	checks := map[string]handler.HealthCheck{}
	if meta.ping != nil {
		checks["metadata"] = meta.ping
	}
	if blobPing != nil {
		checks["objects"] = blobPing
	}

	router := handler.NewRouter(handler.Handlers{
		Folders: handler.NewFolderHandler(folderService, logger),
		Files:   handler.NewFileHandler(fileService, cfg.MaxUploadBytes, logger),
		Shares:  handler.NewShareHandler(shareService, logger),
		Quota:   handler.NewQuotaHandler(quotaService, logger),
		Health:  handler.NewHealthHandler(checks, logger),
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})

	// Build middleware chain
	var h http.Handler = router

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → RequestLogger → Auth → Routes
	h = middleware.AuthMiddleware(jwtVerifier, cfg.AuthDisabledUser, logger)(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", handler.SharePasswordHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0, // Disabled so large uploads are bounded by MaxUploadBytes, not the clock
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func openMetadataStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*metadataStore, error) {
	if cfg.MetadataStore == "memory" {
		logger.Warn("in-memory metadata store: data is lost on restart")
		store := memory.NewStore()
		return &metadataStore{
			folderRepo: memory.NewFolderRepository(store),
			fileRepo:   memory.NewFileRepository(store),
			ownerRepo:  memory.NewOwnerRepository(store),
			txManager:  memory.NewTransactionManager(store),
			locker:     memory.NewLocker(),
			close:      func() {},
		}, nil
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected",
		"max_conns", postgres.MaxConns,
		"min_conns", postgres.MinConns,
	)

	if err := postgres.RunMigrations(ctx, pool, cfg.TablePrefix, logger); err != nil {
		pool.Close()
		return nil, err
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	return &metadataStore{
		folderRepo: postgresDrive.NewFolderRepository(repoConfig),
		fileRepo:   postgresDrive.NewFileRepository(repoConfig),
		ownerRepo:  postgres.NewOwnerRepository(repoConfig),
		txManager:  postgres.NewTransactionManager(pool, logger),
		locker:     postgres.NewAdvisoryLocker(),
		ping:       pool.Ping,
		close:      pool.Close,
	}, nil
}

func openObjectStore(ctx context.Context, cfg *config.Config) (services.ObjectStore, handler.HealthCheck, error) {
	if cfg.ObjectStore == "memory" {
		return blobmem.New(strings.TrimRight(cfg.PublicBaseURL, "/") + "/blobs"), nil, nil
	}

	store, err := blobs3.NewFromConfig(ctx, blobs3.Config{
		Bucket:         cfg.S3Bucket,
		Region:         cfg.S3Region,
		Endpoint:       cfg.S3Endpoint,
		AccessKey:      cfg.S3AccessKey,
		SecretKey:      cfg.S3SecretKey,
		KeyPrefix:      cfg.S3KeyPrefix,
		ForcePathStyle: cfg.S3ForcePathStyle,
	})
	if err != nil {
		return nil, nil, err
	}
	return store, store.Ping, nil
}
