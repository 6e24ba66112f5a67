package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"biomed-search/cache"
	"biomed-search/config"
	"biomed-search/providers/clinicalstudy"
	"biomed-search/providers/datadomain"
	"biomed-search/providers/scientificpaper"
	"biomed-search/providers/sources"
	"biomed-search/services"
	"biomed-search/storage"
)

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := setupTracing(ctx, cfg.TraceEndpoint)
	if err != nil {
		logging.Fatal("Tracing setup failed", zap.Error(err))
	}

	db, err := storage.OpenPostgres(cfg.DSN(), cfg.DBMaxConns)
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to database.")

	if cfg.AutoMigrate {
		logging.Info("Running database auto-migration...")
		if err := storage.Migrate(db); err != nil {
			logging.Fatal("Auto-migration failed", zap.Error(err))
		}
	}
	seeder := services.NewSeeder(db, logging)
	if err := seeder.SeedImportTopics(ctx); err != nil {
		logging.Warn("Failed to seed default import topics", zap.Error(err))
	}
	if cfg.SeedSampleData {
		if err := seeder.SeedAll(ctx); err != nil {
			logging.Warn("Failed to seed sample data", zap.Error(err))
		}
	}

	store := newStore(ctx, cfg, logging)

	// Services aufsetzen
	searchService := services.NewSearchService(store, cfg.FilterCacheTTL, logging,
		clinicalstudy.NewProvider(db, logging),
		scientificpaper.NewProvider(db, logging),
		datadomain.NewProvider(db, logging),
	)
	historyService := services.NewHistoryService(db, logging)
	collectionService := services.NewCollectionService(db, logging)

	var uploader services.Uploader
	if cfg.ExportEnabled() {
		bucket, err := storage.NewBucket(ctx, storage.Options{
			URL:    cfg.ExportS3URL,
			Region: cfg.ExportS3Region,
			Key:    cfg.ExportS3Key,
			Secret: cfg.ExportS3Secret,
			Bucket: cfg.ExportS3Bucket,
		})
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		uploader = bucket
	} else {
		logging.Info("No export bucket configured, collection export is disabled.")
	}
	exportService := services.NewExportService(db, collectionService, uploader, logging)

	authService := services.NewAuthService(services.OAuthSettings{
		Issuer:       cfg.OAuthIssuer,
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURL:  cfg.RedirectURL(),
		Scopes:       cfg.OAuthScopes,
	}, db, logging)
	if !authService.Enabled() {
		logging.Warn("OAUTH_CLIENT_ID/OAUTH_CLIENT_SECRET not set, browser login is disabled.")
	}

	templates, err := loadTemplates()
	if err != nil {
		logging.Fatal("Failed to parse templates", zap.Error(err))
	}

	router := newRouter(&application{
		cfg:         cfg,
		log:         logging,
		search:      searchService,
		history:     historyService,
		collections: collectionService,
		exports:     exportService,
		auth:        authService,
		sessions:    services.NewSessionManager(store, cfg.SessionTTL),
		ping:        func(ctx context.Context) error { return storage.Ping(ctx, db) },
		templates:   templates,
	})

	cronScheduler := setupCron(cfg, db, logging)
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server shutdown failed", zap.Error(err))
	}
	<-cronScheduler.Stop().Done()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logging.Warn("Tracer shutdown failed", zap.Error(err))
	}
}

// newStore nutzt Redis, wenn REDIS_ADDR gesetzt ist, sonst den Prozessspeicher.
func newStore(ctx context.Context, cfg *config.Config, logging *zap.Logger) cache.Store {
	if cfg.RedisAddr == "" {
		logging.Info("Using in-memory session and filter store.")
		return cache.NewMemoryStore(cfg.SessionTTL, 10*time.Minute)
	}
	store := cache.NewRedisStore(cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), "biomed:")
	if err := store.Ping(ctx); err != nil {
		logging.Fatal("Redis is not reachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	logging.Info("Using Redis session and filter store.", zap.String("addr", cfg.RedisAddr))
	return store
}

func setupCron(cfg *config.Config, db *gorm.DB, logging *zap.Logger) *cron.Cron {
	cronScheduler := cron.New()
	history := services.NewHistoryService(db, logging)

	if cfg.HistoryRetentionDays > 0 {
		_, err := cronScheduler.AddFunc(cfg.HistoryPruneSchedule, func() {
			cutoff := time.Now().AddDate(0, 0, -cfg.HistoryRetentionDays)
			n, err := history.Prune(context.Background(), cutoff)
			if err != nil {
				logging.Error("History pruning failed", zap.Error(err))
				return
			}
			logging.Info("History pruned", zap.Int64("deleted", n))
		})
		if err != nil {
			logging.Fatal("Invalid HISTORY_PRUNE_SCHEDULE", zap.Error(err))
		}
	}

	if cfg.PaperImportSchedule != "" {
		importer := services.NewImporter(db, logging, cfg.PaperImportMaxPerRun, sources.FromConfig(cfg, logging)...)
		_, err := cronScheduler.AddFunc(cfg.PaperImportSchedule, func() {
			logging.Info("Running scheduled paper import...", zap.Strings("sources", importer.Sources()))
			count, err := importer.RunAllTopics(context.Background())
			if err != nil {
				logging.Error("Cron job failed", zap.Error(err))
				return
			}
			logging.Info("Cron job completed", zap.Int("new_papers", count))
		})
		if err != nil {
			logging.Fatal("Invalid PAPER_IMPORT_SCHEDULE", zap.Error(err))
		}
	}
	return cronScheduler
}
