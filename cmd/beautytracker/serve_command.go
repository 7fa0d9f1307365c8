package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vbonduro/beautytracker/internal/cache"
	"github.com/vbonduro/beautytracker/internal/config"
	"github.com/vbonduro/beautytracker/internal/db"
	"github.com/vbonduro/beautytracker/internal/imagesearch"
	"github.com/vbonduro/beautytracker/internal/logging"
	"github.com/vbonduro/beautytracker/internal/photostore"
	"github.com/vbonduro/beautytracker/internal/photostore/local"
	"github.com/vbonduro/beautytracker/internal/photostore/s3"
	"github.com/vbonduro/beautytracker/internal/service"
	"github.com/vbonduro/beautytracker/internal/store"
	"github.com/vbonduro/beautytracker/internal/vision"
	claudevision "github.com/vbonduro/beautytracker/internal/vision/claude"
	ollamavision "github.com/vbonduro/beautytracker/internal/vision/ollama"
	"github.com/vbonduro/beautytracker/internal/web"
)

func newServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if addr != "" {
				cfg.ListenAddr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides LISTEN_ADDR)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	visionAnalyzer, err := newVisionAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	photoStg, err := newPhotoStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	finder, closeCache, err := newImageFinder(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	productStore := store.NewProductStore(database)
	userProductStore := store.NewUserProductStore(database)
	userStepStore := store.NewUserStepStore(database)

	services := web.Services{
		Catalog: service.NewCatalogService(
			productStore,
			store.NewProductImageStore(database),
			store.NewCategoryStore(database),
			userProductStore,
			visionAnalyzer,
			finder,
			photoStg,
			logger,
		),
		Inventory: service.NewInventoryService(productStore, userProductStore, photoStg, logger),
		Routines:  service.NewRoutineService(store.NewRoutineStore(database), userProductStore, userStepStore, logger),
		UserSteps: service.NewUserStepService(userStepStore, logger),
	}

	server := web.NewServer(services, photoStg, web.Options{
		AuthHeader:     cfg.AuthHeader,
		DevUser:        cfg.AuthDevUser,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Health:         database.PingContext,
	}, logger)
	if cfg.AuthDevUser != "" {
		logger.Warn("AUTH_DEV_USER is set; unauthenticated requests act as that user", "user_id", cfg.AuthDevUser)
	}

	return server.ListenAndServe(ctx, cfg.ListenAddr)
}

func newVisionAnalyzer(cfg *config.Config, logger *slog.Logger) (vision.VisionAnalyzer, error) {
	switch cfg.VisionBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			return nil, fmt.Errorf("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
		}
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeAnalyzer(cfg.ClaudeAPIKey, cfg.ClaudeModel, ""), nil
	case "ollama":
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaAnalyzer(cfg.OllamaHost, cfg.OllamaModel, logger), nil
	default:
		return nil, fmt.Errorf("unknown VISION_BACKEND %q", cfg.VisionBackend)
	}
}

func newPhotoStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (photostore.PhotoStore, error) {
	switch cfg.PhotoBackend {
	case "s3":
		ps, err := s3.NewS3PhotoStore(s3.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			return nil, err
		}
		if err := ps.EnsureBucket(ctx, cfg.S3Region); err != nil {
			return nil, err
		}
		logger.Info("using S3 photo store", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
		return ps, nil
	case "", "local":
		ps, err := local.NewLocalPhotoStore(cfg.PhotoPath, cfg.PhotoPublicURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize photo store: %w", err)
		}
		logger.Info("using local photo store", "path", cfg.PhotoPath)
		return ps, nil
	default:
		return nil, fmt.Errorf("unknown PHOTO_BACKEND %q", cfg.PhotoBackend)
	}
}

// newImageFinder returns a nil Finder when image search is not configured.
// The returned func releases the cache connection.
func newImageFinder(ctx context.Context, cfg *config.Config, logger *slog.Logger) (imagesearch.Finder, func(), error) {
	if !cfg.ImageSearchEnabled() {
		logger.Info("image search disabled; new products use the uploaded photo")
		return nil, func() {}, nil
	}

	var c cache.Cache = cache.Noop{}
	closeCache := func() {}
	if cfg.RedisAddr != "" {
		r, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		c = r
		closeCache = func() {
			if err := r.Close(); err != nil {
				logger.Error("failed to close redis", "error", err)
			}
		}
		logger.Info("caching image search results in redis", "addr", cfg.RedisAddr)
	}

	client := imagesearch.NewClient(cfg.GoogleAPIKey, cfg.GoogleSearchCX, cfg.ImageSearchURL, logger)
	return imagesearch.NewCachedFinder(client, c, logger), closeCache, nil
}
