package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cogex/backend/internal/api"
	"cogex/backend/internal/cache"
	"cogex/backend/internal/constants"
	"cogex/backend/internal/curation"
	"cogex/backend/internal/enrichment"
	"cogex/backend/internal/genesets"
	"cogex/backend/internal/graph"
	"cogex/backend/internal/observability"
	"cogex/backend/pkg/config"
	"cogex/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting CoGEx API server...")

	ctx := context.Background()
	shutdownTracing := observability.InitTracing(ctx, log, observability.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Version:     cfg.Version,
	})
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	// Initialize Neo4j driver
	driver, err := graph.NewDriver(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to Neo4j", zap.Error(err))
	}
	graphRepo := graph.NewRepository(driver, cfg.Neo4jDatabase)
	defer graphRepo.Close()

	// Gene set cache and analyses
	store, err := newCacheStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open gene set cache", zap.Error(err))
	}
	collector := genesets.NewCollector(graphRepo, store)
	analyzer := enrichment.NewAnalyzer(collector, graphRepo, graphRepo)

	// Curation store
	db, err := curation.OpenDB(cfg.CurationDSN)
	if err != nil {
		log.Fatal("Failed to open curation database", zap.Error(err))
	}
	curations := curation.NewGormStore(db)
	if err := curations.AutoMigrate(ctx); err != nil {
		log.Fatal("Failed to migrate curation database", zap.Error(err))
	}
	curationCache := curation.NewCache(curations, cfg.CurationCacheTTL)
	curator := curation.NewService(graphRepo, curations, curationCache, cfg.CurationLimit)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.RouterConfig{
		ServiceName: cfg.ServiceName,
		CORSOrigins: cfg.CORSOrigins,
		Analyzer:    analyzer,
		Curator:     curator,
		Health:      healthCheck(driver),
		Logger:      log,
	})

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.Bool("redis_cache", cfg.RedisAddr != ""),
		zap.Bool("postgres_curations", cfg.UsesPostgres()),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// newCacheStore layers an optional Redis tier behind the on-disk cache.
// An unreachable Redis is logged and skipped.
func newCacheStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (cache.Store, error) {
	files, err := cache.NewFileStore(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	if cfg.RedisAddr == "" {
		return cache.NewTiered(files), nil
	}
	shared, err := cache.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	if err != nil {
		log.Warn("Redis cache unavailable, using local files only",
			zap.String("addr", cfg.RedisAddr),
			zap.Error(err),
		)
		return cache.NewTiered(files), nil
	}
	return cache.NewTiered(files, shared), nil
}

type connectivityVerifier interface {
	VerifyConnectivity(ctx context.Context) error
}

func healthCheck(v connectivityVerifier) api.HealthChecker {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, constants.HealthCheckTimeout)
		defer cancel()
		return v.VerifyConnectivity(ctx)
	}
}
