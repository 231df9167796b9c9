package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tilsley/hgraph/apps/server/internal/batches"
	"github.com/tilsley/hgraph/apps/server/internal/batches/handler"
	"github.com/tilsley/hgraph/apps/server/internal/batches/memstore"
	"github.com/tilsley/hgraph/apps/server/internal/batches/store"
	"github.com/tilsley/hgraph/apps/server/internal/batches/store/pgmigrations"
	"github.com/tilsley/hgraph/apps/server/internal/batches/uploads"
	"github.com/tilsley/hgraph/apps/server/internal/platform/config"
	"github.com/tilsley/hgraph/apps/server/internal/platform/logger"
	"github.com/tilsley/hgraph/apps/server/internal/platform/middleware"
	pgplatform "github.com/tilsley/hgraph/apps/server/internal/platform/postgres"
	"github.com/tilsley/hgraph/apps/server/internal/platform/redisclient"
	"github.com/tilsley/hgraph/apps/server/internal/platform/telemetry"
	"github.com/tilsley/hgraph/apps/server/internal/platform/validation"
	"github.com/tilsley/hgraph/schemas"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	// --- Observability ---

	tel, err := telemetry.New(ctx, cfg.OTELEnabled, cfg.OTELServiceName)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "error", err)
		}
	}()

	// --- Storage ---

	var st batches.Store
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store")
		st = memstore.New()
	} else {
		pool, err := pgplatform.New(ctx, cfg.DatabaseURL, pgmigrations.FS)
		if err != nil {
			return err
		}
		defer pool.Close()
		st = store.NewPGStore(pool)
	}

	var cache batches.Cache
	if cfg.RedisURL != "" {
		rdb, err := redisclient.New(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		cache = store.NewRedisCache(rdb, cfg.CacheTTL)
	}

	svc := batches.NewService(st, cache, uploads.NewLocalStore(cfg.UploadDir), log)

	// --- HTTP ---

	validator, err := validation.New(schemas.OpenAPISpec)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(cfg.OTELServiceName),
		middleware.RequestLogger(log),
		middleware.CORS(cfg.CORSOrigins),
		validator,
	)
	handler.RegisterRoutes(router, svc, log)
	router.Static("/uploads", cfg.UploadDir)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting hgraph", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
