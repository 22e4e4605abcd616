package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	slogecho "github.com/samber/slog-echo"

	"github.com/iliyamo/program-discovery/internal/cache"
	"github.com/iliyamo/program-discovery/internal/catalog"
	"github.com/iliyamo/program-discovery/internal/config"
	"github.com/iliyamo/program-discovery/internal/database"
	"github.com/iliyamo/program-discovery/internal/discovery"
	"github.com/iliyamo/program-discovery/internal/handler"
	"github.com/iliyamo/program-discovery/internal/middleware"
	"github.com/iliyamo/program-discovery/internal/model"
	"github.com/iliyamo/program-discovery/internal/queue"
	"github.com/iliyamo/program-discovery/internal/repository"
	"github.com/iliyamo/program-discovery/internal/router"
	"github.com/iliyamo/program-discovery/internal/service"
	"github.com/iliyamo/program-discovery/internal/warmer"
)

// pageSource is what both page config backends offer.
type pageSource interface {
	GetConfigBySlug(ctx context.Context, slug string) (*model.PageConfig, error)
	ListSlugs(ctx context.Context) ([]string, error)
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	cacheCfg := config.LoadCacheConfig()
	discoveryCfg := config.LoadDiscoveryConfig()
	warmCfg := config.LoadWarmerConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient()
	if rdb == nil {
		slog.Warn("Redis unreachable: payload cache kept in memory, rate limiting disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	var store cache.Store
	if rdb != nil && cacheCfg.Enabled {
		store = cache.NewRedisStore(rdb)
	} else {
		mem, err := cache.NewMemoryStore(cacheCfg.MemoryEntries)
		if err != nil {
			slog.Error("Failed to create memory cache", "error", err)
			os.Exit(1)
		}
		store = mem
	}

	pages, closeDB, err := openPages(cfg)
	if err != nil {
		slog.Error("Failed to open page configs", "error", err)
		os.Exit(1)
	}
	defer closeDB()

	svc := discovery.NewService(
		discovery.NewContextBuilder(pages, discoveryCfg, log.With("component", "context")),
		discovery.NewAggregator(catalog.NewFactory(config.LoadCatalogConfig()), discoveryCfg, log.With("component", "fanout")),
		store,
		cacheCfg.Prefix,
		log.With("component", "discovery"),
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(slogecho.New(log))
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	var limitStore redis.UniversalClient
	if rdb != nil {
		limitStore = rdb
	}
	limiter := middleware.NewRateLimiter(config.LoadRateLimitConfig(), limitStore, log.With("component", "ratelimit"))

	router.RegisterRoutes(e)
	router.RegisterPublic(e, handler.NewDiscoveryHandler(svc), limiter.Middleware())
	router.RegisterAdmin(e, handler.NewAdminHandler(service.NewPublisher(cfg.AMQPURL, log.With("component", "publisher")), svc), cfg.JWTSecret)

	consumer := queue.NewConsumer(cfg.AMQPURL, svc, warmCfg.Timeout, log.With("component", "consumer"))
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Refresh consumer stopped", "error", err)
		}
	}()

	if pages != nil && warmCfg.Schedule != "" {
		w := warmer.New(pages, svc, warmCfg.Timeout, log.With("component", "warmer"))
		if err := w.Start(warmCfg.Schedule); err != nil {
			slog.Error("Failed to start warmer", "error", err)
			os.Exit(1)
		}
		defer w.Stop()
	}

	go func() {
		addr := ":" + cfg.Port
		slog.Info("Starting server", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("Closing server", "error", err)
	}
}

// openPages picks the page config backend: the database when configured,
// else the YAML file, else none.
func openPages(cfg config.Config) (pageSource, func(), error) {
	noop := func() {}
	switch {
	case cfg.Database.Enabled():
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		closeDB := func() { closeQuietly(db) }
		if err := database.Migrate(db, cfg.Database.Driver); err != nil {
			closeDB()
			return nil, noop, err
		}
		slog.Info("Page configs from database", "driver", cfg.Database.Driver)
		return repository.NewPageConfigRepo(db), closeDB, nil
	case cfg.PagesFile != "":
		f, err := repository.LoadPageConfigFile(cfg.PagesFile)
		if err != nil {
			return nil, noop, err
		}
		slog.Info("Page configs from file", "path", cfg.PagesFile)
		return f, noop, nil
	default:
		slog.Warn("No page config source; every slug uses the global defaults")
		return nil, noop, nil
	}
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}
