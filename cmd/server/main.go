package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/streamagenda/internal/adapter/httpserver"
	"github.com/pscheid92/streamagenda/internal/adapter/metrics"
	"github.com/pscheid92/streamagenda/internal/adapter/postgres"
	"github.com/pscheid92/streamagenda/internal/adapter/redis"
	"github.com/pscheid92/streamagenda/internal/adapter/twitch"
	"github.com/pscheid92/streamagenda/internal/app"
	"github.com/pscheid92/streamagenda/internal/platform/config"
	"github.com/pscheid92/streamagenda/internal/platform/crypto"
	"github.com/pscheid92/streamagenda/internal/platform/logging"
	"github.com/pscheid92/streamagenda/internal/platform/retry"
	"github.com/pscheid92/streamagenda/internal/platform/version"
	"github.com/pscheid92/streamagenda/internal/schedule"
	"github.com/pscheid92/streamagenda/internal/schedulecache"
	goredis "github.com/redis/go-redis/v9"
)

func runGracefulShutdown(srv *httpserver.Server, agg *app.Aggregator) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		agg.Wait()
		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config, m *metrics.StorageMetrics) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, postgres.PoolOptions{
		MaxConns: int32(cfg.DatabaseMaxConns),
		Tracer:   postgres.NewQueryTracer(m),
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.Migrate(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config, m *metrics.StorageMetrics) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL, m)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Version)

	registry := metrics.NewRegistry()
	m := metrics.NewSet(registry)

	pool := setupDB(cfg, m.Storage)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg, m.Storage)
	defer func() { _ = redisClient.Close() }()

	cryptoSvc, err := crypto.NewService(cfg.TokenEncryptionKey)
	if err != nil {
		slog.Error("Failed to create crypto service", "error", err)
		os.Exit(1)
	}

	credentials := redis.NewCredentialStore(redisClient, cryptoSvc)
	preferences := redis.NewPreferencesStore(redisClient)

	scheduleCache := schedulecache.NewGuard(postgres.NewScheduleRepo(pool), schedulecache.DefaultOptions, clock, m.Cache, m.Storage)
	stopPurge := scheduleCache.StartPurgeTimer(cfg.PurgeInterval, cfg.PurgeRetention)
	defer stopPurge()

	twitchClient := twitch.NewClient(twitch.Config{
		ClientID:       cfg.TwitchClientID,
		RedirectURI:    cfg.TwitchRedirectURI,
		APIBaseURL:     cfg.TwitchAPIURL,
		AuthBaseURL:    cfg.TwitchAuthURL,
		HTTPTimeout:    cfg.HTTPTimeout,
		MaxFollowPages: cfg.FollowMaxPages,
		Concurrency:    cfg.FetchConcurrency,
		RatePerSecond:  cfg.TwitchRatePerSecond,
	}, scheduleCache, clock, m.Twitch)

	agg := app.NewAggregator(twitchClient, clock, app.AggregatorOptions{
		StaleTime: cfg.ScheduleStaleTime,
		GCTime:    cfg.ScheduleGCTime,
		Retry:     retry.DefaultPolicy,
	}, m.Cache)
	stopEviction := agg.StartEvictionTimer(cfg.EvictionInterval)
	defer stopEviction()

	authSvc := app.NewAuthService(credentials, twitchClient, agg, clock)
	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 15*time.Second)
	if err := authSvc.Boot(bootCtx); err != nil {
		slog.Warn("Failed to restore credential, starting unauthenticated", "error", err)
	}
	cancelBoot()

	engine := schedule.NewEngine(cfg.Language())
	appSvc := app.NewService(authSvc, agg, engine, preferences, clock, cfg.DefaultTimezone)

	healthChecks := []httpserver.HealthCheck{
		{Name: "redis", Check: redis.Ping(redisClient), Critical: true},
		{Name: "postgres", Check: postgres.Ping(pool), Critical: true},
		{Name: "schedule_cache", Check: scheduleCache.Check},
	}

	srv, err := httpserver.NewServer(cfg, appSvc, authSvc, m.HTTP, metrics.Handler(registry), healthChecks)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, agg)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
