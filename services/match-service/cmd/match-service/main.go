package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/meetmatch/libs/config"
	"github.com/md-rashed-zaman/meetmatch/libs/db"
	"github.com/md-rashed-zaman/meetmatch/libs/httpx"
	"github.com/md-rashed-zaman/meetmatch/libs/kafkax"
	otelx "github.com/md-rashed-zaman/meetmatch/libs/otel"
	"github.com/md-rashed-zaman/meetmatch/libs/runtime"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/cache"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/consumer"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/fixtures"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/handlers"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/inbox"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/matching"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/outbox"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/schedule"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/selection"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(healthcheck())
	}

	service := config.String("SERVICE_NAME", "match-service")
	logger := runtime.NewLogger(service, config.String("LOG_LEVEL", "info"))

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		panic(err)
	}

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var (
		pool   *db.Pool
		source schedule.Store
		sharer selection.Sharer = outbox.LogSharer{Logger: logger}
		dedupe consumer.Deduper
	)
	if cfg.DatabaseURL != "" {
		pool, err = db.Open(ctx, cfg.DatabaseURL, cfg.Pool)
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()

		repo := storage.NewScheduleRepository(pool)
		if cfg.SeedFixtures {
			if err := repo.Seed(ctx, fixtures.Participants()); err != nil {
				logger.Error("fixture seed failed", "err", err)
			} else {
				logger.Info("fixture participants seeded")
			}
		}
		source = repo

		outboxRepo := outbox.NewRepository(pool)
		sharer = outbox.NewSharer(pool, outboxRepo)
		go outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			PollEvery: cfg.OutboxPollEvery,
			BatchSize: cfg.OutboxBatchSize,
		}).Run(ctx)

		dedupe = inbox.NewRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set; serving fixture participants from memory")
		source = schedule.NewMemoryStore(fixtures.Participants())
	}

	store := schedule.NewSnapshotStore(source)
	if c := consumer.New(logger, dedupe, consumer.Config{
		Brokers: cfg.KafkaBrokers,
		GroupID: cfg.KafkaGroupID,
		Topic:   cfg.ScheduleTopic,
	}, consumer.InvalidateSnapshot(store, logger)); c != nil {
		go c.Run(ctx)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
	}

	engine := matching.NewEngine(matching.Policy{TentativeCountsAsFree: cfg.TentativeCountsAsFree})
	var matcher *cache.MatchCache
	if rdb != nil {
		matcher = cache.New(rdb, engine, logger, cfg.MatchCacheTTL, cfg.MatchCachePrefix)
		logger.Info("match cache enabled (redis)", "ttl", cfg.MatchCacheTTL.String())
	} else {
		matcher = cache.New(nil, engine, logger, 0, "")
	}
	matchHandler := handlers.NewMatchHandler(store, matcher, selection.NewController(engine, sharer), cfg.MaxSelection, logger)

	health, err := startGrpcServer(ctx, logger, cfg.GRPCPort)
	if err != nil {
		logger.Error("grpc server failed to start", "err", err)
	}
	go warmSnapshot(ctx, store, health, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "redis", Check: redisReadyCheck(rdb)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)},
		runtime.ReadyCheck{Name: "snapshot", Check: func(context.Context) error {
			if !store.Loaded() {
				return errors.New("participant snapshot not loaded")
			}
			return nil
		}},
	)
	mux.HandleFunc("/api/v1/matches", matchHandler.Matches)
	mux.HandleFunc("/api/v1/matches/confirm", matchHandler.Confirm)
	mux.HandleFunc("/api/v1/participants", matchHandler.Participants)

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", httpx.RequestIDHeader},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		rateLimit(cfg, rdb, logger),
		httpx.WithBodyLimit(cfg.BodyLimitBytes),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	handler = otelhttp.NewHandler(handler, "match")

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.ServeHTTP(ctx, srv, logger, 10*time.Second)
}

func rateLimit(cfg serviceConfig, rdb *redis.Client, logger *slog.Logger) httpx.Middleware {
	if cfg.RateLimitPerMinute <= 0 {
		return nil
	}
	if rdb != nil {
		rl := httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, cfg.RateLimitPrefix)
		logger.Info("rate limiting enabled (redis)", "per_minute", cfg.RateLimitPerMinute)
		return rl.Middleware(logger, cfg.RateLimitFailOpen)
	}
	logger.Info("rate limiting enabled (in-memory)", "per_minute", cfg.RateLimitPerMinute)
	return httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute).Middleware()
}

func redisReadyCheck(rdb *redis.Client) func(context.Context) error {
	if rdb == nil {
		return nil
	}
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

// warmSnapshot loads the first participant snapshot and flips gRPC health to
// SERVING once it succeeds, retrying until ctx ends.
func warmSnapshot(ctx context.Context, store *schedule.SnapshotStore, health healthSetter, logger *slog.Logger) {
	backoff := time.Second
	for {
		ps, err := store.Participants(ctx)
		if err == nil {
			logger.Info("participant snapshot loaded", "participants", len(ps))
			if health != nil {
				health.setServing(true)
			}
			return
		}
		logger.Warn("participant snapshot load failed", "err", err, "retry_in", backoff.String())
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}
