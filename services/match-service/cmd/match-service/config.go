package main

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/meetmatch/libs/config"
	"github.com/md-rashed-zaman/meetmatch/libs/db"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/consumer"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/selection"
)

type serviceConfig struct {
	Port     string
	GRPCPort string

	DatabaseURL  string
	Pool         db.PoolOptions
	SeedFixtures bool

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	MatchCacheTTL    time.Duration
	MatchCachePrefix string

	KafkaBrokers    string
	KafkaGroupID    string
	ScheduleTopic   string
	OutboxPollEvery time.Duration
	OutboxBatchSize int

	MaxSelection          int
	TentativeCountsAsFree bool

	CORSAllowedOrigins []string
	RateLimitPerMinute int
	RateLimitPrefix    string
	RateLimitFailOpen  bool
	BodyLimitBytes     int64
	RequestTimeout     time.Duration
}

func loadConfig() (serviceConfig, error) {
	var (
		cfg serviceConfig
		err error
	)
	if cfg.Port, err = config.Port("PORT", "8080"); err != nil {
		return cfg, err
	}
	if cfg.GRPCPort, err = config.Port("GRPC_PORT", "9090"); err != nil {
		return cfg, err
	}

	cfg.DatabaseURL = config.String("DATABASE_URL", "")
	maxConns, err := config.Int("DB_MAX_CONNS", 0)
	if err != nil {
		return cfg, err
	}
	cfg.Pool.MaxConns = int32(maxConns)
	cfg.SeedFixtures = config.Bool("SEED_FIXTURES", false)

	cfg.RedisAddr = config.String("REDIS_ADDR", "")
	cfg.RedisPassword = config.String("REDIS_PASSWORD", "")
	if cfg.RedisDB, err = config.Int("REDIS_DB", 0); err != nil {
		return cfg, err
	}
	if cfg.MatchCacheTTL, err = config.Duration("MATCH_CACHE_TTL", 10*time.Minute); err != nil {
		return cfg, err
	}
	cfg.MatchCachePrefix = config.String("MATCH_CACHE_PREFIX", "matches")

	cfg.KafkaBrokers = config.String("KAFKA_BROKERS", "")
	cfg.KafkaGroupID = config.String("KAFKA_GROUP_ID", "match-service")
	cfg.ScheduleTopic = config.String("KAFKA_SCHEDULE_TOPIC", consumer.TopicScheduleUpdated)
	if cfg.OutboxPollEvery, err = config.Duration("OUTBOX_POLL_EVERY", 2*time.Second); err != nil {
		return cfg, err
	}
	if cfg.OutboxBatchSize, err = config.Int("OUTBOX_BATCH_SIZE", 50); err != nil {
		return cfg, err
	}

	if cfg.MaxSelection, err = config.Int("MAX_SELECTION", selection.DefaultMax); err != nil {
		return cfg, err
	}
	if cfg.MaxSelection < 1 {
		return cfg, fmt.Errorf("MAX_SELECTION must be at least 1 (got %d)", cfg.MaxSelection)
	}
	cfg.TentativeCountsAsFree = config.Bool("TENTATIVE_COUNTS_AS_FREE", false)

	cfg.CORSAllowedOrigins = config.List("CORS_ALLOWED_ORIGINS")
	if cfg.RateLimitPerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return cfg, err
	}
	cfg.RateLimitPrefix = config.String("RATE_LIMIT_PREFIX", "rl:match")
	cfg.RateLimitFailOpen = config.Bool("RATE_LIMIT_FAIL_OPEN", true)
	bodyLimit, err := config.Int("REQUEST_BODY_LIMIT_BYTES", 64<<10)
	if err != nil {
		return cfg, err
	}
	cfg.BodyLimitBytes = int64(bodyLimit)
	if cfg.RequestTimeout, err = config.Duration("REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return cfg, err
	}
	return cfg, nil
}
