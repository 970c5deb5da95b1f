// Package bootstrap wires configuration into runnable services so the api
// and worker binaries share one composition root.
package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/coopentrega/recruiting-ai-platform/internal/config"
	"github.com/coopentrega/recruiting-ai-platform/internal/messaging"
	"github.com/coopentrega/recruiting-ai-platform/internal/session"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, session memory disabled", "error", err)
		return nil
	}
	return client
}

// BuildSessionStore returns the candidate memory store, or nil when Redis is
// unavailable. The funnel still works without it; only cross-turn recall of
// the whitelisted fields is lost.
func BuildSessionStore(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) *session.Store {
	if redisClient == nil {
		return nil
	}
	return session.NewStore(redisClient, cfg.SessionTTL, logger)
}

// BuildMessageStore connects the Postgres-backed conversation log and dedupe
// ledger, or returns nil when DATABASE_URL is unset.
func BuildMessageStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *messaging.Store {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Warn("postgres not available, message log disabled", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Warn("postgres not reachable, message log disabled", "error", err)
		pool.Close()
		return nil
	}
	return messaging.NewStore(pool)
}
