package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/adopet/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyPublicSearch = "adopet:ratelimit:%s:%s"

// PublicSearchLimiter throttles the anonymous search endpoints per client
// address. A nil limiter allows everything.
type PublicSearchLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewPublicSearchLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*PublicSearchLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.PublicSearchRate <= 0 || limitCfg.PublicSearchBurst <= 0 {
		return nil, errors.New("public search rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("rate limit redis unreachable", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return NewPublicSearchLimiterWithBucket(NewTokenBucket(client), limitCfg.PublicSearchRate, limitCfg.PublicSearchBurst), nil
}

func NewPublicSearchLimiterWithBucket(bucket *TokenBucket, rate float64, burst int) *PublicSearchLimiter {
	return &PublicSearchLimiter{bucket: bucket, rate: rate, burst: burst}
}

func (l *PublicSearchLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow takes one token from the bucket of endpoint and client.
func (l *PublicSearchLimiter) Allow(ctx context.Context, endpoint, client string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	client = strings.TrimSpace(client)
	if client == "" {
		client = "unknown"
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyPublicSearch, endpoint, client), l.rate, l.burst)
}
