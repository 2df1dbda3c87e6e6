package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/civicdash/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyLoginAttempt = "dashboard:login:ip:%s"

// ErrUnavailable means the limiter backend could not be consulted.
var ErrUnavailable = errors.New("rate_limiter_unavailable")

// Decision is the verdict for one login attempt.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// LoginLimiter throttles password attempts per client IP.
type LoginLimiter struct {
	bucket Bucket
	rate   float64
	burst  int
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
}

// NewLoginLimiter returns nil when rate limiting is disabled; a nil limiter
// allows every attempt.
func NewLoginLimiter(p Params) (*LoginLimiter, error) {
	limitCfg := p.Config.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.LoginRate <= 0 || limitCfg.LoginBurst <= 0 {
		return nil, errors.New("login rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	log := p.Log.Named("ratelimit")
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis ping failed", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return NewLoginLimiterWithBucket(NewTokenBucket(client), limitCfg.LoginRate, limitCfg.LoginBurst), nil
}

func NewLoginLimiterWithBucket(bucket Bucket, rate float64, burst int) *LoginLimiter {
	return &LoginLimiter{bucket: bucket, rate: rate, burst: burst}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *LoginLimiter) AllowAttempt(ctx context.Context, clientIP string) (Decision, error) {
	if !l.Enabled() {
		return Decision{Allowed: true}, nil
	}
	ip := strings.TrimSpace(clientIP)
	if ip == "" {
		ip = "unknown"
	}

	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyLoginAttempt, ip), l.rate, l.burst)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return Decision{Allowed: res.Allowed, RetryAfter: res.RetryAfter}, nil
}
