// Package fraud records verification attempts for codes that do not exist.
// A burst of misses from one client usually means someone is probing for
// valid codes or printing counterfeit labels.
package fraud

import (
	"context"
	"fmt"
	"time"

	"luxverify-backend/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	missWindow    = time.Hour
	missThreshold = 10
)

type Monitor interface {
	RecordMiss(ctx context.Context, code, ip string)
}

// LogMonitor only logs. It is used when redis is disabled.
type LogMonitor struct{}

func (LogMonitor) RecordMiss(_ context.Context, code, ip string) {
	zap.L().Info("verification miss", zap.String("code", code), zap.String("ip", ip))
}

// RedisMonitor counts misses per client ip; the window restarts with each
// miss. It warns once the count reaches the threshold.
type RedisMonitor struct {
	client *redis.Client
}

func NewRedisMonitor(cfg config.RedisConfig) (*RedisMonitor, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}
	return &RedisMonitor{client: client}, nil
}

// New picks the monitor implementation from configuration.
func New(cfg config.RedisConfig) (Monitor, error) {
	if !cfg.Enabled {
		return LogMonitor{}, nil
	}
	return NewRedisMonitor(cfg)
}

func missKey(ip string) string {
	return fmt.Sprintf("verify:miss:%s", ip)
}

func (m *RedisMonitor) RecordMiss(ctx context.Context, code, ip string) {
	key := missKey(ip)

	pipe := m.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, missWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		zap.L().Warn("fraud monitor unavailable", zap.String("ip", ip), zap.Error(err))
		return
	}

	count := incr.Val()
	fields := []zap.Field{zap.String("code", code), zap.String("ip", ip), zap.Int64("misses", count)}
	if count >= missThreshold {
		zap.L().Warn("repeated verification misses", fields...)
		return
	}
	zap.L().Info("verification miss", fields...)
}

func (m *RedisMonitor) Close() error {
	return m.client.Close()
}
