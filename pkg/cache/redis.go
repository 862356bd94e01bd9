package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/kingsaver/media-gateway/pkg/models"
)

// Redis is the shared-store variant of the resolution cache. Expiry is
// server-side, so no sweeper runs here.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

const redisKeyPrefix = "resolve:"

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (*models.ResolvedMedia, bool) {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("redis get failed", "key", key, "err", err)
		}
		return nil, false
	}

	var media models.ResolvedMedia
	if err := json.Unmarshal([]byte(val), &media); err != nil {
		slog.Warn("redis entry unreadable, dropping", "key", key, "err", err)
		r.client.Del(ctx, redisKeyPrefix+key)
		return nil, false
	}
	return &media, true
}

func (r *Redis) Put(ctx context.Context, key string, value *models.ResolvedMedia) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("redis marshal failed", "key", key, "err", err)
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err(); err != nil {
		slog.Warn("redis set failed", "key", key, "err", err)
	}
}

// Detect returns a Redis-backed store when an address is configured and
// answers a ping, otherwise the in-memory store. Cache contents are
// transient either way; losing them only costs one re-extraction.
func Detect(ctx context.Context, redisAddr string, ttl time.Duration) Store {
	if redisAddr == "" {
		return NewMemory(ttl)
	}

	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis not reachable, using in-memory cache", "addr", redisAddr, "err", err)
		_ = client.Close()
		return NewMemory(ttl)
	}

	slog.Info("using redis resolution cache", "addr", redisAddr)
	return NewRedis(client, ttl)
}
