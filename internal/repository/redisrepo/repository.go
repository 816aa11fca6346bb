// Package redisrepo keeps feed snapshots in Redis so a restarted client can
// show its last pages before the first fetch completes.
package redisrepo

import (
	"context"
	"time"

	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/redis/go-redis/v9"
)

type Default interface {
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Views stores the confirmed pages of a view. LoadView returns redis.Nil
// when nothing is stored for the key.
type Views interface {
	SaveView(ctx context.Context, key model.ViewKey, pages []model.FeedPage, ttl time.Duration) error
	LoadView(ctx context.Context, key model.ViewKey) ([]*model.FeedPage, error)
	DeleteView(ctx context.Context, key model.ViewKey) error
}

type RedisRepository struct {
	Default
	Views
}

func New(rdb redis.Cmdable) *RedisRepository {
	def := newDefaultRepo(rdb)
	return &RedisRepository{
		Default: def,
		Views:   newViewsRepo(def),
	}
}
