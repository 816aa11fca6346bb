package repository

import (
	"github.com/BloggingApp/feed-client/internal/repository/redisrepo"
	"github.com/redis/go-redis/v9"
)

type Repository struct {
	Redis *redisrepo.RedisRepository
}

// New wires the stores backed by rdb. A nil rdb leaves every store unset and
// the client runs purely in memory.
func New(rdb redis.Cmdable) *Repository {
	if rdb == nil {
		return &Repository{}
	}
	return &Repository{
		Redis: redisrepo.New(rdb),
	}
}
