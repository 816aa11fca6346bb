package redisrepo

import (
	"context"
	"time"

	"github.com/BloggingApp/feed-client/internal/model"
)

type viewsRepo struct {
	def Default
}

func newViewsRepo(def Default) Views {
	return &viewsRepo{
		def: def,
	}
}

func (r *viewsRepo) SaveView(ctx context.Context, key model.ViewKey, pages []model.FeedPage, ttl time.Duration) error {
	return r.def.SetJSON(ctx, ViewKey(key), pages, ttl)
}

func (r *viewsRepo) LoadView(ctx context.Context, key model.ViewKey) ([]*model.FeedPage, error) {
	return GetMany[model.FeedPage](r.def, ctx, ViewKey(key))
}

func (r *viewsRepo) DeleteView(ctx context.Context, key model.ViewKey) error {
	return r.def.Del(ctx, ViewKey(key)).Err()
}
