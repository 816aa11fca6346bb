package service

import (
	"context"
	"time"

	"github.com/BloggingApp/feed-client/internal/cache"
	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/BloggingApp/feed-client/internal/mutation"
	"github.com/BloggingApp/feed-client/internal/pager"
	"github.com/BloggingApp/feed-client/internal/repository"
	"go.uber.org/zap"
)

type Feed interface {
	Snapshot(ctx context.Context, key model.ViewKey) (FeedView, error)
	LoadMore(ctx context.Context, key model.ViewKey) error
	Refresh(ctx context.Context, key model.ViewKey) error
	Discard(ctx context.Context, key model.ViewKey) error
	Persist(ctx context.Context) error
}

type Mutations interface {
	Viewer() model.Viewer
	ToggleLike(ctx context.Context, postID string) (*mutation.Mutation, error)
	CreatePost(ctx context.Context, content string) (*mutation.Mutation, error)
	ToggleFollow(ctx context.Context, userID string) (*mutation.Mutation, error)
}

type Profiles interface {
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Reload(ctx context.Context, userID string) (*model.Profile, error)
}

type ProfileFetcher interface {
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
}

type Deps struct {
	Registry *cache.Registry
	Pager    *pager.Pager
	Engine   *mutation.Engine
	Remote   ProfileFetcher
	Viewer   model.Viewer
	// SnapshotTTL is how long a persisted view stays in Redis.
	SnapshotTTL time.Duration
}

type Service struct {
	Feed
	Mutations
	Profiles
}

func New(logger *zap.Logger, repo *repository.Repository, deps Deps) *Service {
	return &Service{
		Feed:      newFeedService(logger, repo, deps.Registry, deps.Pager, deps.SnapshotTTL),
		Mutations: newMutationService(deps.Engine, deps.Viewer),
		Profiles:  newProfileService(logger, deps.Registry, deps.Remote, deps.Engine),
	}
}
