package service

import (
	"context"

	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/BloggingApp/feed-client/internal/mutation"
)

// mutationService issues writes as the signed-in viewer.
type mutationService struct {
	engine *mutation.Engine
	viewer model.Viewer
}

func newMutationService(engine *mutation.Engine, viewer model.Viewer) Mutations {
	return &mutationService{
		engine: engine,
		viewer: viewer,
	}
}

func (s *mutationService) Viewer() model.Viewer {
	return s.viewer
}

func (s *mutationService) ToggleLike(ctx context.Context, postID string) (*mutation.Mutation, error) {
	return s.engine.ToggleLike(ctx, postID)
}

func (s *mutationService) CreatePost(ctx context.Context, content string) (*mutation.Mutation, error) {
	return s.engine.CreatePost(ctx, s.viewer, content)
}

func (s *mutationService) ToggleFollow(ctx context.Context, userID string) (*mutation.Mutation, error) {
	return s.engine.ToggleFollow(ctx, s.viewer, userID)
}
