package dto

import (
	"context"
	"testing"
	"time"

	"github.com/BloggingApp/feed-client/internal/cache"
	"github.com/BloggingApp/feed-client/internal/metrics"
	"github.com/BloggingApp/feed-client/internal/model"
	"github.com/BloggingApp/feed-client/internal/mutation"
	"go.uber.org/zap/zaptest"
)

type gatedSubmitter struct {
	gate chan struct{}
}

func (s *gatedSubmitter) SubmitLike(ctx context.Context, postID string) (bool, error) {
	<-s.gate
	return true, nil
}

func (s *gatedSubmitter) SubmitPost(ctx context.Context, content string) (*model.Post, error) {
	<-s.gate
	return &model.Post{ID: "p1", Content: content}, nil
}

func (s *gatedSubmitter) SubmitFollow(ctx context.Context, userID string) (bool, error) {
	<-s.gate
	return true, nil
}

func TestNewMutationResponse(t *testing.T) {
	sub := &gatedSubmitter{gate: make(chan struct{})}
	engine := mutation.New(zaptest.NewLogger(t), cache.NewRegistry(), sub, metrics.New(nil), mutation.Options{})
	viewer := model.Viewer{ID: "ann"}

	like, err := engine.ToggleLike(context.Background(), "p9")
	if err != nil {
		t.Fatal(err)
	}
	post, err := engine.CreatePost(context.Background(), viewer, "hello")
	if err != nil {
		t.Fatal(err)
	}

	for _, m := range []*mutation.Mutation{like, post} {
		resp := NewMutationResponse(m)
		if resp.State != "pending" || resp.Added != nil || resp.Post != nil || resp.Error != "" {
			t.Errorf("pending %s response = %+v", m.Kind, resp)
		}
	}

	close(sub.gate)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := like.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if err := post.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	engine.Wait()

	resp := NewMutationResponse(like)
	if resp.State != "confirmed" || resp.Added == nil || !*resp.Added || resp.Post != nil {
		t.Errorf("confirmed like response = %+v", resp)
	}
	resp = NewMutationResponse(post)
	if resp.State != "confirmed" || resp.Post == nil || resp.Post.ID != "p1" || resp.Added != nil {
		t.Errorf("confirmed post response = %+v", resp)
	}
	if resp.ID != post.ID.String() || resp.Kind != "create_post" {
		t.Errorf("identity fields = %+v", resp)
	}
}
