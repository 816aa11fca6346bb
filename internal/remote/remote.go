// Package remote talks to the social API that owns posts, likes and follows.
package remote

import (
	"context"

	"github.com/BloggingApp/feed-client/internal/model"
)

// Remote is everything the client needs from the server.
type Remote interface {
	FetchFeedPage(ctx context.Context, key model.ViewKey, cursor string) (*model.FeedPage, error)
	SubmitLike(ctx context.Context, postID string) (addedLike bool, err error)
	SubmitPost(ctx context.Context, content string) (*model.Post, error)
	SubmitFollow(ctx context.Context, userID string) (addedFollow bool, err error)
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
}
