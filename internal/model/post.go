package model

import (
	"strings"
	"time"
)

// ProvisionalPrefix marks ids of posts that exist only in the local cache
// until the remote service confirms them.
const ProvisionalPrefix = "pending-"

type Post struct {
	ID        string    `json:"id"`
	Author    Author    `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	LikeCount int64     `json:"likeCount"`
	LikedByMe bool      `json:"likedByMe"`
}

func (p Post) IsProvisional() bool {
	return strings.HasPrefix(p.ID, ProvisionalPrefix)
}

type FeedPage struct {
	Posts      []Post `json:"posts"`
	NextCursor string `json:"nextCursor,omitempty"`
}

func (p FeedPage) HasMore() bool {
	return p.NextCursor != ""
}
