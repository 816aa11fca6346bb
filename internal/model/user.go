package model

type Author struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"image"`
}

// Viewer is the user the client acts on behalf of. The zero value is an
// anonymous viewer.
type Viewer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"image"`
}

func (v Viewer) IsAnonymous() bool {
	return v.ID == ""
}

func (v Viewer) Author() Author {
	return Author{
		ID:        v.ID,
		Name:      v.Name,
		AvatarURL: v.AvatarURL,
	}
}

type Profile struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AvatarURL      string `json:"image"`
	IsFollowing    bool   `json:"isFollowing"`
	FollowersCount int64  `json:"followersCount"`
	FollowsCount   int64  `json:"followsCount"`
	PostsCount     int64  `json:"postsCount"`
}
