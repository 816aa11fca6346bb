package model

import "fmt"

type ViewKind string

const (
	ViewGlobal    ViewKind = "global"
	ViewFollowing ViewKind = "following"
	ViewProfile   ViewKind = "profile"
)

// ViewKey identifies one cached feed. It is comparable, so two keys are the
// same view exactly when their kind and user match.
type ViewKey struct {
	Kind   ViewKind `json:"kind"`
	UserID string   `json:"userId,omitempty"`
}

func GlobalView() ViewKey {
	return ViewKey{Kind: ViewGlobal}
}

func FollowingView() ViewKey {
	return ViewKey{Kind: ViewFollowing}
}

func ProfileView(userID string) ViewKey {
	return ViewKey{Kind: ViewProfile, UserID: userID}
}

func (k ViewKey) Valid() bool {
	switch k.Kind {
	case ViewGlobal, ViewFollowing:
		return k.UserID == ""
	case ViewProfile:
		return k.UserID != ""
	}
	return false
}

func (k ViewKey) String() string {
	if k.Kind == ViewProfile {
		return fmt.Sprintf("%s:%s", k.Kind, k.UserID)
	}
	return string(k.Kind)
}
