package mutation

import "errors"

var (
	ErrProvisionalPost = errors.New("post is not confirmed yet")
	ErrAnonymousViewer = errors.New("viewer is not signed in")
	ErrSelfFollow      = errors.New("viewer cannot follow themselves")
	ErrEmptyContent    = errors.New("post content is empty")
	ErrContentTooLong  = errors.New("post content is too long")
	ErrEmptyTarget     = errors.New("mutation target is empty")
)
