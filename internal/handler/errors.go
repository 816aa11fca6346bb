package handler

import (
	"errors"
	"net/http"

	"github.com/BloggingApp/feed-client/internal/failure"
	"github.com/BloggingApp/feed-client/internal/mutation"
	"github.com/BloggingApp/feed-client/internal/pager"
	"github.com/BloggingApp/feed-client/internal/service"
)

var (
	errNotAuthorized = errors.New("user is not authorized")
	errForbidden     = errors.New("token does not belong to the signed-in user")
	errInvalidUserID = errors.New("invalid user ID")
	errInvalidPostID = errors.New("invalid post ID")
)

var badRequest = []error{
	mutation.ErrProvisionalPost,
	mutation.ErrAnonymousViewer,
	mutation.ErrSelfFollow,
	mutation.ErrEmptyContent,
	mutation.ErrContentTooLong,
	mutation.ErrEmptyTarget,
	service.ErrInvalidView,
	pager.ErrInvalidView,
}

func statusOf(err error) int {
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}

	kind, _ := failure.KindOf(err)
	switch kind {
	case failure.NotFound:
		return http.StatusNotFound
	case failure.Fetch, failure.Mutation:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
