package pager

import "errors"

var (
	ErrStaleCursor   = errors.New("cursor is not the view's latest cursor")
	ErrNoMorePages   = errors.New("view has no more pages")
	ErrViewDiscarded = errors.New("view was discarded while the page loaded")
	ErrInvalidView   = errors.New("invalid view key")
)
