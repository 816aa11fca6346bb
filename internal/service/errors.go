package service

import "errors"

var (
	ErrInternal     = errors.New("internal server error")
	ErrInvalidView  = errors.New("invalid view key")
	ErrEmptyProfile = errors.New("remote returned no profile")
)
