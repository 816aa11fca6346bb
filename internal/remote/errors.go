package remote

import "errors"

var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrMalformedCursor  = errors.New("malformed cursor")
	ErrInvalidView      = errors.New("invalid view key")
)
