// Package failure classifies errors crossing the fetch and mutation
// boundaries into the kinds the presentation layer reacts to.
package failure

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// Fetch means a page load failed. The view is unchanged and the load
	// can be retried from the same cursor.
	Fetch Kind = "fetch"
	// Mutation means a remote write failed and its optimistic patch was
	// rolled back.
	Mutation Kind = "mutation"
	// NotFound means the post or profile no longer exists upstream.
	NotFound Kind = "not_found"
	// Fatal marks corrupted state, such as a malformed cursor, that a retry
	// will not fix.
	Fatal Kind = "fatal"
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s failure: %s", e.Op, e.Kind, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
