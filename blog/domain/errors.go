package domain

import "errors"

var (
	// ErrNotFound is returned when a post does not exist or is not visible to the caller.
	// The two cases are intentionally indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the acting user does not own the post.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated is returned when an operation requires an acting user and none is present.
	ErrUnauthenticated = errors.New("unauthenticated")
)
