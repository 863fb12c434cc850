package domain

import "errors"

var (
	// ErrNotAuthenticated is the condition reported when no credential is stored.
	// Fetch paths treat it as state, not failure.
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUserNotFound     = errors.New("user not found")
)
