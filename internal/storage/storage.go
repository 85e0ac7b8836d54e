package storage

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrEmailExists     = errors.New("email already in use")
	ErrSessionNotFound = errors.New("session not found")
	ErrKeyNotFound     = errors.New("key not found")
)

// ErrUnavailable marks a backing store that did not answer in time.
var ErrUnavailable = errors.New("storage unavailable")
