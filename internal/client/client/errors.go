package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRejected     = errors.New("request rejected")
	ErrUnknownCode  = errors.New("unknown or expired exchange code")
	ErrNotLoggedIn  = errors.New("not logged in")

	ErrAlreadyRegistered = errors.New("already registered")
)
