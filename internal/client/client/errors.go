package client

import "errors"

var (
	ErrUnavailable      = errors.New("server unavailable")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrPermissionDenied = errors.New("no live verification session")
	ErrNotFound         = errors.New("user not found")
	ErrNotConfigured    = errors.New("TOTP is not configured for this user")
	ErrAlreadyExists    = errors.New("username is taken")
	ErrInvalidInput     = errors.New("invalid input")
)
