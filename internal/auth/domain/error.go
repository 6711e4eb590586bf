package domain

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidSession = errors.New("invalid session")
)
