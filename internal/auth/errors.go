package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrBanned             = errors.New("account is banned")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)
