package auth

import "errors"

var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrRefreshTokenRevoked   = errors.New("refresh token has been revoked")
	ErrUserNotFound          = errors.New("user not found")
	ErrGoogleAccountNotFound = errors.New("no staff account is registered for this google email")
	ErrGoogleLoginDisabled   = errors.New("google sign-in is not configured")
)
