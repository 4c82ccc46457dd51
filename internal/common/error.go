// Package common defines shared constants and sentinel errors used across
// client and server layers of Genesisio. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// One-time verification code errors.
	ErrCodeNotFound = errors.New("code not found")
	ErrCodeExpired  = errors.New("code expired")

	// Client-side request throttling.
	ErrThrottleActive = errors.New("throttle active")

	// Password changes are restricted for a fixed window after the last change.
	ErrPasswordChangeRestricted = errors.New("password change temporarily restricted")
)
