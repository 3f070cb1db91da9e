// Package common defines shared constants and sentinel errors used across
// the store, the auth core and the transport layer. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level categories. Every error leaving a service wraps exactly one
	// of these so the boundary can map it to a transport status.
	ErrorInvalidInput = errors.New("invalid input")
	ErrorConflict     = errors.New("conflict")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorTransient    = errors.New("temporarily unavailable")
	ErrorInternal     = errors.New("internal error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
