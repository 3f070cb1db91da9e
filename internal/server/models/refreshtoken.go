package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a persisted, single-use refresh credential. It is written
// once at creation and mutated once more when RevokedAt is set.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time // nil while not revoked
}

// IsActive reports whether the token can still be redeemed at now.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
