// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/server/models"
)

// Repository defines operations for issuing, locking and revoking refresh
// tokens. Rows are never deleted by the auth flow; revocation sets revoked_at.
type Repository interface {
	// Create stores a fully populated token record.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindForUpdate returns the token matching both value and owner and locks
	// its row until the surrounding transaction ends. A token that exists but
	// belongs to another user is reported as common.ErrorNotFound.
	FindForUpdate(ctx context.Context, token string, userID uuid.UUID) (*models.RefreshToken, error)

	// Revoke marks the token revoked at the given instant. It returns
	// common.ErrorNotFound when no unrevoked row with that id exists, which is
	// how a lost rotation race is detected.
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error

	// RevokeAllForUser revokes every unrevoked token of userID and returns the
	// number of rows affected.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
}
