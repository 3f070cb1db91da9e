package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/common"
	"github.com/ordermeow/ordermeow/internal/server/models"
	"github.com/ordermeow/ordermeow/internal/server/repositories/refreshtokens"
)

// DefaultRefreshTTL applies when no refresh lifetime is configured.
const DefaultRefreshTTL = 7 * 24 * time.Hour

// RefreshGenerator produces unguessable refresh token records. Collisions are
// left to the store's unique constraint.
type RefreshGenerator struct {
	ttl time.Duration
	now func() time.Time
}

func NewRefreshGenerator(ttl time.Duration) *RefreshGenerator {
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	return &RefreshGenerator{ttl: ttl, now: time.Now}
}

// Generate returns a new, not yet persisted token owned by user.
func (g *RefreshGenerator) Generate(user *models.User) (*models.RefreshToken, error) {
	value, err := common.MakeRandBase64String(common.RefreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("error reading random source: %w", err)
	}
	now := g.now().UTC()
	return &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(g.ttl),
	}, nil
}

// GenerateAndPersist generates a token and stores it through repo, which is
// expected to be bound to the caller's transaction.
func (g *RefreshGenerator) GenerateAndPersist(ctx context.Context, repo refreshtokens.Repository, user *models.User) (*models.RefreshToken, error) {
	token, err := g.Generate(user)
	if err != nil {
		return nil, err
	}
	if err := repo.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}
