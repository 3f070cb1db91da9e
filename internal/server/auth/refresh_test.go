package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokenRepo struct {
	created []*models.RefreshToken
	err     error
}

func (f *fakeTokenRepo) Create(_ context.Context, t *models.RefreshToken) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, t)
	return nil
}

func (f *fakeTokenRepo) FindForUpdate(context.Context, string, uuid.UUID) (*models.RefreshToken, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTokenRepo) Revoke(context.Context, uuid.UUID, time.Time) error {
	return errors.New("not implemented")
}

func (f *fakeTokenRepo) RevokeAllForUser(context.Context, uuid.UUID, time.Time) (int64, error) {
	return 0, errors.New("not implemented")
}

func TestRefreshGenerator_Generate(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewRefreshGenerator(0)
	g.now = func() time.Time { return fixed }

	u := &models.User{ID: uuid.New()}
	tok, err := g.Generate(u)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(tok.Token)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.Equal(t, u.ID, tok.UserID)
	assert.Equal(t, fixed, tok.CreatedAt)
	assert.Equal(t, fixed.Add(DefaultRefreshTTL), tok.ExpiresAt)
	assert.Nil(t, tok.RevokedAt)
	assert.NotEqual(t, uuid.Nil, tok.ID)
	assert.True(t, tok.IsActive(fixed))
}

func TestRefreshGenerator_Unique(t *testing.T) {
	t.Parallel()

	g := NewRefreshGenerator(time.Hour)
	u := &models.User{ID: uuid.New()}
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		tok, err := g.Generate(u)
		require.NoError(t, err)
		require.False(t, seen[tok.Token], "duplicate token")
		seen[tok.Token] = true
	}
}

func TestRefreshGenerator_GenerateAndPersist(t *testing.T) {
	t.Parallel()

	g := NewRefreshGenerator(24 * time.Hour)
	u := &models.User{ID: uuid.New()}

	repo := &fakeTokenRepo{}
	tok, err := g.GenerateAndPersist(context.Background(), repo, u)
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Same(t, tok, repo.created[0])

	boom := errors.New("boom")
	_, err = g.GenerateAndPersist(context.Background(), &fakeTokenRepo{err: boom}, u)
	assert.ErrorIs(t, err, boom)
}

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4)
	hash, err := h.Hash("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)

	assert.True(t, h.Verify("Secret123", hash))
	assert.False(t, h.Verify("secret123", hash))
	assert.False(t, h.Verify("Secret123", "not-a-hash"))

	other, err := h.Hash("Secret123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salt must differ")
}

func TestBcryptHasher_CostFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 10, NewBcryptHasher(0).cost)
	assert.Equal(t, 10, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}
