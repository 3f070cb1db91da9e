package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/common"
	"github.com/ordermeow/ordermeow/internal/dbx"
	"github.com/ordermeow/ordermeow/internal/server/models"
)

// EnsureAdmin makes userName an administrator. A missing user is created
// with the given password; an existing one is promoted and keeps its
// password. Promotion revokes the user's refresh tokens, since they were
// issued under the old role and would be refused on rotation anyway.
func (s *AuthService) EnsureAdmin(ctx context.Context, userName, password string) (created bool, err error) {
	userName = strings.TrimSpace(userName)
	if err := validateCredentials(userName, password); err != nil {
		return false, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		users := s.repos.Users(tx)

		user, err := users.GetByUserName(ctx, userName)
		switch {
		case err == nil:
			if user.Role == models.RoleAdmin {
				return nil
			}
			if err := users.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
				return err
			}
			_, err = s.repos.RefreshTokens(tx).RevokeAllForUser(ctx, user.ID, s.now().UTC())
			return err
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		if err := validatePassword(password); err != nil {
			return err
		}
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return err
		}
		created = true
		return users.Create(ctx, &models.User{
			ID:           uuid.New(),
			UserName:     userName,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			CreatedAt:    s.now().UTC(),
		})
	})
	if err != nil {
		return false, s.fail(ctx, "ensure admin", err)
	}

	s.log.Info(ctx, "admin ensured", "user", userName, "created", created)
	return created, nil
}
