// Package refreshtokens provides a PostgreSQL-backed repository for managing
// refresh tokens used in the server's authentication flow.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/common"
	"github.com/ordermeow/ordermeow/internal/dbx"
	"github.com/ordermeow/ordermeow/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx). FindForUpdate only locks when bound to a *sql.Tx.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.ID, token.UserID, token.Token, token.CreatedAt, token.ExpiresAt); err != nil {
		return fmt.Errorf("error performing sql request: %w", common.Classify(err))
	}
	return nil
}

func (r *PostgresRepository) FindForUpdate(ctx context.Context, token string, userID uuid.UUID) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, created_at, expires_at, revoked_at
		FROM refresh_tokens
		WHERE token = $1 AND user_id = $2
		FOR UPDATE
	`
	rt := &models.RefreshToken{}
	var revokedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, token, userID).
		Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.CreatedAt, &rt.ExpiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", common.Classify(err))
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		rt.RevokedAt = &t
	}
	return rt, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE refresh_tokens SET revoked_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`
	n, err := r.exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	query := `
		UPDATE refresh_tokens SET revoked_at = $2
		WHERE user_id = $1 AND revoked_at IS NULL
	`
	return r.exec(ctx, query, userID, at)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", common.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", common.Classify(err))
	}
	return n, nil
}
