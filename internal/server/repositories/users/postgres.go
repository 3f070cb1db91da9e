package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/common"
	"github.com/ordermeow/ordermeow/internal/dbx"
	"github.com/ordermeow/ordermeow/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user. A duplicate username surfaces as common.ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {

	query :=
		`INSERT INTO users (id, username, password_hash, role, created_at)
         VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.UserName, user.PasswordHash, string(user.Role), user.CreatedAt)

	if err != nil {
		return fmt.Errorf("db error: %w", common.Classify(err))
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, role, created_at FROM users
		 WHERE id = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, role, created_at FROM users
		 WHERE username = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, userName))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var role string
	err := row.Scan(&user.ID, &user.UserName, &user.PasswordHash, &role, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", common.Classify(err))
	}
	user.Role = models.Role(role)
	if !user.Role.Valid() {
		return nil, fmt.Errorf("%w: user %s has unknown role %q", common.ErrorInternal, user.ID, role)
	}

	return user, nil
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	query :=
		`UPDATE users SET role = $2
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, string(role))
	if err != nil {
		return fmt.Errorf("db error: %w", common.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", common.Classify(err))
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}
