package users

import (
	"context"

	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error
}
