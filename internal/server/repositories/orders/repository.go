package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/server/models"
)

// Repository stores orders. Every read and write is scoped to the owning
// user; an order of another user is indistinguishable from a missing one.
type Repository interface {
	Create(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	SetStatus(ctx context.Context, id, userID uuid.UUID, status models.OrderStatus) error
}
