package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ordermeow/ordermeow/internal/common"
	"github.com/ordermeow/ordermeow/internal/dbx"
	"github.com/ordermeow/ordermeow/internal/logging"
	"github.com/ordermeow/ordermeow/internal/server/cache"
	"github.com/ordermeow/ordermeow/internal/server/models"
	"github.com/ordermeow/ordermeow/internal/server/queue"
	"github.com/ordermeow/ordermeow/internal/server/repositories/repomanager"
)

const MaxOrderTitleLength = 200

// OrderListCache caches a user's order listing.
type OrderListCache interface {
	GetOrLoad(ctx context.Context, userID uuid.UUID, load cache.LoadFunc) ([]*models.Order, error)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

type OrderDeps struct {
	DB        dbx.DBTX
	Tx        dbx.TxRunner
	Repos     repomanager.RepositoryManager
	Cache     OrderListCache
	Publisher queue.Publisher
	Logger    logging.Logger
}

// OrderService manages a user's orders. Every operation is scoped to the
// calling user.
type OrderService struct {
	db        dbx.DBTX
	tx        dbx.TxRunner
	repos     repomanager.RepositoryManager
	cache     OrderListCache
	publisher queue.Publisher
	log       logging.Logger
	now       func() time.Time
}

func NewOrderService(d OrderDeps) *OrderService {
	log := d.Logger
	if log == nil {
		log = logging.NopLogger{}
	}
	c := d.Cache
	if c == nil {
		c = cache.NewOrderCache(nil, 0, log)
	}
	pub := d.Publisher
	if pub == nil {
		pub = queue.NopPublisher{}
	}
	return &OrderService{
		db:        d.DB,
		tx:        d.Tx,
		repos:     d.Repos,
		cache:     c,
		publisher: pub,
		log:       log.With("module", "order_service"),
		now:       time.Now,
	}
}

// Create stores a new order and publishes OrderCreated before the insert
// commits; a failed publish aborts the order.
func (s *OrderService) Create(ctx context.Context, userID uuid.UUID, title, description string) (*models.Order, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      models.OrderStatusCreated,
		CreatedAt:   s.now().UTC(),
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Orders(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.publisher.PublishOrderCreated(ctx, queue.OrderCreatedEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			Title:     order.Title,
			CreatedAt: order.CreatedAt,
		})
	})
	if err != nil {
		return nil, s.fail(ctx, "create order", err)
	}

	s.cache.Invalidate(ctx, userID)
	s.log.Info(ctx, "order created", "order_id", order.ID, "user_id", userID)
	return order, nil
}

func (s *OrderService) List(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	orders, err := s.cache.GetOrLoad(ctx, userID, func(ctx context.Context) ([]*models.Order, error) {
		return s.repos.Orders(s.db).ListByUser(ctx, userID)
	})
	if err != nil {
		return nil, s.fail(ctx, "list orders", err)
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repos.Orders(s.db).Get(ctx, orderID, userID)
	if err != nil {
		return nil, s.fail(ctx, "get order", err)
	}
	return order, nil
}

func (s *OrderService) Update(ctx context.Context, userID, orderID uuid.UUID, title, description string) (*models.Order, error) {
	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.tx.RunInTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Orders(tx)
		if err := repo.Update(ctx, &models.Order{ID: orderID, UserID: userID, Title: title, Description: strings.TrimSpace(description)}); err != nil {
			return err
		}
		var err error
		order, err = repo.Get(ctx, orderID, userID)
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, "update order", err)
	}

	s.cache.Invalidate(ctx, userID)
	return order, nil
}

func (s *OrderService) Delete(ctx context.Context, userID, orderID uuid.UUID) error {
	if err := s.repos.Orders(s.db).Delete(ctx, orderID, userID); err != nil {
		return s.fail(ctx, "delete order", err)
	}
	s.cache.Invalidate(ctx, userID)
	return nil
}

func (s *OrderService) SetStatus(ctx context.Context, userID, orderID uuid.UUID, status string) error {
	st, err := models.ParseOrderStatus(status)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInvalidInput, err)
	}
	if err := s.repos.Orders(s.db).SetStatus(ctx, orderID, userID, st); err != nil {
		return s.fail(ctx, "set order status", err)
	}
	s.cache.Invalidate(ctx, userID)
	return nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", common.ErrorInvalidInput)
	}
	if len(title) > MaxOrderTitleLength {
		return "", fmt.Errorf("%w: title must be at most %d characters", common.ErrorInvalidInput, MaxOrderTitleLength)
	}
	return title, nil
}

// fail passes NotFound through for the boundary and classifies the rest.
func (s *OrderService) fail(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return err
	}
	err = common.Classify(err)
	if errors.Is(err, common.ErrorInternal) || errors.Is(err, common.ErrorTransient) {
		s.log.Error(ctx, op+" failed", "error", err)
	}
	return err
}
