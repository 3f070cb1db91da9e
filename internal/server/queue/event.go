// Package queue publishes order events to the message broker.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// DefaultOrderQueue is the queue OrderCreated events are routed to.
const DefaultOrderQueue = "orders-queue"

// OrderCreatedEvent is published once per created order, before the
// creating transaction commits.
type OrderCreatedEvent struct {
	OrderID   uuid.UUID `json:"orderId"`
	UserID    uuid.UUID `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}
