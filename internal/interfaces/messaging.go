package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/YelzhanWeb/bloompizza/internal/domain"
)

// RabbitMQ messages
type OrderMessage struct {
	OrderNumber string      `json:"order_number"`
	FullName    string      `json:"full_name"`
	Size        domain.Size `json:"size"`
	Toppings    []string    `json:"toppings"`
}

type StatusUpdateMessage struct {
	OrderNumber         string        `json:"order_number"`
	OldStatus           domain.Status `json:"old_status"`
	NewStatus           domain.Status `json:"new_status"`
	ChangedBy           string        `json:"changed_by"`
	Timestamp           time.Time     `json:"timestamp"`
	EstimatedCompletion *time.Time    `json:"estimated_completion,omitempty"`
}

// Messaging interfaces (adapter/rabbitmq)
type MessagePublisher interface {
	PublishOrder(ctx context.Context, msg OrderMessage) error
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeOrders(ctx context.Context, handler OrderMessageHandler) error
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

// ErrRequeue marks a handler failure the broker should redeliver rather than
// dead-letter.
var ErrRequeue = errors.New("message requeued")

type OrderMessageHandler func(ctx context.Context, body []byte) error

type NotificationHandler func(ctx context.Context, body []byte) error
