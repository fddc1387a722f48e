package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/bloompizza/internal/domain"
)

// Service interfaces (business logic)
type OrderService interface {
	CreateOrder(ctx context.Context, form domain.OrderForm) (*domain.Order, error)
}

type KitchenService interface {
	ProcessOrder(ctx context.Context, msg OrderMessage) error
}

type TrackingService interface {
	GetOrderStatus(ctx context.Context, orderNumber string) (*TrackingOrderResponse, error)
}

// FormValidator checks an order form. Implementations may block; the form
// controller discards results that arrive for an outdated form.
type FormValidator interface {
	Validate(ctx context.Context, form domain.OrderForm) (domain.FieldErrors, error)
}

// Tracking responses
type TrackingOrderResponse struct {
	OrderNumber         string
	FullName            string
	Size                domain.Size
	Toppings            []string
	CurrentStatus       domain.Status
	UpdatedAt           time.Time
	EstimatedCompletion *time.Time
	ProcessedBy         *string
	History             []*domain.StatusLog
}
