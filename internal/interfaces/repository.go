package interfaces

import (
	"context"

	"github.com/YelzhanWeb/bloompizza/internal/domain"
)

// Repository interfaces (adapter/postgres, adapter/memory)
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByNumber(ctx context.Context, number string) (*domain.Order, error)
	GenerateOrderNumber(ctx context.Context) (string, error)
	UpdateStatusWithLog(ctx context.Context, order *domain.Order, changedBy string) error
	GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error)
	// Delete removes an order with its toppings and history.
	Delete(ctx context.Context, number string) error
}
