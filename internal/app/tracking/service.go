package tracking

import (
	"context"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/domain"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

type Service struct {
	orderRepo interfaces.OrderRepository
	logger    logger.Logger
}

func NewService(orderRepo interfaces.OrderRepository, logger logger.Logger) *Service {
	return &Service{
		orderRepo: orderRepo,
		logger:    logger,
	}
}

// GetOrderStatus reports an order's current status and its status history.
// Orders in the oven carry an estimated completion time.
func (s *Service) GetOrderStatus(ctx context.Context, orderNumber string) (*interfaces.TrackingOrderResponse, error) {
	order, err := s.orderRepo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	history, err := s.orderRepo.GetStatusHistory(ctx, order.ID)
	if err != nil {
		s.logger.Error("history_lookup_failed", "Failed to load status history", "", map[string]interface{}{
			"order_number": order.Number,
		}, err)
		return nil, err
	}

	resp := &interfaces.TrackingOrderResponse{
		OrderNumber:   order.Number,
		FullName:      order.FullName,
		Size:          order.Size,
		Toppings:      order.Toppings,
		CurrentStatus: order.Status,
		UpdatedAt:     order.UpdatedAt,
		ProcessedBy:   order.ProcessedBy,
		History:       history,
	}

	if order.Status == domain.StatusCooking {
		est := order.UpdatedAt.Add(order.CookingTime())
		resp.EstimatedCompletion = &est
	}

	return resp, nil
}
