// Package order accepts submitted order forms on the API side.
package order

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/domain"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

type Service struct {
	repo      interfaces.OrderRepository
	publisher interfaces.MessagePublisher
	logger    logger.Logger
	policy    *bluemonday.Policy
}

func NewService(repo interfaces.OrderRepository, publisher interfaces.MessagePublisher, logger logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		policy:    bluemonday.StrictPolicy(),
	}
}

// CreateOrder validates, stores and forwards an order to the kitchen.
// Validation failures come back as *domain.ValidationError carrying every
// failed field.
func (s *Service) CreateOrder(ctx context.Context, form domain.OrderForm) (*domain.Order, error) {
	form = form.Clone()
	form.FullName = s.sanitizeName(form.FullName)

	order, err := domain.NewOrder(form)
	if err != nil {
		s.logger.Debug("validation_failed", "Order validation failed", "", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	number, err := s.repo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}
	order.Number = number

	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.Error("db_transaction_failed", "Failed to create order", "", nil, err)
		return nil, fmt.Errorf("failed to store order: %w", err)
	}
	s.logger.Debug("order_received", "Order stored", "", map[string]interface{}{"order_number": order.Number})

	msg := interfaces.OrderMessage{
		OrderNumber: order.Number,
		FullName:    order.FullName,
		Size:        order.Size,
		Toppings:    order.Toppings,
	}
	if err := s.publisher.PublishOrder(ctx, msg); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish order", "", map[string]interface{}{
			"order_number": order.Number,
		}, err)
		// The kitchen never saw it, so a retry must not leave a second order behind.
		if derr := s.repo.Delete(context.WithoutCancel(ctx), order.Number); derr != nil {
			s.logger.Error("order_withdraw_failed", "Failed to withdraw unpublished order", "", map[string]interface{}{
				"order_number": order.Number,
			}, derr)
		}
		return nil, fmt.Errorf("failed to hand order to the kitchen: %w", err)
	}

	s.logger.Info("order_accepted", fmt.Sprintf("Order %s accepted", order.Number), "", map[string]interface{}{
		"order_number": order.Number,
		"size":         string(order.Size),
		"toppings":     len(order.Toppings),
	})
	return order, nil
}

// sanitizeName strips any markup from a submitted name. The strict policy
// escapes what it keeps, so entities are decoded back to plain text; the
// pages that show the name escape it again on output.
func (s *Service) sanitizeName(name string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(name)))
}
