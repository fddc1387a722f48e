// Package kitchen cooks accepted orders: received -> cooking -> ready.
package kitchen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/domain"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

// CookRecorder observes finished pizzas.
type CookRecorder interface {
	RecordCooked(size domain.Size, took time.Duration)
}

type Service struct {
	orderRepo  interfaces.OrderRepository
	publisher  interfaces.MessagePublisher
	logger     logger.Logger
	workerName string
	cookTime   func(domain.Size) time.Duration
	recorder   CookRecorder
}

type Option func(*Service)

// WithCookTime overrides the per-size cooking durations.
func WithCookTime(f func(domain.Size) time.Duration) Option {
	return func(s *Service) { s.cookTime = f }
}

func WithRecorder(r CookRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(
	orderRepo interfaces.OrderRepository,
	publisher interfaces.MessagePublisher,
	logger logger.Logger,
	workerName string,
	opts ...Option,
) *Service {
	s := &Service{
		orderRepo:  orderRepo,
		publisher:  publisher,
		logger:     logger,
		workerName: workerName,
		cookTime:   domain.Size.CookingTime,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessOrder cooks one order. Orders already ready (or further along) are
// skipped, so redelivered messages are harmless. An order left in cooking by
// a worker that stopped mid-way is cooked again.
func (s *Service) ProcessOrder(ctx context.Context, msg interfaces.OrderMessage) error {
	order, err := s.orderRepo.FindByNumber(ctx, msg.OrderNumber)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w (%w)", msg.OrderNumber, err, interfaces.ErrRequeue)
	}

	switch order.Status {
	case domain.StatusReceived:
		if err := s.updateStatusAndNotify(ctx, order, domain.StatusCooking); err != nil {
			return err
		}
	case domain.StatusCooking:
		s.logger.Info("order_cooking_resumed", fmt.Sprintf("Resuming order %s", order.Number), "", map[string]interface{}{
			"order_number": order.Number,
			"processed_by": order.ProcessedBy,
		})
	default:
		s.logger.Debug("order_skipped", fmt.Sprintf("Order %s already %s", order.Number, order.Status), "", nil)
		return nil
	}

	took := s.cookTime(order.Size)
	timer := time.NewTimer(took)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("cooking of %s interrupted: %w", order.Number, interfaces.ErrRequeue)
	case <-timer.C:
	}

	if err := s.updateStatusAndNotify(ctx, order, domain.StatusReady); err != nil {
		return err
	}
	if s.recorder != nil {
		s.recorder.RecordCooked(order.Size, took)
	}

	s.logger.Info("order_ready", fmt.Sprintf("Order %s is ready", order.Number), "", map[string]interface{}{
		"order_number": order.Number,
		"size":         string(order.Size),
		"toppings":     len(order.Toppings),
	})
	return nil
}

func (s *Service) updateStatusAndNotify(ctx context.Context, order *domain.Order, newStatus domain.Status) error {
	oldStatus := order.Status

	if err := order.TransitionTo(newStatus, s.workerName); err != nil {
		return err
	}
	if err := s.orderRepo.UpdateStatusWithLog(ctx, order, s.workerName); err != nil {
		return fmt.Errorf("failed to update order status: %w (%w)", err, interfaces.ErrRequeue)
	}

	notification := interfaces.StatusUpdateMessage{
		OrderNumber: order.Number,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		ChangedBy:   s.workerName,
		Timestamp:   order.UpdatedAt,
	}
	if newStatus == domain.StatusCooking {
		estimated := order.UpdatedAt.Add(s.cookTime(order.Size))
		notification.EstimatedCompletion = &estimated
	}

	if err := s.publisher.PublishStatusUpdate(ctx, notification); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish status update", "", map[string]interface{}{
			"order_number": order.Number,
		}, err)
	}
	return nil
}
