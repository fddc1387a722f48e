package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

type OrderHandler struct {
	service interfaces.KitchenService
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.KitchenService, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

// HandleOrder decodes a kitchen message. A body that does not decode, or
// that lacks an order number, is not worth redelivering.
func (h *OrderHandler) HandleOrder(ctx context.Context, body []byte) error {
	var msg interfaces.OrderMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse order message", "", nil, err)
		return fmt.Errorf("failed to parse order message: %w", err)
	}
	if msg.OrderNumber == "" {
		err := fmt.Errorf("order message without order number")
		h.logger.Error("message_invalid", "Order message rejected", "", nil, err)
		return err
	}

	return h.service.ProcessOrder(ctx, msg)
}
