package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

// NotificationHandler prints kitchen status updates for the customer-facing
// side, one line per change.
type NotificationHandler struct {
	out    io.Writer
	logger logger.Logger
}

func NewNotificationHandler(out io.Writer, logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		out:    out,
		logger: logger,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.StatusUpdateMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}
	if !msg.NewStatus.Valid() {
		return fmt.Errorf("notification for %s has unknown status %q", msg.OrderNumber, msg.NewStatus)
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Received status update for order %s", msg.OrderNumber),
		msg.OrderNumber, map[string]interface{}{
			"order_number": msg.OrderNumber,
			"new_status":   msg.NewStatus,
		})

	line := fmt.Sprintf("Order %s: %s -> %s (by %s)", msg.OrderNumber, msg.OldStatus, msg.NewStatus, msg.ChangedBy)
	if msg.EstimatedCompletion != nil {
		line += ", ready around " + msg.EstimatedCompletion.Local().Format(time.Kitchen)
	}
	_, err := fmt.Fprintln(h.out, line)
	return err
}
