package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

const reconnectDelay = 5 * time.Second

type consumer struct {
	conn     Connection
	prefetch int
	logger   logger.Logger
	delay    time.Duration
}

func NewConsumer(conn Connection, prefetch int, logger logger.Logger) interfaces.MessageConsumer {
	return &consumer{conn: conn, prefetch: prefetch, logger: logger, delay: reconnectDelay}
}

// ConsumeOrders feeds kitchen_queue deliveries to handler until ctx is done,
// reopening the channel after a broker disconnect.
func (c *consumer) ConsumeOrders(ctx context.Context, handler interfaces.OrderMessageHandler) error {
	return c.retry(ctx, "orders", func() error {
		return c.consumeOrders(ctx, handler)
	})
}

func (c *consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	return c.retry(ctx, "notifications", func() error {
		return c.consumeNotifications(ctx, handler)
	})
}

func (c *consumer) retry(ctx context.Context, stream string, consume func() error) error {
	for {
		err := consume()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil || errors.Is(err, ErrConnectionClosed) {
			return err
		}

		c.logger.Error("consumer_disconnected", "Consumer disconnected, reconnecting", "", map[string]interface{}{
			"stream":   stream,
			"retry_in": c.delay.String(),
		}, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.delay):
		}
	}
}

func (c *consumer) consumeOrders(ctx context.Context, handler interfaces.OrderMessageHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose(make(chan *amqp.Error, 1))

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	if err := declareKitchenQueue(ch); err != nil {
		return err
	}

	msgs, err := ch.Consume(KitchenQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return errors.New("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return errors.New("messages channel closed")
			}
			c.settle(msg, handler(ctx, msg.Body))
		}
	}
}

// settle acks a handled delivery. Failures marked ErrRequeue go back to the
// queue; every other failure is dead-lettered.
func (c *consumer) settle(msg amqp.Delivery, err error) {
	var ackErr error
	switch {
	case err == nil:
		ackErr = msg.Ack(false)
	case errors.Is(err, interfaces.ErrRequeue):
		ackErr = msg.Nack(false, true)
	default:
		c.logger.Error("message_dead_lettered", "Order message rejected", "", map[string]interface{}{
			"message_id": msg.MessageId,
		}, err)
		ackErr = msg.Nack(false, false)
	}
	if ackErr != nil {
		c.logger.Error("message_settle_failed", "Failed to settle delivery", "", nil, ackErr)
	}
}

func (c *consumer) consumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose(make(chan *amqp.Error, 1))

	if err := declareNotificationsExchange(ch); err != nil {
		return err
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", NotificationsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return errors.New("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return errors.New("messages channel closed")
			}
			// Notifications are best effort and auto-acked.
			_ = handler(ctx, msg.Body)
		}
	}
}
