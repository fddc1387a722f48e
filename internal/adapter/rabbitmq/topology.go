package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YelzhanWeb/bloompizza/internal/domain"
)

const (
	OrdersExchange        = "orders_topic"
	DeadLetterExchange    = "orders_dlq"
	KitchenQueue          = "kitchen_queue"
	KitchenDeadQueue      = "kitchen_queue_dlq"
	NotificationsExchange = "notifications_fanout"

	kitchenBinding = "kitchen.#"
)

// KitchenRoutingKey routes an order by pizza size, e.g. "kitchen.M".
func KitchenRoutingKey(size domain.Size) string {
	return "kitchen." + string(size)
}

func declareOrdersExchange(ch Channel) error {
	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare orders exchange: %w", err)
	}
	return nil
}

func declareNotificationsExchange(ch Channel) error {
	if err := ch.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare notifications exchange: %w", err)
	}
	return nil
}

// declareKitchenQueue sets up the kitchen queue bound to the orders exchange.
// Rejected messages keep their kitchen.<size> key, so the dead letter
// exchange is a fanout.
func declareKitchenQueue(ch Channel) error {
	if err := declareOrdersExchange(ch); err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(DeadLetterExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(KitchenDeadQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}
	if err := ch.QueueBind(KitchenDeadQueue, "", DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	args := amqp.Table{"x-dead-letter-exchange": DeadLetterExchange}
	q, err := ch.QueueDeclare(KitchenQueue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare kitchen queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, kitchenBinding, OrdersExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind kitchen queue: %w", err)
	}
	return nil
}
