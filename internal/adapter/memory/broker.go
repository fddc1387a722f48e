package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

// Broker is an in-process stand-in for the RabbitMQ exchanges. Orders go to
// one shared queue; status updates fan out to every subscriber and are
// dropped for subscribers that fall behind.
type Broker struct {
	orders     chan []byte
	retryDelay time.Duration

	mu          sync.Mutex
	subscribers []chan []byte
}

var (
	_ interfaces.MessagePublisher = (*Broker)(nil)
	_ interfaces.MessageConsumer  = (*Broker)(nil)
)

func NewBroker(buffer int) *Broker {
	if buffer < 1 {
		buffer = 1
	}
	return &Broker{orders: make(chan []byte, buffer), retryDelay: time.Second}
}

func (b *Broker) PublishOrder(ctx context.Context, msg interfaces.OrderMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	select {
	case b.orders <- body:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Broker) PublishStatusUpdate(ctx context.Context, msg interfaces.StatusUpdateMessage) error {
	_ = ctx
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subscribers {
		select {
		case sub <- body:
		default:
		}
	}
	return nil
}

// ConsumeOrders delivers queued orders until ctx is done. A message whose
// handler returns ErrRequeue is delivered again, after retryDelay, before the
// next queued one; any other failure drops it, as there is no dead letter
// queue in memory.
func (b *Broker) ConsumeOrders(ctx context.Context, handler interfaces.OrderMessageHandler) error {
	var retry [][]byte
	for {
		var body []byte
		if len(retry) > 0 {
			timer := time.NewTimer(b.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			body, retry = retry[0], retry[1:]
		} else {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case body = <-b.orders:
			}
		}

		err := handler(ctx, body)
		if errors.Is(err, interfaces.ErrRequeue) && ctx.Err() == nil {
			retry = append(retry, body)
		}
	}
}

func (b *Broker) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	sub := make(chan []byte, 16)
	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subscribers {
			if s == sub {
				b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
				break
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case body := <-sub:
			_ = handler(ctx, body)
		}
	}
}
