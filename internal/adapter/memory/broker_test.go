package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/bloompizza/internal/domain"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

func TestBroker_DeliversOrders(t *testing.T) {
	b := NewBroker(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, b.PublishOrder(ctx, interfaces.OrderMessage{OrderNumber: "ORD_20260101_001", Size: domain.SizeLarge}))

	got := make(chan interfaces.OrderMessage, 1)
	done := make(chan error, 1)
	go func() {
		done <- b.ConsumeOrders(ctx, func(_ context.Context, body []byte) error {
			var msg interfaces.OrderMessage
			assert.NoError(t, json.Unmarshal(body, &msg))
			got <- msg
			return nil
		})
	}()

	select {
	case msg := <-got:
		assert.Equal(t, "ORD_20260101_001", msg.OrderNumber)
		assert.Equal(t, domain.SizeLarge, msg.Size)
	case <-time.After(time.Second):
		t.Fatal("order not delivered")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestBroker_PublishOrderHonoursContext(t *testing.T) {
	b := NewBroker(1)
	require.NoError(t, b.PublishOrder(context.Background(), interfaces.OrderMessage{OrderNumber: "a"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.PublishOrder(ctx, interfaces.OrderMessage{OrderNumber: "b"}), context.Canceled)
}

func TestBroker_StatusUpdatesWithoutSubscribersAreDropped(t *testing.T) {
	b := NewBroker(1)
	assert.NoError(t, b.PublishStatusUpdate(context.Background(), interfaces.StatusUpdateMessage{OrderNumber: "a"}))
}

func TestBroker_RequeuesAndDrops(t *testing.T) {
	b := NewBroker(4)
	b.retryDelay = time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, n := range []string{"flaky", "broken", "fine"} {
		require.NoError(t, b.PublishOrder(ctx, interfaces.OrderMessage{OrderNumber: n}))
	}

	seen := make(chan string, 8)
	attempts := map[string]int{}
	done := make(chan error, 1)
	go func() {
		done <- b.ConsumeOrders(ctx, func(_ context.Context, body []byte) error {
			var msg interfaces.OrderMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				return err
			}
			attempts[msg.OrderNumber]++
			seen <- msg.OrderNumber
			switch {
			case msg.OrderNumber == "flaky" && attempts["flaky"] == 1:
				return fmt.Errorf("oven busy: %w", interfaces.ErrRequeue)
			case msg.OrderNumber == "broken":
				return errors.New("unknown order")
			}
			return nil
		})
	}()

	var got []string
	for len(got) < 4 {
		select {
		case n := <-seen:
			got = append(got, n)
		case <-time.After(time.Second):
			t.Fatalf("deliveries so far: %v", got)
		}
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.Equal(t, []string{"flaky", "flaky", "broken", "fine"}, got)
}

func TestBroker_RequeueWaitsBeforeRedelivery(t *testing.T) {
	b := NewBroker(1)
	b.retryDelay = 50 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, b.PublishOrder(ctx, interfaces.OrderMessage{OrderNumber: "flaky"}))

	attempts := make(chan time.Time, 8)
	done := make(chan error, 1)
	go func() {
		done <- b.ConsumeOrders(ctx, func(context.Context, []byte) error {
			attempts <- time.Now()
			return interfaces.ErrRequeue
		})
	}()

	var first, second time.Time
	for i, at := range []*time.Time{&first, &second} {
		select {
		case *at = <-attempts:
		case <-time.After(time.Second):
			t.Fatalf("attempt %d not delivered", i+1)
		}
	}
	assert.GreaterOrEqual(t, second.Sub(first), b.retryDelay)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
