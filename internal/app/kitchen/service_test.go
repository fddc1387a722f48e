package kitchen

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/logger"
	"github.com/YelzhanWeb/bloompizza/internal/adapter/memory"
	"github.com/YelzhanWeb/bloompizza/internal/domain"
	"github.com/YelzhanWeb/bloompizza/internal/interfaces"
)

type fakePublisher struct {
	mu      sync.Mutex
	updates []interfaces.StatusUpdateMessage
	err     error
}

func (p *fakePublisher) PublishOrder(context.Context, interfaces.OrderMessage) error { return nil }

func (p *fakePublisher) PublishStatusUpdate(_ context.Context, msg interfaces.StatusUpdateMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, msg)
	return p.err
}

type cooked struct {
	size domain.Size
	took time.Duration
}

type fakeRecorder struct{ got []cooked }

func (r *fakeRecorder) RecordCooked(size domain.Size, took time.Duration) {
	r.got = append(r.got, cooked{size, took})
}

func instant(domain.Size) time.Duration { return time.Millisecond }

func seedOrder(t *testing.T, repo *memory.OrderRepository) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder(domain.OrderForm{FullName: "Alice", Size: domain.SizeMedium, Toppings: []string{"2"}})
	require.NoError(t, err)
	o.Number, err = repo.GenerateOrderNumber(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), o))
	return o
}

func TestService_ProcessOrderCooksToReady(t *testing.T) {
	repo := memory.NewOrderRepository()
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	svc := NewService(repo, pub, logger.NewNop(), "oven-1", WithCookTime(instant), WithRecorder(rec))
	o := seedOrder(t, repo)

	require.NoError(t, svc.ProcessOrder(context.Background(), interfaces.OrderMessage{OrderNumber: o.Number}))

	got, err := repo.FindByNumber(context.Background(), o.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, got.Status)
	require.NotNil(t, got.ProcessedBy)
	assert.Equal(t, "oven-1", *got.ProcessedBy)
	assert.NotNil(t, got.CompletedAt)

	logs, err := repo.GetStatusHistory(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, domain.StatusCooking, logs[1].Status)
	assert.Equal(t, domain.StatusReady, logs[2].Status)

	require.Len(t, pub.updates, 2)
	assert.Equal(t, domain.StatusReceived, pub.updates[0].OldStatus)
	assert.Equal(t, domain.StatusCooking, pub.updates[0].NewStatus)
	assert.NotNil(t, pub.updates[0].EstimatedCompletion)
	assert.Equal(t, domain.StatusReady, pub.updates[1].NewStatus)
	assert.Nil(t, pub.updates[1].EstimatedCompletion)

	assert.Equal(t, []cooked{{domain.SizeMedium, time.Millisecond}}, rec.got)
}

func TestService_ProcessOrderSkipsFinishedOrders(t *testing.T) {
	repo := memory.NewOrderRepository()
	pub := &fakePublisher{}
	svc := NewService(repo, pub, logger.NewNop(), "oven-1", WithCookTime(instant))
	o := seedOrder(t, repo)

	msg := interfaces.OrderMessage{OrderNumber: o.Number}
	require.NoError(t, svc.ProcessOrder(context.Background(), msg))
	require.NoError(t, svc.ProcessOrder(context.Background(), msg), "redelivery is acked")

	logs, err := repo.GetStatusHistory(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 3, "no status change on redelivery")
	assert.Len(t, pub.updates, 2)
}

func TestService_ProcessOrderResumesInterruptedCooking(t *testing.T) {
	repo := memory.NewOrderRepository()
	svc := NewService(repo, &fakePublisher{}, logger.NewNop(), "oven-2", WithCookTime(instant))
	o := seedOrder(t, repo)
	require.NoError(t, o.TransitionTo(domain.StatusCooking, "oven-1"))
	require.NoError(t, repo.UpdateStatusWithLog(context.Background(), o, "oven-1"))

	require.NoError(t, svc.ProcessOrder(context.Background(), interfaces.OrderMessage{OrderNumber: o.Number}))

	got, err := repo.FindByNumber(context.Background(), o.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, got.Status)
	assert.Equal(t, "oven-2", *got.ProcessedBy)
}

func TestService_ProcessOrderInterruptedIsRequeued(t *testing.T) {
	repo := memory.NewOrderRepository()
	svc := NewService(repo, &fakePublisher{}, logger.NewNop(), "oven-1",
		WithCookTime(func(domain.Size) time.Duration { return time.Hour }))
	o := seedOrder(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.ProcessOrder(ctx, interfaces.OrderMessage{OrderNumber: o.Number}) }()

	require.Eventually(t, func() bool {
		got, err := repo.FindByNumber(context.Background(), o.Number)
		return err == nil && got.Status == domain.StatusCooking
	}, time.Second, time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, interfaces.ErrRequeue)
}

func TestService_ProcessOrderUnknownOrder(t *testing.T) {
	svc := NewService(memory.NewOrderRepository(), &fakePublisher{}, logger.NewNop(), "oven-1", WithCookTime(instant))

	err := svc.ProcessOrder(context.Background(), interfaces.OrderMessage{OrderNumber: "ORD_20260101_404"})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.False(t, errors.Is(err, interfaces.ErrRequeue), "a missing order is dead-lettered")
}

func TestService_PublishFailureDoesNotStopCooking(t *testing.T) {
	repo := memory.NewOrderRepository()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewService(repo, pub, logger.NewNop(), "oven-1", WithCookTime(instant))
	o := seedOrder(t, repo)

	require.NoError(t, svc.ProcessOrder(context.Background(), interfaces.OrderMessage{OrderNumber: o.Number}))
	got, err := repo.FindByNumber(context.Background(), o.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, got.Status)
}
